package expr

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var ErrInvalidJSON = errors.New("document is not valid JSON")

// ProcessJSON parses a JSON document and pushes it through p as an Any
// value: objects become documents, arrays become lists, scalars map onto
// the closest protocol scalar (numbers without a fraction become Int).
func ProcessJSON(data []byte, p AnyProcessor) error {
	if !gjson.ValidBytes(data) {
		return ErrInvalidJSON
	}

	walkJSON(gjson.ParseBytes(data), SafeAny(p))
	return nil
}

func walkJSON(v gjson.Result, p AnyProcessor) {
	switch {
	case v.IsObject():
		dp := p.Doc()
		dp.DocBegin()
		v.ForEach(func(key, val gjson.Result) bool {
			walkJSON(val, dp.Field(key.String()))
			return true
		})
		dp.DocEnd()

	case v.IsArray():
		lp := p.List()
		lp.ListBegin()
		v.ForEach(func(_, val gjson.Result) bool {
			walkJSON(val, lp.ListElem())
			return true
		})
		lp.ListEnd()

	default:
		sp := p.Scalar()

		switch v.Type {
		case gjson.String:
			sp.Str([]byte(v.String()))
		case gjson.Number:
			if strings.ContainsAny(v.Raw, ".eE") {
				sp.Double(v.Float())
			} else {
				sp.Int(v.Int())
			}
		case gjson.True:
			sp.Bool(true)
		case gjson.False:
			sp.Bool(false)
		default:
			sp.Null()
		}
	}
}

// JSONSink is an AnyProcessor that rebuilds the pushed value as a JSON
// document. Octets are emitted as base64 strings.
//
// The zero value is not usable; call NewJSONSink.
type JSONSink struct {
	out []byte
	err error
}

func NewJSONSink() *JSONSink {
	return &JSONSink{}
}

// Bytes returns the document built so far.
func (s *JSONSink) Bytes() []byte {
	return s.out
}

// Err reports the first building error, if any.
func (s *JSONSink) Err() error {
	return s.err
}

func (s *JSONSink) Scalar() ScalarProcessor {
	return &jsonScalar{sink: s}
}

func (s *JSONSink) List() AnyListProcessor {
	return &jsonList{sink: s}
}

func (s *JSONSink) Doc() AnyDocProcessor {
	return &jsonDoc{sink: s}
}

func (s *JSONSink) set(path string, v interface{}) {
	if s.err != nil {
		return
	}

	if path == "" {
		s.out, s.err = json.Marshal(v)
		return
	}

	s.out, s.err = sjson.SetBytes(s.out, path, v)
}

func (s *JSONSink) setRaw(path, raw string) {
	if s.err != nil {
		return
	}

	if path == "" {
		s.out = []byte(raw)
		return
	}

	s.out, s.err = sjson.SetRawBytes(s.out, path, []byte(raw))
}

type jsonAny struct {
	sink *JSONSink
	path string
}

func (a *jsonAny) Scalar() ScalarProcessor {
	return &jsonScalar{sink: a.sink, path: a.path}
}

func (a *jsonAny) List() AnyListProcessor {
	return &jsonList{sink: a.sink, path: a.path}
}

func (a *jsonAny) Doc() AnyDocProcessor {
	return &jsonDoc{sink: a.sink, path: a.path}
}

type jsonScalar struct {
	sink *JSONSink
	path string
}

func (j *jsonScalar) Null()                      { j.sink.setRaw(j.path, "null") }
func (j *jsonScalar) Str(val []byte)             { j.sink.set(j.path, string(val)) }
func (j *jsonScalar) StrCS(_ CharsetID, val []byte) { j.sink.set(j.path, string(val)) }
func (j *jsonScalar) Int(v int64)                { j.sink.set(j.path, v) }
func (j *jsonScalar) Uint(v uint64)              { j.sink.set(j.path, v) }
func (j *jsonScalar) Float(v float32)            { j.sink.set(j.path, v) }
func (j *jsonScalar) Double(v float64)           { j.sink.set(j.path, v) }
func (j *jsonScalar) Bool(v bool)                { j.sink.set(j.path, v) }

func (j *jsonScalar) Octets(data []byte) {
	j.sink.set(j.path, base64.StdEncoding.EncodeToString(data))
}

type jsonList struct {
	sink *JSONSink
	path string
	next int
}

func (j *jsonList) ListBegin() {
	j.sink.setRaw(j.path, "[]")
}

func (j *jsonList) ListElem() AnyProcessor {
	elem := strconv.Itoa(j.next)
	j.next++
	return &jsonAny{sink: j.sink, path: joinPath(j.path, elem)}
}

func (j *jsonList) ListEnd() {}

type jsonDoc struct {
	sink *JSONSink
	path string
}

func (j *jsonDoc) DocBegin() {
	j.sink.setRaw(j.path, "{}")
}

func (j *jsonDoc) Field(name string) AnyProcessor {
	return &jsonAny{sink: j.sink, path: joinPath(j.path, escapePathKey(name))}
}

func (j *jsonDoc) DocEnd() {}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}

	return prefix + "." + key
}

// escapePathKey escapes the characters sjson treats specially in paths.
func escapePathKey(key string) string {
	if !strings.ContainsAny(key, `.*?\|#@`) {
		return key
	}

	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}

	return b.String()
}
