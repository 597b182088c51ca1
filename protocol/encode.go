package protocol

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/luma/xwire/expr"
)

// Binary encoding of Any values and expressions.
//
// Values are encoded as a tag byte followed by tag-specific data. Container
// counts are not known up front in the push model, so the encoders reserve
// the count slot when a container begins and patch it when it ends.

const (
	tagNull   = 0x00
	tagStr    = 0x01
	tagStrCS  = 0x02
	tagInt    = 0x03
	tagUint   = 0x04
	tagFloat  = 0x05
	tagDouble = 0x06
	tagBool   = 0x07
	tagOctets = 0x08

	tagList = 0x10
	tagDoc  = 0x11

	tagVar             = 0x20
	tagColRef          = 0x21
	tagColRefPath      = 0x22
	tagDocRef          = 0x23
	tagOp              = 0x24
	tagCall            = 0x25
	tagPlaceholder     = 0x26
	tagPlaceholderName = 0x27
	tagPlaceholderPos  = 0x28
)

type encBuf struct {
	b []byte
}

func (e *encBuf) tag(t byte) {
	e.b = append(e.b, t)
}

func (e *encBuf) u32(v uint32) {
	e.b = appendUint32(e.b, v)
}

func (e *encBuf) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.b = append(e.b, tmp[:]...)
}

func (e *encBuf) bytesField(p []byte) {
	e.b = appendBytes(e.b, p)
}

// reserveU32 leaves room for a count to be patched in later and returns its
// offset.
func (e *encBuf) reserveU32() int {
	off := len(e.b)
	e.b = append(e.b, 0, 0, 0, 0)
	return off
}

func (e *encBuf) patchU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(e.b[off:off+4], v)
}

func (e *encBuf) path(p expr.DocPath) {
	e.u32(uint32(p.Len()))
	for i := 0; i < p.Len(); i++ {
		kind := p.Kind(i)
		e.tag(byte(kind))

		switch kind {
		case expr.Member:
			e.bytesField([]byte(p.Name(i)))
		case expr.ArrayIndex:
			e.u32(p.Index(i))
		}
	}
}

func (e *encBuf) dbObj(obj expr.DBObj) {
	e.bytesField([]byte(obj.Name))
	e.bytesField([]byte(obj.Schema))
}

// anyEncoder encodes one or more Any values pushed through it.
type anyEncoder struct {
	buf *encBuf
}

func newAnyEncoder() *anyEncoder {
	return &anyEncoder{buf: &encBuf{}}
}

func (a *anyEncoder) bytes() []byte {
	return a.buf.b
}

func (a *anyEncoder) Scalar() expr.ScalarProcessor {
	return &scalarEncoder{buf: a.buf}
}

func (a *anyEncoder) List() expr.AnyListProcessor {
	return &anyListEncoder{buf: a.buf}
}

func (a *anyEncoder) Doc() expr.AnyDocProcessor {
	return &anyDocEncoder{buf: a.buf}
}

type scalarEncoder struct {
	buf *encBuf
}

func (s *scalarEncoder) Null() {
	s.buf.tag(tagNull)
}

func (s *scalarEncoder) Str(val []byte) {
	s.buf.tag(tagStr)
	s.buf.bytesField(val)
}

func (s *scalarEncoder) StrCS(cs expr.CharsetID, val []byte) {
	s.buf.tag(tagStrCS)
	s.buf.u64(uint64(cs))
	s.buf.bytesField(val)
}

func (s *scalarEncoder) Int(v int64) {
	s.buf.tag(tagInt)
	s.buf.u64(uint64(v))
}

func (s *scalarEncoder) Uint(v uint64) {
	s.buf.tag(tagUint)
	s.buf.u64(v)
}

func (s *scalarEncoder) Float(v float32) {
	s.buf.tag(tagFloat)
	s.buf.u32(math.Float32bits(v))
}

func (s *scalarEncoder) Double(v float64) {
	s.buf.tag(tagDouble)
	s.buf.u64(math.Float64bits(v))
}

func (s *scalarEncoder) Bool(v bool) {
	s.buf.tag(tagBool)
	if v {
		s.buf.tag(1)
	} else {
		s.buf.tag(0)
	}
}

func (s *scalarEncoder) Octets(data []byte) {
	s.buf.tag(tagOctets)
	s.buf.bytesField(data)
}

type anyListEncoder struct {
	buf      *encBuf
	countOff int
	count    uint32
}

func (l *anyListEncoder) ListBegin() {
	l.buf.tag(tagList)
	l.countOff = l.buf.reserveU32()
}

func (l *anyListEncoder) ListElem() expr.AnyProcessor {
	l.count++
	return &anyEncoder{buf: l.buf}
}

func (l *anyListEncoder) ListEnd() {
	l.buf.patchU32(l.countOff, l.count)
}

type anyDocEncoder struct {
	buf      *encBuf
	countOff int
	count    uint32
}

func (d *anyDocEncoder) DocBegin() {
	d.buf.tag(tagDoc)
	d.countOff = d.buf.reserveU32()
}

func (d *anyDocEncoder) Field(name string) expr.AnyProcessor {
	d.count++
	d.buf.bytesField([]byte(name))
	return &anyEncoder{buf: d.buf}
}

func (d *anyDocEncoder) DocEnd() {
	d.buf.patchU32(d.countOff, d.count)
}

// exprEncoder encodes one expression pushed through it.
type exprEncoder struct {
	buf *encBuf
}

func newExprEncoder() *exprEncoder {
	return &exprEncoder{buf: &encBuf{}}
}

func (x *exprEncoder) bytes() []byte {
	return x.buf.b
}

func (x *exprEncoder) Scalar() expr.ExprScalarProcessor {
	return &exprScalarEncoder{buf: x.buf}
}

func (x *exprEncoder) List() expr.ExprListProcessor {
	return &exprListEncoder{buf: x.buf}
}

func (x *exprEncoder) Doc() expr.ExprDocProcessor {
	return &exprDocEncoder{buf: x.buf}
}

type exprScalarEncoder struct {
	buf *encBuf
}

// Val encodes a literal; literals reuse the plain scalar tags so a literal
// expression and the equivalent Any value encode identically.
func (x *exprScalarEncoder) Val() expr.ScalarProcessor {
	return &scalarEncoder{buf: x.buf}
}

func (x *exprScalarEncoder) Op(name string) expr.ArgsProcessor {
	x.buf.tag(tagOp)
	x.buf.bytesField([]byte(name))
	return &exprListEncoder{buf: x.buf, bare: true}
}

func (x *exprScalarEncoder) Call(fn expr.DBObj) expr.ArgsProcessor {
	x.buf.tag(tagCall)
	x.buf.dbObj(fn)
	return &exprListEncoder{buf: x.buf, bare: true}
}

func (x *exprScalarEncoder) Var(name string) {
	x.buf.tag(tagVar)
	x.buf.bytesField([]byte(name))
}

func (x *exprScalarEncoder) ColRef(name string, obj *expr.DBObj) {
	x.buf.tag(tagColRef)
	x.buf.bytesField([]byte(name))
	x.encodeObj(obj)
}

func (x *exprScalarEncoder) ColRefPath(name string, obj *expr.DBObj, path expr.DocPath) {
	x.buf.tag(tagColRefPath)
	x.buf.bytesField([]byte(name))
	x.encodeObj(obj)
	x.buf.path(path)
}

func (x *exprScalarEncoder) DocRef(path expr.DocPath) {
	x.buf.tag(tagDocRef)
	x.buf.path(path)
}

func (x *exprScalarEncoder) Placeholder() {
	x.buf.tag(tagPlaceholder)
}

func (x *exprScalarEncoder) PlaceholderName(name string) {
	x.buf.tag(tagPlaceholderName)
	x.buf.bytesField([]byte(name))
}

func (x *exprScalarEncoder) PlaceholderPos(pos uint32) {
	x.buf.tag(tagPlaceholderPos)
	x.buf.u32(pos)
}

func (x *exprScalarEncoder) encodeObj(obj *expr.DBObj) {
	if obj == nil {
		x.buf.tag(0)
		return
	}

	x.buf.tag(1)
	x.buf.dbObj(*obj)
}

// exprListEncoder doubles as the argument-list encoder: argument lists are
// bare (no tag, the Op/Call tag already went out), ordinary lists are not.
type exprListEncoder struct {
	buf      *encBuf
	bare     bool
	countOff int
	count    uint32
}

func (l *exprListEncoder) ListBegin() {
	if !l.bare {
		l.buf.tag(tagList)
	}

	l.countOff = l.buf.reserveU32()
}

func (l *exprListEncoder) ListElem() expr.ExprProcessor {
	l.count++
	return &exprEncoder{buf: l.buf}
}

func (l *exprListEncoder) ListEnd() {
	l.buf.patchU32(l.countOff, l.count)
}

type exprDocEncoder struct {
	buf      *encBuf
	countOff int
	count    uint32
}

func (d *exprDocEncoder) DocBegin() {
	d.buf.tag(tagDoc)
	d.countOff = d.buf.reserveU32()
}

func (d *exprDocEncoder) Field(name string) expr.ExprProcessor {
	d.count++
	d.buf.bytesField([]byte(name))
	return &exprEncoder{buf: d.buf}
}

func (d *exprDocEncoder) DocEnd() {
	d.buf.patchU32(d.countOff, d.count)
}

// decodeAny reads one encoded Any value from data and replays it through p,
// returning the unconsumed remainder.
func decodeAny(data []byte, p expr.AnyProcessor) ([]byte, error) {
	safe := expr.SafeAny(p)

	if len(data) < 1 {
		return nil, ErrTruncatedMessage
	}

	tag := data[0]
	rest := data[1:]

	switch tag {
	case tagNull:
		safe.Scalar().Null()
		return rest, nil

	case tagStr:
		val, rest, err := readBytesField(rest)
		if err != nil {
			return nil, err
		}

		safe.Scalar().Str(val)
		return rest, nil

	case tagStrCS:
		if len(rest) < 8 {
			return nil, ErrTruncatedMessage
		}

		cs := binary.LittleEndian.Uint64(rest[:8])
		val, rest, err := readBytesField(rest[8:])
		if err != nil {
			return nil, err
		}

		safe.Scalar().StrCS(expr.CharsetID(cs), val)
		return rest, nil

	case tagInt, tagUint, tagDouble:
		if len(rest) < 8 {
			return nil, ErrTruncatedMessage
		}

		v := binary.LittleEndian.Uint64(rest[:8])
		switch tag {
		case tagInt:
			safe.Scalar().Int(int64(v))
		case tagUint:
			safe.Scalar().Uint(v)
		default:
			safe.Scalar().Double(math.Float64frombits(v))
		}

		return rest[8:], nil

	case tagFloat:
		if len(rest) < 4 {
			return nil, ErrTruncatedMessage
		}

		safe.Scalar().Float(math.Float32frombits(binary.LittleEndian.Uint32(rest[:4])))
		return rest[4:], nil

	case tagBool:
		if len(rest) < 1 {
			return nil, ErrTruncatedMessage
		}

		safe.Scalar().Bool(rest[0] != 0)
		return rest[1:], nil

	case tagOctets:
		val, rest, err := readBytesField(rest)
		if err != nil {
			return nil, err
		}

		safe.Scalar().Octets(val)
		return rest, nil

	case tagList:
		count, rest, err := readUint32(rest)
		if err != nil {
			return nil, err
		}

		lp := safe.List()
		lp.ListBegin()
		for i := uint32(0); i < count; i++ {
			rest, err = decodeAny(rest, lp.ListElem())
			if err != nil {
				return nil, err
			}
		}
		lp.ListEnd()

		return rest, nil

	case tagDoc:
		count, rest, err := readUint32(rest)
		if err != nil {
			return nil, err
		}

		dp := safe.Doc()
		dp.DocBegin()
		for i := uint32(0); i < count; i++ {
			var name []byte
			name, rest, err = readBytesField(rest)
			if err != nil {
				return nil, err
			}

			rest, err = decodeAny(rest, dp.Field(string(name)))
			if err != nil {
				return nil, err
			}
		}
		dp.DocEnd()

		return rest, nil
	}

	return nil, fmt.Errorf("value tag 0x%02x cannot be decoded as a plain value", tag)
}
