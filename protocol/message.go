package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/luma/xwire/expr"
)

// Side says which role's outgoing messages an engine instance receives.
// An engine on the client end of a connection receives Server traffic and
// sends Client traffic, and the other way around for the server end.
type Side uint8

const (
	Server Side = iota
	Client
)

func (s Side) Other() Side {
	if s == Server {
		return Client
	}

	return Server
}

func (s Side) String() string {
	switch s {
	case Server:
		return "server"
	case Client:
		return "client"
	default:
		return fmt.Sprintf("side(%d)", uint8(s))
	}
}

// Message type codes sent by a server. Error and Notice are universal:
// they are legal inside every exchange.
const (
	TypeOk         MsgType = 0
	TypeError      MsgType = 1
	TypeNotice     MsgType = 11
	TypeColumnMeta MsgType = 12
	TypeRow        MsgType = 13
	TypeFetchDone  MsgType = 14
	TypeStmtOk     MsgType = 17
)

// Message type codes sent by a client. The two partitions are independent,
// so codes may repeat across them.
const (
	TypeSessionClose MsgType = 7
	TypeStmtExecute  MsgType = 12
	TypeFind         MsgType = 17
)

type Marshaler interface {
	Marshal() ([]byte, error)
}

type Unmarshaler interface {
	Unmarshal(data []byte) error
}

// Message is a decoded protocol message: a typed object exposing its fields.
type Message interface {
	Unmarshaler
	Type() MsgType
}

// newMessage maps (side, type code) to a fresh decoded message object.
// side is the partition the engine receives.
func newMessage(side Side, t MsgType) (Message, error) {
	switch side {
	case Server:
		switch t {
		case TypeOk:
			return &Ok{}, nil
		case TypeError:
			return &ServerError{}, nil
		case TypeNotice:
			return &Notice{}, nil
		case TypeColumnMeta:
			return &ColumnMeta{}, nil
		case TypeRow:
			return &Row{}, nil
		case TypeFetchDone:
			return &FetchDone{}, nil
		case TypeStmtOk:
			return &StmtOk{}, nil
		}

	case Client:
		switch t {
		case TypeStmtExecute:
			return &StmtExecute{}, nil
		case TypeFind:
			return &Find{}, nil
		case TypeSessionClose:
			return &SessionClose{}, nil
		}
	}

	return nil, fmt.Errorf("message type %d on the %s partition: %w", t, side, ErrUnknownType)
}

// SQLState is the 5 character SQL-state style code carried by server errors.
type SQLState [5]byte

func (s SQLState) String() string {
	return string(s[:])
}

// Severity of a server-reported error. The server distinguishes plain and
// fatal errors on the wire; this engine collapses both to SeverityError.
type Severity uint8

const SeverityError Severity = 2

// NoticeScope says whether a notice applies to the whole connection or only
// to the current operation.
type NoticeScope uint8

const (
	ScopeGlobal NoticeScope = 1
	ScopeLocal  NoticeScope = 2
)

// Ok acknowledges a client message that produces no data.
type Ok struct {
	Msg string
}

func (m *Ok) Type() MsgType { return TypeOk }

func (m *Ok) Marshal() ([]byte, error) {
	return []byte(m.Msg), nil
}

func (m *Ok) Unmarshal(data []byte) error {
	m.Msg = string(data)
	return nil
}

// ServerError is an error reported by the server. It is data, not a local
// fault: the engine hands it to the receive cycle's sink and stops the
// cycle.
type ServerError struct {
	Code     uint32
	Severity Severity
	State    SQLState
	Msg      string
}

func (m *ServerError) Type() MsgType { return TypeError }

// Error lets callers above the engine surface a server-reported error as an
// ordinary Go error.
func (m *ServerError) Error() string {
	return fmt.Sprintf("server error %d (%s): %s", m.Code, m.State, m.Msg)
}

func (m *ServerError) Marshal() ([]byte, error) {
	out := make([]byte, 0, 10+len(m.Msg))
	out = appendUint32(out, m.Code)
	out = append(out, byte(m.Severity))
	out = append(out, m.State[:]...)
	out = append(out, m.Msg...)
	return out, nil
}

func (m *ServerError) Unmarshal(data []byte) error {
	if len(data) < 10 {
		return fmt.Errorf("error message of %d bytes: %w", len(data), ErrTruncatedMessage)
	}

	m.Code = binary.LittleEndian.Uint32(data[:4])
	// Both wire severities collapse to SeverityError.
	m.Severity = SeverityError
	copy(m.State[:], data[5:10])
	m.Msg = string(data[10:])
	return nil
}

// Notice is an out-of-band informational message. Its payload is opaque at
// this layer; interpretation depends on NoticeType.
type Notice struct {
	NoticeType uint32
	Scope      NoticeScope
	Payload    []byte
}

func (m *Notice) Type() MsgType { return TypeNotice }

func (m *Notice) Marshal() ([]byte, error) {
	out := make([]byte, 0, 5+len(m.Payload))
	out = appendUint32(out, m.NoticeType)
	out = append(out, byte(m.Scope))
	out = append(out, m.Payload...)
	return out, nil
}

func (m *Notice) Unmarshal(data []byte) error {
	if len(data) < 5 {
		return fmt.Errorf("notice of %d bytes: %w", len(data), ErrTruncatedMessage)
	}

	m.NoticeType = binary.LittleEndian.Uint32(data[:4])
	m.Scope = NoticeScope(data[4])
	m.Payload = append([]byte(nil), data[5:]...)
	return nil
}

// ColumnMeta describes one column of a result set.
type ColumnMeta struct {
	FieldType uint8
	Name      string
	Table     string
}

func (m *ColumnMeta) Type() MsgType { return TypeColumnMeta }

func (m *ColumnMeta) Marshal() ([]byte, error) {
	out := []byte{m.FieldType}
	out = appendBytes(out, []byte(m.Name))
	out = appendBytes(out, []byte(m.Table))
	return out, nil
}

func (m *ColumnMeta) Unmarshal(data []byte) error {
	if len(data) < 1 {
		return fmt.Errorf("column meta of %d bytes: %w", len(data), ErrTruncatedMessage)
	}

	m.FieldType = data[0]

	name, rest, err := readBytesField(data[1:])
	if err != nil {
		return err
	}

	table, _, err := readBytesField(rest)
	if err != nil {
		return err
	}

	m.Name = string(name)
	m.Table = string(table)
	return nil
}

// Row carries the raw field values of one result row. Conversion to typed
// values belongs to the result layer, not to the engine.
type Row struct {
	Fields [][]byte
}

func (m *Row) Type() MsgType { return TypeRow }

func (m *Row) Marshal() ([]byte, error) {
	out := appendUint32(nil, uint32(len(m.Fields)))
	for _, f := range m.Fields {
		out = appendBytes(out, f)
	}

	return out, nil
}

func (m *Row) Unmarshal(data []byte) error {
	count, rest, err := readUint32(data)
	if err != nil {
		return err
	}

	// The count is attacker-controlled; every field costs at least its 4
	// length bytes, so anything beyond that bound is necessarily truncated.
	capHint := int(count)
	if max := len(rest) / 4; capHint > max {
		capHint = max
	}

	m.Fields = make([][]byte, 0, capHint)
	for i := uint32(0); i < count; i++ {
		var f []byte
		f, rest, err = readBytesField(rest)
		if err != nil {
			return err
		}

		m.Fields = append(m.Fields, append([]byte(nil), f...))
	}

	return nil
}

// FetchDone marks the end of the rows of a result set.
type FetchDone struct{}

func (m *FetchDone) Type() MsgType            { return TypeFetchDone }
func (m *FetchDone) Marshal() ([]byte, error) { return nil, nil }
func (m *FetchDone) Unmarshal([]byte) error   { return nil }

// StmtOk ends a statement exchange after all result data has been sent.
type StmtOk struct{}

func (m *StmtOk) Type() MsgType            { return TypeStmtOk }
func (m *StmtOk) Marshal() ([]byte, error) { return nil, nil }
func (m *StmtOk) Unmarshal([]byte) error   { return nil }

// StmtExecute asks the server to execute a statement with the given
// arguments. Arguments are pushed through the value encoder when the
// message is serialized; no argument tree is kept on the wire path.
type StmtExecute struct {
	Stmt string
	Args []expr.Any

	// Set when the message is decoded on the server side. Use EachArg to
	// walk the encoded arguments.
	numArgs uint32
	rawArgs []byte
}

func (m *StmtExecute) Type() MsgType { return TypeStmtExecute }

func (m *StmtExecute) Marshal() ([]byte, error) {
	out := appendBytes(nil, []byte(m.Stmt))
	out = appendUint32(out, uint32(len(m.Args)))

	enc := newAnyEncoder()
	for _, arg := range m.Args {
		arg.ProcessAny(enc)
	}

	return append(out, enc.bytes()...), nil
}

func (m *StmtExecute) Unmarshal(data []byte) error {
	stmt, rest, err := readBytesField(data)
	if err != nil {
		return err
	}

	count, rest, err := readUint32(rest)
	if err != nil {
		return err
	}

	m.Stmt = string(stmt)
	m.numArgs = count
	m.rawArgs = append([]byte(nil), rest...)
	return nil
}

// NumArgs reports the number of encoded arguments of a decoded StmtExecute.
func (m *StmtExecute) NumArgs() uint32 { return m.numArgs }

// EachArg replays every encoded argument through p, in order.
func (m *StmtExecute) EachArg(p expr.AnyProcessor) error {
	rest := m.rawArgs
	for i := uint32(0); i < m.numArgs; i++ {
		var err error
		rest, err = decodeAny(rest, p)
		if err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}

	return nil
}

// Find asks the server for the documents of a collection matching a
// criteria expression. The criteria is pushed through the expression
// encoder at serialization time.
type Find struct {
	Collection expr.DBObj
	Criteria   expr.Expr

	// Set when the message is decoded on the server side; the criteria
	// stays opaque there (interpreting it belongs to the query layer).
	rawCriteria []byte
}

func (m *Find) Type() MsgType { return TypeFind }

func (m *Find) Marshal() ([]byte, error) {
	out := appendBytes(nil, []byte(m.Collection.Name))
	out = appendBytes(out, []byte(m.Collection.Schema))

	if m.Criteria == nil {
		return append(out, 0), nil
	}

	out = append(out, 1)
	enc := newExprEncoder()
	m.Criteria.ProcessExpr(enc)
	return append(out, enc.bytes()...), nil
}

func (m *Find) Unmarshal(data []byte) error {
	name, rest, err := readBytesField(data)
	if err != nil {
		return err
	}

	schema, rest, err := readBytesField(rest)
	if err != nil {
		return err
	}

	if len(rest) < 1 {
		return fmt.Errorf("find of %d bytes: %w", len(data), ErrTruncatedMessage)
	}

	m.Collection = expr.DBObj{Name: string(name), Schema: string(schema)}
	if rest[0] == 1 {
		m.rawCriteria = append([]byte(nil), rest[1:]...)
	}

	return nil
}

// RawCriteria returns the encoded criteria of a decoded Find, or nil when
// the message carried none.
func (m *Find) RawCriteria() []byte { return m.rawCriteria }

// SessionClose tells the server the client is done with this session.
type SessionClose struct{}

func (m *SessionClose) Type() MsgType            { return TypeSessionClose }
func (m *SessionClose) Marshal() ([]byte, error) { return nil, nil }
func (m *SessionClose) Unmarshal([]byte) error   { return nil }

var ErrTruncatedMessage = errors.New("message payload is malformed, it appears to be truncated")

func appendUint32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendBytes(b, p []byte) []byte {
	b = appendUint32(b, uint32(len(p)))
	return append(b, p...)
}

func readUint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, ErrTruncatedMessage
	}

	return binary.LittleEndian.Uint32(b[:4]), b[4:], nil
}

func readBytesField(b []byte) ([]byte, []byte, error) {
	n, rest, err := readUint32(b)
	if err != nil {
		return nil, nil, err
	}

	if uint32(len(rest)) < n {
		return nil, nil, ErrTruncatedMessage
	}

	return rest[:n], rest[n:], nil
}
