package protocol_test

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/xwire/expr"
	"github.com/luma/xwire/protocol"
)

// argRecorder records replayed argument values as flat event strings.
type argRecorder struct {
	events []string
}

func (r *argRecorder) log(e string) { r.events = append(r.events, e) }

func (r *argRecorder) Scalar() expr.ScalarProcessor { return (*argScalar)(r) }
func (r *argRecorder) List() expr.AnyListProcessor  { return (*argList)(r) }
func (r *argRecorder) Doc() expr.AnyDocProcessor    { return (*argDoc)(r) }

type argScalar argRecorder

func (s *argScalar) Null()              { (*argRecorder)(s).log("null") }
func (s *argScalar) Str(v []byte)       { (*argRecorder)(s).log("str:" + string(v)) }
func (s *argScalar) Int(v int64)        { (*argRecorder)(s).log(fmt.Sprintf("int:%d", v)) }
func (s *argScalar) Uint(v uint64)      { (*argRecorder)(s).log(fmt.Sprintf("uint:%d", v)) }
func (s *argScalar) Float(v float32)    { (*argRecorder)(s).log(fmt.Sprintf("float:%v", v)) }
func (s *argScalar) Double(v float64)   { (*argRecorder)(s).log(fmt.Sprintf("double:%v", v)) }
func (s *argScalar) Bool(v bool)        { (*argRecorder)(s).log(fmt.Sprintf("bool:%v", v)) }
func (s *argScalar) Octets(data []byte) { (*argRecorder)(s).log("octets:" + string(data)) }

func (s *argScalar) StrCS(cs expr.CharsetID, v []byte) {
	(*argRecorder)(s).log(fmt.Sprintf("strcs:%d:%s", cs, v))
}

type argList argRecorder

func (l *argList) ListBegin()                  { (*argRecorder)(l).log("[") }
func (l *argList) ListElem() expr.AnyProcessor { return (*argRecorder)(l) }
func (l *argList) ListEnd()                    { (*argRecorder)(l).log("]") }

type argDoc argRecorder

func (d *argDoc) DocBegin() { (*argRecorder)(d).log("{") }
func (d *argDoc) DocEnd()   { (*argRecorder)(d).log("}") }

func (d *argDoc) Field(name string) expr.AnyProcessor {
	(*argRecorder)(d).log("field:" + name)
	return (*argRecorder)(d)
}

var _ = Describe("protocol / messages", func() {
	Describe("ServerError", func() {
		It("collapses both wire severities to SeverityError on decode", func() {
			src := &protocol.ServerError{
				Code:     1205,
				Severity: protocol.Severity(0),
				State:    protocol.SQLState{'H', 'Y', '0', '0', '0'},
				Msg:      "lock wait timeout",
			}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.ServerError
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.Severity).To(Equal(protocol.SeverityError))
			Expect(decoded.Code).To(Equal(uint32(1205)))
			Expect(decoded.State.String()).To(Equal("HY000"))
			Expect(decoded.Msg).To(Equal("lock wait timeout"))
		})

		It("rejects truncated payloads", func() {
			var decoded protocol.ServerError
			Expect(decoded.Unmarshal([]byte{1, 2, 3})).To(MatchError(protocol.ErrTruncatedMessage))
		})
	})

	Describe("StmtExecute", func() {
		It("replays every encoded argument through a processor, in order", func() {
			src := &protocol.StmtExecute{
				Stmt: "insert into t values (?, ?, ?)",
				Args: []expr.Any{
					expr.Int(-5),
					expr.Uint(7),
					expr.Double(3.5),
					expr.Float(1.25),
					expr.Bool(true),
					expr.Null(),
					expr.String("hi"),
					expr.StringCS(33, "héllo"),
					expr.Octets([]byte("raw")),
					expr.List{expr.Int(1), expr.Int(2)},
					expr.Doc{
						{Name: "name", Value: expr.String("alice")},
						{Name: "age", Value: expr.Int(30)},
					},
				},
			}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.StmtExecute
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.Stmt).To(Equal(src.Stmt))
			Expect(decoded.NumArgs()).To(Equal(uint32(len(src.Args))))

			rec := &argRecorder{}
			Expect(decoded.EachArg(rec)).To(Succeed())

			Expect(rec.events).To(Equal([]string{
				"int:-5",
				"uint:7",
				"double:3.5",
				"float:1.25",
				"bool:true",
				"null",
				"str:hi",
				"strcs:33:héllo",
				"octets:raw",
				"[", "int:1", "int:2", "]",
				"{", "field:name", "str:alice", "field:age", "int:30", "}",
			}))
		})

		It("round-trips a statement without arguments", func() {
			src := &protocol.StmtExecute{Stmt: "select 1"}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.StmtExecute
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.Stmt).To(Equal("select 1"))
			Expect(decoded.NumArgs()).To(BeZero())
			Expect(decoded.EachArg(&argRecorder{})).To(Succeed())
		})
	})

	Describe("Find", func() {
		It("carries the collection and an encoded criteria", func() {
			src := &protocol.Find{
				Collection: expr.DBObj{Name: "users", Schema: "app"},
				Criteria: expr.Op("==",
					expr.ColRef("age", nil),
					expr.PlaceholderPos(0),
				),
			}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.Find
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.Collection).To(Equal(src.Collection))
			Expect(decoded.RawCriteria()).NotTo(BeEmpty())
		})

		It("a nil criteria stays nil across the wire", func() {
			src := &protocol.Find{Collection: expr.DBObj{Name: "users", Schema: "app"}}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.Find
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.RawCriteria()).To(BeNil())
		})
	})

	Describe("Row", func() {
		It("keeps empty fields distinct from missing ones", func() {
			src := &protocol.Row{Fields: [][]byte{[]byte("a"), {}, []byte("c")}}

			payload, err := src.Marshal()
			Expect(err).To(Succeed())

			var decoded protocol.Row
			Expect(decoded.Unmarshal(payload)).To(Succeed())

			Expect(decoded.Fields).To(HaveLen(3))
			Expect(decoded.Fields[1]).To(BeEmpty())
		})

		It("rejects a field count the payload cannot possibly carry", func() {
			// Four billion claimed fields backed by a single byte. The
			// decoder must fail without sizing anything to the claim.
			payload := []byte{0xff, 0xff, 0xff, 0xff, 0x00}

			var decoded protocol.Row
			Expect(decoded.Unmarshal(payload)).To(MatchError(protocol.ErrTruncatedMessage))
			Expect(decoded.Fields).To(BeEmpty())
		})
	})
})
