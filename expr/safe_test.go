package expr_test

import (
	"fmt"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/xwire/expr"
)

// anyRecorder records every callback a producer fires, in order, as flat
// event strings. Fields named in decline return a nil sub-processor, which
// the safe wrappers must turn into silent no-ops.
type anyRecorder struct {
	events  *[]string
	decline map[string]bool
}

func newAnyRecorder() *anyRecorder {
	return &anyRecorder{events: &[]string{}, decline: map[string]bool{}}
}

func (r *anyRecorder) Scalar() expr.ScalarProcessor { return &scalarRecorder{events: r.events} }
func (r *anyRecorder) List() expr.AnyListProcessor  { return &listRecorder{r: r} }
func (r *anyRecorder) Doc() expr.AnyDocProcessor    { return &docRecorder{r: r} }

type scalarRecorder struct {
	events *[]string
}

func (s *scalarRecorder) log(e string) { *s.events = append(*s.events, e) }

func (s *scalarRecorder) Null()             { s.log("null") }
func (s *scalarRecorder) Str(v []byte)      { s.log("str:" + string(v)) }
func (s *scalarRecorder) Int(v int64)       { s.log(fmt.Sprintf("int:%d", v)) }
func (s *scalarRecorder) Uint(v uint64)     { s.log(fmt.Sprintf("uint:%d", v)) }
func (s *scalarRecorder) Float(v float32)   { s.log(fmt.Sprintf("float:%v", v)) }
func (s *scalarRecorder) Double(v float64)  { s.log(fmt.Sprintf("double:%v", v)) }
func (s *scalarRecorder) Bool(v bool)       { s.log(fmt.Sprintf("bool:%v", v)) }
func (s *scalarRecorder) Octets(data []byte) { s.log("octets:" + string(data)) }

func (s *scalarRecorder) StrCS(cs expr.CharsetID, v []byte) {
	s.log(fmt.Sprintf("strcs:%d:%s", cs, v))
}

type listRecorder struct {
	r *anyRecorder
}

func (l *listRecorder) ListBegin()                  { *l.r.events = append(*l.r.events, "[") }
func (l *listRecorder) ListElem() expr.AnyProcessor { return l.r }
func (l *listRecorder) ListEnd()                    { *l.r.events = append(*l.r.events, "]") }

type docRecorder struct {
	r *anyRecorder
}

func (d *docRecorder) DocBegin() { *d.r.events = append(*d.r.events, "{") }
func (d *docRecorder) DocEnd()   { *d.r.events = append(*d.r.events, "}") }

func (d *docRecorder) Field(name string) expr.AnyProcessor {
	*d.r.events = append(*d.r.events, "field:"+name)

	if d.r.decline[name] {
		return nil
	}

	return d.r
}

var _ = Describe("expr / safe wrappers", func() {
	It("turns a nil scalar processor into a no-op for every callback", func() {
		s := expr.SafeScalar(nil)

		Expect(func() {
			s.Null()
			s.Str([]byte("x"))
			s.StrCS(33, []byte("x"))
			s.Int(-1)
			s.Uint(1)
			s.Float(1.5)
			s.Double(2.5)
			s.Bool(true)
			s.Octets([]byte{0xff})
		}).NotTo(Panic())
	})

	It("lets a producer drive a whole tree into a nil processor", func() {
		value := expr.Doc{
			{Name: "a", Value: expr.Int(1)},
			{Name: "b", Value: expr.List{expr.Int(2), expr.Doc{{Name: "c", Value: expr.Null()}}}},
		}

		Expect(func() {
			value.ProcessAny(expr.SafeAny(nil))
		}).NotTo(Panic())
	})

	It("turns a nil expression processor into no-ops, sub-processors included", func() {
		p := expr.SafeExpr(nil)

		Expect(func() {
			p.Scalar().Val().Int(1)
			p.Scalar().Var("v")
			p.Scalar().ColRef("c", nil)
			p.Scalar().ColRefPath("c", nil, expr.NewPath().Member("x"))
			p.Scalar().DocRef(expr.NewPath().DoubleWildcard())
			p.Scalar().Placeholder()
			p.Scalar().PlaceholderName("n")
			p.Scalar().PlaceholderPos(3)

			args := p.Scalar().Op("+")
			args.ListBegin()
			args.ListElem().Scalar().Val().Int(2)
			args.ListEnd()

			call := p.Scalar().Call(expr.DBObj{Name: "fn"})
			call.ListBegin()
			call.ListEnd()

			list := p.List()
			list.ListBegin()
			list.ListElem()
			list.ListEnd()

			doc := p.Doc()
			doc.DocBegin()
			doc.Field("f")
			doc.DocEnd()
		}).NotTo(Panic())
	})

	It("forwards every callback argument-for-argument when a processor is present", func() {
		rec := newAnyRecorder()

		value := expr.Doc{
			{Name: "a", Value: expr.Int(1)},
			{Name: "b", Value: expr.List{expr.String("x"), expr.Bool(false)}},
		}

		value.ProcessAny(rec)

		Expect(*rec.events).To(Equal([]string{
			"{",
			"field:a", "int:1",
			"field:b", "[", "str:x", "bool:false", "]",
			"}",
		}))
	})

	Describe("declined subtrees", func() {
		It("still walks a declined field and keeps sibling ordering intact", func() {
			rec := newAnyRecorder()
			rec.decline["b"] = true

			value := expr.Doc{
				{Name: "a", Value: expr.Int(1)},
				{Name: "b", Value: expr.List{expr.Int(2), expr.Int(3)}},
				{Name: "c", Value: expr.Int(4)},
			}

			value.ProcessAny(rec)

			// The walk of b happens, but none of its callbacks land anywhere.
			Expect(*rec.events).To(Equal([]string{
				"{",
				"field:a", "int:1",
				"field:b",
				"field:c", "int:4",
				"}",
			}))
		})
	})
})
