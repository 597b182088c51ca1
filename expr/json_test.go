package expr_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/xwire/expr"
)

var _ = Describe("expr / JSON bridge", func() {
	Describe("ProcessJSON()", func() {
		It("rejects invalid documents", func() {
			rec := newAnyRecorder()

			err := expr.ProcessJSON([]byte(`{"a":`), rec)
			Expect(err).To(MatchError(expr.ErrInvalidJSON))
			Expect(*rec.events).To(BeEmpty())
		})

		It("maps scalars onto the closest protocol value", func() {
			rec := newAnyRecorder()

			err := expr.ProcessJSON([]byte(`[30, 1.5, "hi", true, false, null]`), rec)
			Expect(err).To(Succeed())

			Expect(*rec.events).To(Equal([]string{
				"[",
				"int:30", "double:1.5", "str:hi", "bool:true", "bool:false", "null",
				"]",
			}))
		})

		It("treats exponent notation as a double", func() {
			rec := newAnyRecorder()

			err := expr.ProcessJSON([]byte(`[1e2]`), rec)
			Expect(err).To(Succeed())

			Expect(*rec.events).To(Equal([]string{"[", "double:100", "]"}))
		})

		It("walks nested objects field by field, in order", func() {
			rec := newAnyRecorder()

			err := expr.ProcessJSON([]byte(`{"name":"alice","tags":["a","b"]}`), rec)
			Expect(err).To(Succeed())

			Expect(*rec.events).To(Equal([]string{
				"{",
				"field:name", "str:alice",
				"field:tags", "[", "str:a", "str:b", "]",
				"}",
			}))
		})
	})

	Describe("JSONSink", func() {
		It("rebuilds a pushed document as JSON", func() {
			src := []byte(`{"name":"alice","age":30,"score":1.5,"ok":true,"nada":null,"tags":["a","b"]}`)

			sink := expr.NewJSONSink()
			Expect(expr.ProcessJSON(src, sink)).To(Succeed())
			Expect(sink.Err()).To(Succeed())

			Expect(sink.Bytes()).To(MatchJSON(src))
		})

		It("emits octets as base64 strings", func() {
			sink := expr.NewJSONSink()

			expr.Octets([]byte("hi")).ProcessAny(sink)

			Expect(sink.Err()).To(Succeed())
			Expect(string(sink.Bytes())).To(Equal(`"aGk="`))
		})

		It("escapes field names sjson would treat as path syntax", func() {
			sink := expr.NewJSONSink()

			value := expr.Doc{
				{Name: "a.b", Value: expr.Int(1)},
			}
			value.ProcessAny(sink)

			Expect(sink.Err()).To(Succeed())
			Expect(sink.Bytes()).To(MatchJSON(`{"a.b":1}`))
		})
	})
})
