package expr_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/xwire/expr"
)

var _ = Describe("expr / Path", func() {
	It("builds steps in order with the right kinds", func() {
		p := expr.NewPath().Member("x").ArrayIndex(2).DoubleWildcard()

		Expect(p.Len()).To(Equal(3))

		Expect(p.Kind(0)).To(Equal(expr.Member))
		Expect(p.Name(0)).To(Equal("x"))

		Expect(p.Kind(1)).To(Equal(expr.ArrayIndex))
		Expect(p.Index(1)).To(Equal(uint32(2)))

		Expect(p.Kind(2)).To(Equal(expr.DoubleWildcard))
	})

	It("models the wildcard step kinds", func() {
		p := expr.NewPath().MemberWildcard().ArrayIndexWildcard()

		Expect(p.Kind(0)).To(Equal(expr.MemberWildcard))
		Expect(p.Kind(1)).To(Equal(expr.ArrayIndexWildcard))
	})

	It("an empty path has no steps", func() {
		Expect(expr.NewPath().Len()).To(Equal(0))
	})
})
