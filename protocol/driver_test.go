package protocol_test

import (
	"math"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/xwire/protocol"
)

var _ = Describe("protocol / Driver", func() {
	Describe("writing", func() {
		It("pushes a staged frame out across would-block suspensions", func() {
			str := &chunkStream{chunk: 3}
			drv := protocol.NewDriver(str, 0)

			frame := mustFrame(protocol.TypeOk, &protocol.Ok{Msg: "hello there"})
			Expect(drv.BeginWrite(frame)).To(Succeed())

			// With 3-byte chunks and alternating would-blocks the first pass
			// cannot finish.
			done, err := drv.ContinueWrite()
			Expect(err).To(Succeed())
			Expect(done).To(BeFalse())

			Expect(drv.WaitWrite()).To(Succeed())
			Expect(str.out).To(Equal(frame))
		})

		It("copies the staged bytes so the caller may reuse its buffer", func() {
			str := &chunkStream{chunk: 64}
			drv := protocol.NewDriver(str, 0)

			frame := mustFrame(protocol.TypeOk, &protocol.Ok{Msg: "original"})
			staged := append([]byte(nil), frame...)
			Expect(drv.BeginWrite(staged)).To(Succeed())

			for i := range staged {
				staged[i] = 0
			}

			Expect(drv.WaitWrite()).To(Succeed())
			Expect(str.out).To(Equal(frame))
		})

		It("rejects frames above the configured maximum", func() {
			drv := protocol.NewDriver(&chunkStream{chunk: 8}, 8)

			frame := mustFrame(protocol.TypeOk, &protocol.Ok{Msg: "way too long for this"})
			Expect(drv.BeginWrite(frame)).To(MatchError(protocol.ErrFrameTooLarge))
		})

		It("accepts a small frame when the maximum sits at the uint32 ceiling", func() {
			str := &chunkStream{chunk: 64}
			drv := protocol.NewDriver(str, math.MaxUint32)

			frame := mustFrame(protocol.TypeOk, &protocol.Ok{Msg: "small"})
			Expect(drv.BeginWrite(frame)).To(Succeed())
			Expect(drv.WaitWrite()).To(Succeed())
			Expect(str.out).To(Equal(frame))
		})

		It("panics when a write is begun over an unfinished one", func() {
			drv := protocol.NewDriver(stuckStream{}, 0)

			frame := mustFrame(protocol.TypeOk, &protocol.Ok{})
			Expect(drv.BeginWrite(frame)).To(Succeed())

			Expect(func() { _ = drv.BeginWrite(frame) }).To(Panic())
		})
	})

	Describe("reading", func() {
		It("reads header then payload, in stages, across suspensions", func() {
			frame := mustFrame(protocol.TypeOk, &protocol.Ok{Msg: "staged"})
			str := &chunkStream{in: frame, chunk: 2}
			drv := protocol.NewDriver(str, 0)

			drv.BeginReadHeader()
			Expect(drv.WaitRead()).To(Succeed())

			t, size := drv.Header()
			Expect(t).To(Equal(protocol.TypeOk))
			Expect(size).To(Equal(uint32(len("staged"))))

			Expect(drv.BeginReadPayload(size)).To(Succeed())
			Expect(drv.WaitRead()).To(Succeed())

			Expect(string(drv.Payload())).To(Equal("staged"))
		})

		It("keeps a completed header when BeginReadHeader is re-invoked", func() {
			frame := mustFrame(protocol.TypeStmtOk, &protocol.StmtOk{})
			str := &chunkStream{in: frame, chunk: 8}
			drv := protocol.NewDriver(str, 0)

			drv.BeginReadHeader()
			Expect(drv.WaitRead()).To(Succeed())

			// No-op: the buffered header must survive.
			drv.BeginReadHeader()

			t, size := drv.Header()
			Expect(t).To(Equal(protocol.TypeStmtOk))
			Expect(size).To(BeZero())
		})

		It("rejects payloads above the configured maximum", func() {
			header := make([]byte, protocol.HeaderLength)
			protocol.EncodeHeader(header, 13, 9)

			str := &chunkStream{in: header, chunk: 8}
			drv := protocol.NewDriver(str, 32)

			drv.BeginReadHeader()
			Expect(drv.WaitRead()).To(Succeed())

			Expect(drv.BeginReadPayload(100)).To(MatchError(protocol.ErrFrameTooLarge))
		})

		It("panics on ContinueRead with no read in progress", func() {
			drv := protocol.NewDriver(stuckStream{}, 0)

			Expect(func() { _, _ = drv.ContinueRead() }).To(Panic())
		})

		It("panics on Payload before a payload completes", func() {
			drv := protocol.NewDriver(stuckStream{}, 0)
			drv.BeginReadHeader()

			Expect(func() { _ = drv.Payload() }).To(Panic())
		})

		It("panics on BeginReadPayload before the header is read", func() {
			drv := protocol.NewDriver(stuckStream{}, 0)

			Expect(func() { _ = drv.BeginReadPayload(4) }).To(Panic())
		})
	})
})
