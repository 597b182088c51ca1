package protocol

import (
	"fmt"
	"runtime"
)

// Stage is the sub-state of one receive cycle.
type Stage int

const (
	StageHeader Stage = iota
	StagePayload
	StageDone
)

// RecvOp is the staged asynchronous operation that reads and dispatches
// incoming messages.
//
// One cycle reads one or more messages: notices are delivered to the sink
// and consumed silently, an error message ends the cycle, and the bound
// Handler classifies everything else and decides when the cycle stops.
//
// The operation carries a two-level completion signal. Completed says the
// current stage finished - either the cycle stopped, or classification said
// Stop and the operation waits to be resumed with another handler for the
// buffered message. Done says the whole cycle stopped and the next Receive
// starts a fresh one.
type RecvOp struct {
	eng *Engine

	stage   Stage
	handler Handler
	sink    ErrorSink

	msgType   MsgType
	completed bool
	done      bool
	err       error
}

// resume rebinds the handler (and sink, when given) for the next stage
// while preserving any partial I/O progress.
func (r *RecvOp) resume(h Handler, sink ErrorSink) {
	r.handler = h

	if sink != nil {
		r.sink = sink
	} else if r.sink == nil {
		r.sink = nopSink{}
	}

	r.completed = false

	// Re-arm the header read only at a header boundary. A cycle suspended
	// mid-payload keeps its partial progress; the driver picks the payload
	// back up on the next poll.
	if r.stage == StageHeader {
		r.eng.drv.BeginReadHeader()
	}
}

// Poll advances the operation as far as the stream allows, possibly through
// several whole frames, and returns true once the current stage finished.
// It never blocks: when the stream would, it returns false and the caller
// polls again later.
func (r *RecvOp) Poll() bool {
	if r.done {
		return true
	}

	for {
		switch r.stage {
		case StageHeader:
			r.eng.drv.BeginReadHeader()

			ok, err := r.eng.drv.ContinueRead()
			if err != nil {
				r.fail(err)
				return true
			}

			if !ok {
				return false
			}

			t, size := r.eng.drv.Header()
			r.msgType = t

			switch r.classify(t) {
			case Stop:
				// Leave the header buffered for the next handler.
				r.completed = true
				return true

			case Unexpected:
				r.fail(fmt.Errorf("message type %d on the %s partition: %w",
					t, r.eng.side, ErrUnexpectedMessage))
				return true
			}

			if err := r.eng.drv.BeginReadPayload(size); err != nil {
				r.fail(err)
				return true
			}

			r.stage = StagePayload

		case StagePayload:
			ok, err := r.eng.drv.ContinueRead()
			if err != nil {
				r.fail(err)
				return true
			}

			if !ok {
				return false
			}

			if err := r.processMsg(r.msgType, r.eng.drv.Payload()); err != nil {
				// Deferred capture: the operation completes cleanly and the
				// error surfaces on the next status check.
				r.fail(err)
				return true
			}

			if !r.continueAfter(r.msgType) {
				r.stage = StageDone
				r.done = true
				r.completed = true
				return true
			}

			r.stage = StageHeader

		case StageDone:
			return true
		}
	}
}

// Wait blocks until the current stage finishes and returns the operation's
// error, if any.
func (r *RecvOp) Wait() error {
	for !r.Poll() {
		runtime.Gosched()
	}

	return r.err
}

// Completed reports whether the current stage finished. A completed but
// not done operation waits to be resumed via Engine.Receive.
func (r *RecvOp) Completed() bool {
	return r.completed
}

// Done reports whether the whole receive cycle stopped.
func (r *RecvOp) Done() bool {
	return r.done
}

// Err returns the error captured by the operation, if any.
func (r *RecvOp) Err() error {
	return r.err
}

// MsgType reports the type code of the last message header this operation
// read.
func (r *RecvOp) MsgType() MsgType {
	return r.msgType
}

// Cancel is not supported; close the underlying stream instead.
func (r *RecvOp) Cancel() {
	panic("xwire: cancellation is not implemented")
}

func (r *RecvOp) fail(err error) {
	r.err = err
	r.stage = StageDone
	r.done = true
	r.completed = true
}

// classify applies the built-in policy - Error and Notice are always
// expected on the server partition - and delegates the rest to the handler.
func (r *RecvOp) classify(t MsgType) Classification {
	if r.eng.side == Server && (t == TypeError || t == TypeNotice) {
		return Expected
	}

	return r.handler.Accept(t)
}

// continueAfter applies the built-in continuation policy: keep reading
// after a notice, always stop after an error, and let the handler decide
// for everything else.
func (r *RecvOp) continueAfter(t MsgType) bool {
	if r.eng.side == Server {
		switch t {
		case TypeNotice:
			return true
		case TypeError:
			return false
		}
	}

	return r.handler.Next(t)
}

// processMsg decodes one message and routes it: errors and notices to the
// sink, everything else to the handler.
func (r *RecvOp) processMsg(t MsgType, payload []byte) error {
	msg, err := newMessage(r.eng.side, t)
	if err != nil {
		return err
	}

	if err := msg.Unmarshal(payload); err != nil {
		return fmt.Errorf("failed to decode message type %d: %w", t, err)
	}

	if r.eng.side == Server {
		switch m := msg.(type) {
		case *ServerError:
			r.sink.Error(m.Code, m.Severity, m.State, m.Msg)
			return nil

		case *Notice:
			r.sink.Notice(m.NoticeType, m.Scope, m.Payload)
			return nil
		}
	}

	return r.handler.HandleMsg(msg)
}
