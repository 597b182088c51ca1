package protocol

import "errors"

var (
	ErrUnknownType       = errors.New("message type is not part of this side's partition")
	ErrUnexpectedMessage = errors.New("message type was not expected by the current operation")
)

// Classification is a receive operation's verdict on a just-read message
// header.
type Classification int

const (
	// Expected - read the payload and process the message.
	Expected Classification = iota

	// Unexpected - a protocol fault; the operation fails.
	Unexpected

	// Stop - stop here without consuming the message. The header stays
	// buffered, so resuming the receive (usually with a different handler)
	// picks the same message up again.
	Stop
)

// Handler is the pluggable half of message dispatch, bound per receive
// cycle. The engine consults it only for messages that are not handled
// built-in (Error and Notice on the server partition):
//
// - `Accept` - classifies a message type after its header is read.
// - `HandleMsg` - processes one decoded message. An error is captured by
//   the operation and reported on the next status check.
// - `Next` - after a message is processed, says whether this receive cycle
//   should read another message. This is the per-exchange override of the
//   default stop-after-one-reply policy: return false for single-reply
//   exchanges, true while more protocol messages of the exchange are due.
type Handler interface {
	Accept(t MsgType) Classification
	HandleMsg(m Message) error
	Next(t MsgType) bool
}

// ErrorSink receives server-reported errors and notices. Both are data at
// this layer, not local faults: an error message ends the receive cycle,
// notices never do.
type ErrorSink interface {
	Error(code uint32, severity Severity, state SQLState, msg string)
	Notice(noticeType uint32, scope NoticeScope, payload []byte)
}

// nopSink stands in when the caller does not care about errors and notices.
type nopSink struct{}

func (nopSink) Error(uint32, Severity, SQLState, string) {}
func (nopSink) Notice(uint32, NoticeScope, []byte)       {}
