package protocol

import (
	"errors"
	"fmt"
)

var ErrSendInFlight = errors.New("a send operation is already in flight on this engine")

// Engine drives one connection's worth of protocol traffic. It is fixed to
// one Side for its whole life and owns the buffers behind its operations.
//
// An Engine performs no locking; drive a single instance from one goroutine
// at a time. Separate instances are fully independent.
type Engine struct {
	side Side
	drv  *Driver

	snd *SendOp
	rcv *RecvOp
}

// NewEngine returns an engine over str that receives side's messages.
// maxFrame bounds payloads in both directions; zero means MaxPayloadSize.
func NewEngine(str Stream, side Side, maxFrame uint32) *Engine {
	return &Engine{
		side: side,
		drv:  NewDriver(str, maxFrame),
	}
}

// NewClient returns the engine for the client end of a connection: it
// receives server messages and sends client messages.
func NewClient(str Stream) *Engine {
	return NewEngine(str, Server, 0)
}

// NewServer returns the engine for the server end of a connection.
func NewServer(str Stream) *Engine {
	return NewEngine(str, Client, 0)
}

// Side reports which partition's messages this engine receives.
func (e *Engine) Side() Side {
	return e.side
}

// Send starts an asynchronous operation that sends msg framed as t. The
// frame is serialized and staged immediately; drive the returned operation
// with Poll or Wait.
//
// Only one send may be in flight per engine. A completed previous send is
// recycled; an incomplete one makes Send fail with ErrSendInFlight.
func (e *Engine) Send(t MsgType, msg Marshaler) (*SendOp, error) {
	if e.snd != nil && !e.snd.Completed() {
		return nil, ErrSendInFlight
	}

	// Sending uses the opposite partition from receiving.
	if _, err := newMessage(e.side.Other(), t); err != nil {
		return nil, err
	}

	payload, err := msg.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize message type %d: %w", t, err)
	}

	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("message of %d bytes: %w", len(payload), ErrFrameTooLarge)
	}

	frame := make([]byte, HeaderLength+len(payload))
	EncodeHeader(frame, t, uint32(len(payload)))
	copy(frame[HeaderLength:], payload)

	if err := e.drv.BeginWrite(frame); err != nil {
		return nil, err
	}

	e.snd = &SendOp{eng: e}
	return e.snd, nil
}

// Receive starts the next stage of the asynchronous operation that
// processes incoming messages, bound to h and sink (nil sink discards
// errors and notices).
//
// If the previous receive cycle is done a fresh one begins; if one is still
// mid-flight it is resumed with the new handler instead - partial I/O
// progress, including an already-buffered header, is never lost. This is
// how a caller swaps processors between the messages of one exchange.
func (e *Engine) Receive(h Handler, sink ErrorSink) *RecvOp {
	if e.rcv != nil && e.rcv.Done() {
		e.rcv = nil
	}

	if e.rcv == nil {
		e.rcv = &RecvOp{eng: e, stage: StageHeader}
	}

	e.rcv.resume(h, sink)
	return e.rcv
}
