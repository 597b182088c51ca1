package protocol

import (
	"errors"
	"io"
)

// ErrWouldBlock is returned by a non-blocking Stream when no progress can
// be made right now. The engine treats it as a suspension point, never as
// a failure: the operation stays pending and the next Poll tries again.
var ErrWouldBlock = errors.New("stream operation would block")

// Stream is the duplex byte channel the engine reads frames from and
// writes frames to.
//
// A Stream may be blocking (an ordinary net.Conn, which never returns
// ErrWouldBlock) or non-blocking (returns ErrWouldBlock, possibly after
// partial progress). Timeout and cancellation policy belongs to the Stream,
// not to the engine; closing the stream surfaces as an I/O error on the
// next Poll or Wait.
type Stream interface {
	io.Reader
	io.Writer
}
