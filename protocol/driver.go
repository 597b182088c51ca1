package protocol

import (
	"errors"
	"fmt"
	"runtime"
)

type readStage int

const (
	readIdle readStage = iota
	readHeader
	readHeaderDone
	readPayload
	readPayloadDone
)

// Driver owns the two growable per-engine buffers and moves frame bytes
// between them and the Stream.
//
// Reading is staged: header first, then payload, because the payload length
// is not known until the header is complete. BeginReadHeader and
// BeginReadPayload are idempotent: re-invoking them while that part is
// already read (or being read) is a no-op, which lets the operation engine
// call them defensively at each stage without tracking extra state.
type Driver struct {
	str Stream

	maxRead  uint32
	maxWrite uint32

	wrBuf   []byte
	wrOff   int
	writing bool

	rdBuf   []byte
	rdOff   int
	rdWant  int
	rdStage readStage

	// Info extracted from the last completed header
	msgType MsgType
	msgSize uint32
}

// NewDriver returns a Driver over str. maxFrame bounds the payload size in
// both directions; zero means MaxPayloadSize.
func NewDriver(str Stream, maxFrame uint32) *Driver {
	if maxFrame == 0 {
		maxFrame = MaxPayloadSize
	}

	return &Driver{
		str:      str,
		maxRead:  maxFrame,
		maxWrite: maxFrame,
	}
}

// BeginWrite stages p (a fully framed message) for writing. The bytes are
// copied, so the caller may reuse p immediately.
func (d *Driver) BeginWrite(p []byte) error {
	if d.writing {
		panic("xwire: BeginWrite while a write is already in progress")
	}

	// Compare in uint64: maxWrite may sit close enough to the uint32
	// ceiling that adding the header length wraps.
	if uint64(len(p)) > uint64(d.maxWrite)+HeaderLength {
		return fmt.Errorf("frame of %d bytes: %w", len(p), ErrFrameTooLarge)
	}

	d.wrBuf = grow(d.wrBuf, len(p))
	copy(d.wrBuf, p)
	d.wrBuf = d.wrBuf[:len(p)]
	d.wrOff = 0
	d.writing = true

	return nil
}

// ContinueWrite pushes staged bytes into the stream. It returns true exactly
// once the whole frame has been written; false means the stream would block
// and the caller has to call again.
func (d *Driver) ContinueWrite() (bool, error) {
	if !d.writing {
		return true, nil
	}

	for d.wrOff < len(d.wrBuf) {
		n, err := d.str.Write(d.wrBuf[d.wrOff:])
		d.wrOff += n

		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return false, nil
			}

			d.writing = false
			return false, err
		}
	}

	d.writing = false
	return true, nil
}

// WaitWrite blocks until the staged frame is fully written.
//
// On a non-blocking stream this degrades to polling; callers that care
// should drive ContinueWrite themselves.
func (d *Driver) WaitWrite() error {
	for {
		done, err := d.ContinueWrite()
		if err != nil {
			return err
		}

		if done {
			return nil
		}

		runtime.Gosched()
	}
}

// BeginReadHeader starts reading a frame header. It is a no-op when a
// header is already read or being read.
func (d *Driver) BeginReadHeader() {
	switch d.rdStage {
	case readHeader, readHeaderDone:
		return

	case readPayload:
		panic("xwire: BeginReadHeader while a payload read is in progress")
	}

	d.rdBuf = grow(d.rdBuf, HeaderLength)
	d.rdOff = 0
	d.rdWant = HeaderLength
	d.rdStage = readHeader
}

// BeginReadPayload starts reading a payload of n bytes. It can only follow
// a completed header read and is a no-op when the payload is already read
// or being read.
func (d *Driver) BeginReadPayload(n uint32) error {
	switch d.rdStage {
	case readPayload, readPayloadDone:
		return nil

	case readHeaderDone:
		// The only stage a fresh payload read is valid from.

	default:
		panic("xwire: BeginReadPayload before the header is read")
	}

	if n > d.maxRead {
		return fmt.Errorf("payload of %d bytes: %w", n, ErrFrameTooLarge)
	}

	d.rdBuf = grow(d.rdBuf, int(n))
	d.rdOff = 0
	d.rdWant = int(n)
	d.rdStage = readPayload

	return nil
}

// ContinueRead pulls bytes from the stream until the current header or
// payload is complete. It returns true once the current part is fully read;
// false means the stream would block.
func (d *Driver) ContinueRead() (bool, error) {
	switch d.rdStage {
	case readHeaderDone, readPayloadDone:
		return true, nil

	case readIdle:
		panic("xwire: ContinueRead with no read in progress")
	}

	for d.rdOff < d.rdWant {
		n, err := d.str.Read(d.rdBuf[d.rdOff:d.rdWant])
		d.rdOff += n

		if err != nil {
			if errors.Is(err, ErrWouldBlock) {
				return false, nil
			}

			d.rdStage = readIdle
			return false, err
		}
	}

	if d.rdStage == readHeader {
		t, size, err := DecodeHeader(d.rdBuf[:HeaderLength], d.maxRead)
		if err != nil {
			d.rdStage = readIdle
			return false, err
		}

		d.msgType = t
		d.msgSize = size
		d.rdStage = readHeaderDone
		return true, nil
	}

	d.rdStage = readPayloadDone
	return true, nil
}

// WaitRead blocks until the current header or payload is fully read.
func (d *Driver) WaitRead() error {
	for {
		done, err := d.ContinueRead()
		if err != nil {
			return err
		}

		if done {
			return nil
		}

		runtime.Gosched()
	}
}

// Header reports the type code and payload length extracted from the last
// completed header read.
func (d *Driver) Header() (MsgType, uint32) {
	return d.msgType, d.msgSize
}

// Payload returns the bytes of the last completed payload read. The slice
// aliases the receive buffer and is only valid until the next read begins.
func (d *Driver) Payload() []byte {
	if d.rdStage != readPayloadDone {
		panic("xwire: Payload before the payload is read")
	}

	return d.rdBuf[:d.msgSize]
}

func grow(buf []byte, n int) []byte {
	if cap(buf) < n {
		return make([]byte, n)
	}

	return buf[:n]
}
