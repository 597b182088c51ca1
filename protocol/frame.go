package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderLength is the fixed size of a frame header on the wire:
	// a 4 byte little-endian payload length followed by a 1 byte type code.
	HeaderLength = 5

	// MaxPayloadSize bounds the payload of a single frame in both
	// directions. Frames above it are a protocol violation.
	MaxPayloadSize = 1 << 30 // 1GiB
)

var (
	ErrMalformedFrame = errors.New("frame header is malformed, fewer than 5 bytes are available")
	ErrFrameTooLarge  = errors.New("frame payload exceeds the maximum allowed size")
)

// MsgType identifies the message carried by a frame. The code space is
// partitioned by Side; see message.go for the closed set of codes.
type MsgType uint8

// EncodeHeader writes the frame header for a payload of payloadLen bytes
// into dst, which must be at least HeaderLength bytes long.
//
// The length field is converted to wire byte order unconditionally, so this
// is correct on big-endian hosts too.
func EncodeHeader(dst []byte, t MsgType, payloadLen uint32) {
	binary.LittleEndian.PutUint32(dst[:4], payloadLen)
	dst[4] = byte(t)
}

// DecodeHeader parses a frame header from src.
//
// It fails with ErrMalformedFrame when src holds fewer than HeaderLength
// bytes and with ErrFrameTooLarge when the encoded payload length exceeds
// max (or MaxPayloadSize when max is zero).
func DecodeHeader(src []byte, max uint32) (MsgType, uint32, error) {
	if len(src) < HeaderLength {
		return 0, 0, ErrMalformedFrame
	}

	if max == 0 {
		max = MaxPayloadSize
	}

	payloadLen := binary.LittleEndian.Uint32(src[:4])
	if payloadLen > max {
		return 0, 0, fmt.Errorf("frame of %d bytes: %w", payloadLen, ErrFrameTooLarge)
	}

	return MsgType(src[4]), payloadLen, nil
}
