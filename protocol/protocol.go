// Package protocol implements the wire envelope for bus-transported RPC.
//
// The two directions carry different envelopes. The bus already delimits
// messages, so neither needs stream re-splitting:
//
// Request (client → server subject):
//
//	0         4
//	┌─────────┬───────────────────────┐
//	│ header  │ RPC-encoded request   │
//	│ version │                       │
//	└─────────┴───────────────────────┘
//
// The 4-byte header carries the protocol version marker (V0 today). The
// server strips it without interpreting it; version negotiation belongs to
// the transport contract.
//
// Reply (server → reply inbox):
//
//	0         4
//	┌─────────┬───────────────────────┐
//	│ length  │ RPC-encoded response  │
//	│ uint32  │                       │
//	└─────────┴───────────────────────┘
//
// The big-endian length field counts itself: for an N-byte response the
// frame is big_endian_u32(N+4) followed by the response bytes.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// HeaderSize is the fixed number of leading bytes every inbound
	// request payload carries. Constant for the protocol's lifetime.
	HeaderSize = 4

	// Version is the protocol version marker written into the header.
	Version byte = 0x00

	// FrameLenSize is the width of the reply length prefix.
	FrameLenSize = 4
)

// ErrMalformed reports a payload too short to carry the protocol envelope.
var ErrMalformed = errors.New("protocol: malformed message")

// StripHeader removes the fixed-size version header from an inbound payload
// and returns the RPC-encoded request bytes.
func StripHeader(payload []byte) ([]byte, error) {
	if len(payload) < HeaderSize {
		return nil, fmt.Errorf("%w: payload %d bytes, header is %d", ErrMalformed, len(payload), HeaderSize)
	}
	return payload[HeaderSize:], nil
}

// AddHeader prepends the protocol V0 header to an outbound request body.
// Used by the client side; the server only ever strips.
func AddHeader(body []byte) []byte {
	buf := make([]byte, HeaderSize+len(body))
	buf[0] = Version
	copy(buf[HeaderSize:], body)
	return buf
}

// Frame length-prefixes a reply payload. The prefix is a 4-byte big-endian
// unsigned integer whose value is len(payload)+4 — it counts itself.
func Frame(payload []byte) []byte {
	buf := make([]byte, FrameLenSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:FrameLenSize], uint32(len(payload)+FrameLenSize))
	copy(buf[FrameLenSize:], payload)
	return buf
}

// Unframe validates and removes the length prefix from a reply frame,
// returning the response payload. The length field must equal the total
// byte count of the frame; anything else is a corrupt or foreign message.
func Unframe(frame []byte) ([]byte, error) {
	if len(frame) < FrameLenSize {
		return nil, fmt.Errorf("%w: frame %d bytes, length prefix is %d", ErrMalformed, len(frame), FrameLenSize)
	}
	want := binary.BigEndian.Uint32(frame[0:FrameLenSize])
	if want != uint32(len(frame)) {
		return nil, fmt.Errorf("%w: length field %d, frame is %d bytes", ErrMalformed, want, len(frame))
	}
	return frame[FrameLenSize:], nil
}
