// Package buffer provides the bounded in-memory sink that collects a single
// RPC response before it is framed and published.
//
// The limit (the "high watermark") caps how large one response may grow.
// A write that would push the buffer past the limit is rejected as a whole —
// the buffer never holds a partial write, so the dispatcher can never frame
// a truncated response by accident.
package buffer

import (
	"bytes"
	"errors"
)

// DefaultHighWatermark is the response size ceiling applied when the server
// is constructed without an explicit one.
const DefaultHighWatermark int64 = 1024 * 1024 // 1 MiB

// ErrOverflow is returned by Write when accepting the slice would push the
// buffer past its limit. The buffer content is unchanged.
var ErrOverflow = errors.New("buffer: write exceeds high watermark")

// Buffer is an append-only byte sink with a hard size limit.
// One instance serves exactly one request; it is not goroutine-safe.
type Buffer struct {
	buf        bytes.Buffer
	limit      int64
	overflowed bool
}

// New creates a Buffer capped at limit bytes.
// A non-positive limit falls back to DefaultHighWatermark.
func New(limit int64) *Buffer {
	if limit <= 0 {
		limit = DefaultHighWatermark
	}
	return &Buffer{limit: limit}
}

// Write appends p to the buffer, or rejects it entirely with ErrOverflow.
// All-or-nothing: after a failed write Len() and Bytes() are unchanged.
// The overflow is latched so the dispatcher can detect it even when the
// processor swallowed the write error (see Overflowed).
func (b *Buffer) Write(p []byte) (int, error) {
	if int64(b.buf.Len())+int64(len(p)) > b.limit {
		b.overflowed = true
		return 0, ErrOverflow
	}
	return b.buf.Write(p)
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	return b.buf.Len()
}

// Bytes returns the accumulated response bytes.
func (b *Buffer) Bytes() []byte {
	return b.buf.Bytes()
}

// Overflowed reports whether any write was ever rejected.
// Once set it stays set for the life of the buffer.
func (b *Buffer) Overflowed() bool {
	return b.overflowed
}

// Limit returns the high watermark this buffer was created with.
func (b *Buffer) Limit() int64 {
	return b.limit
}
