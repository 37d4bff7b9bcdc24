package respond

import "github.com/valyala/bytebufferpool"

// Buffered is the in-memory response producer variant: a pre-rendered
// byte vector (status line + headers + body) plus a read cursor. This is
// the right shape for everything except a large file body: generated
// HTML, JSON, redirects, error pages, directory listings, CGI output.
type Buffered struct {
	buf    *bytebufferpool.ByteBuffer
	cursor int
}

// NewBuffered returns an empty Buffered producer backed by a pooled
// buffer. Callers build the response by writing directly to ByteBuffer()
// (via the helpers in header.go) before the first call to Peek.
func NewBuffered() *Buffered {
	return &Buffered{buf: bytebufferpool.Get()}
}

// ByteBuffer exposes the underlying buffer so callers can render a
// status line, headers, and body into it before serving begins.
func (b *Buffered) ByteBuffer() *bytebufferpool.ByteBuffer {
	return b.buf
}

// Write appends raw bytes (e.g. a body) directly to the buffer.
func (b *Buffered) Write(p []byte) {
	b.buf.Write(p)
}

func (b *Buffered) Peek() []byte {
	return b.buf.B[b.cursor:]
}

func (b *Buffered) Advance(n int) {
	b.cursor += n
}

func (b *Buffered) Refill() error {
	return nil
}

func (b *Buffered) Finished() bool {
	return b.cursor >= len(b.buf.B)
}

func (b *Buffered) Close() error {
	bytebufferpool.Put(b.buf)
	b.buf = nil
	return nil
}
