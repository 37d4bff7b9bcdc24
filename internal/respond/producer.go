// Package respond implements the response producer abstraction (§4.2): a
// narrow polled-byte-source contract with exactly two implementations,
// Buffered and FileStreamed, so the event loop's write phase never has to
// distinguish a small in-memory response from a large file being
// streamed off disk.
package respond

// Producer is a polled, resumable byte source. The write phase of the
// event loop drives it with exactly this sequence, repeated until
// Finished: Refill, Peek, write what it can of the returned window,
// Advance by the number of bytes actually written.
type Producer interface {
	// Peek returns the next available window of unsent bytes. It does
	// not copy; the returned slice is only valid until the next call
	// to Advance or Refill.
	Peek() []byte

	// Advance consumes n bytes from the front of the current window.
	Advance(n int)

	// Refill pulls more bytes from the underlying source if the
	// current window is exhausted and the source is not yet done. It
	// is a no-op for producers with nothing left to pull.
	Refill() error

	// Finished reports whether every byte has been consumed.
	Finished() bool

	// Close releases any resources (pooled buffers, open files).
	Close() error
}
