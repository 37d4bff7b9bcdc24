package httpparse

import "errors"

// Parser errors. Either one is fatal to the connection: the caller must
// stop feeding bytes and, where possible, respond with the matching
// status before closing.
var (
	// ErrBadRequest covers every request-line, header, or chunk-framing
	// syntax violation, plus the Content-Length/Transfer-Encoding
	// smuggling guard.
	ErrBadRequest = errors.New("httpparse: malformed request")

	// ErrEntityTooLarge covers every configured byte cap: the header
	// line length, the header count, and the body size ceiling.
	ErrEntityTooLarge = errors.New("httpparse: request exceeds configured size limit")
)
