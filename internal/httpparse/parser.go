// Package httpparse implements the incremental HTTP/1.1 request parser:
// bytes arrive in arbitrary-sized chunks via Append, and the parser
// advances through Init → Headers → Body → Finish as far as the buffered
// bytes allow, never blocking and never assuming a chunk boundary lines
// up with any protocol boundary.
package httpparse

import (
	"bytes"
	"net/url"
	"strconv"
	"strings"

	"github.com/webserv-project/webserv/internal/httpmsg"
)

const (
	// maxLineSize bounds any single CRLF-terminated line the parser
	// reads on its own (request line, a header line, a chunk-size
	// line) at 16 KiB.
	maxLineSize = 16 * 1024

	// maxHeaders bounds the number of header fields a single request
	// may carry.
	maxHeaders = 100

	// maxChunkSize bounds a single chunk's declared size, independent
	// of the aggregate body cap, to keep a single malformed chunk
	// header from requesting an enormous allocation.
	maxChunkSize = 16 << 20

	// defaultMaxBodySize is used only when no OnHeadersParsed hook is
	// installed (e.g. in unit tests exercising the parser alone). In
	// the running server this is always overridden per request from
	// the matched route's max_body_size when set, else the matched
	// server's client_max_body_size.
	defaultMaxBodySize = 10 << 20
)

type parseState int

const (
	stateRequestLine parseState = iota
	stateHeaders
	stateBodyFixed
	stateChunkSize
	stateChunkData
	stateChunkCRLF
	stateTrailerCRLF
	stateFinished
)

// Parser is the per-request incremental state machine. It is single-use:
// a fresh Parser is constructed for every request on a keep-alive
// connection.
type Parser struct {
	buf   []byte
	state parseState
	req   *httpmsg.Request
	err   error

	headerCount                int
	hasContentLength           bool
	hasTransferEncodingChunked bool
	hasHost                    bool
	contentLength              int64
	bodyWritten                int64
	bodyCap                    int64
	chunkRemaining             int64

	// OnHeadersParsed, if set, is invoked exactly once, after the
	// blank line terminating the header block is seen and before any
	// body bytes are absorbed. It receives the in-progress request
	// (Method, Path, Query, Header, Host are already populated) and
	// returns the body size ceiling to enforce for this request; a
	// return of 0 means "use the default". This is how the event loop
	// threads a per-virtual-host client_max_body_size into a parser
	// that otherwise has no notion of server configuration.
	OnHeadersParsed func(req *httpmsg.Request) int64
}

// New returns a parser in the Init state.
func New() *Parser {
	return &Parser{
		req:           &httpmsg.Request{Query: url.Values{}},
		contentLength: -1,
		bodyCap:       defaultMaxBodySize,
	}
}

// Append feeds newly read bytes into the parser. It may be called any
// number of times. A non-nil error is sticky: once Append fails, every
// subsequent call returns the same error and the connection must be
// dropped.
func (p *Parser) Append(data []byte) error {
	if p.err != nil {
		return p.err
	}
	if p.state == stateFinished {
		return nil
	}
	if len(data) > 0 {
		p.buf = append(p.buf, data...)
	}
	for {
		progressed, err := p.step()
		if err != nil {
			p.err = err
			return err
		}
		if !progressed || p.state == stateFinished {
			return nil
		}
	}
}

// Done reports whether a complete request is available.
func (p *Parser) Done() bool {
	return p.state == stateFinished
}

// Get returns the parsed request. Valid only once Done reports true.
func (p *Parser) Get() *httpmsg.Request {
	return p.req
}

// Err returns the sticky parse error, if any.
func (p *Parser) Err() error {
	return p.err
}

// step attempts one unit of progress (consuming one line or one slab of
// body bytes) and reports whether it made any.
func (p *Parser) step() (bool, error) {
	switch p.state {
	case stateRequestLine:
		line, ok, err := p.takeLine()
		if err != nil || !ok {
			return false, err
		}
		if err := p.parseRequestLine(line); err != nil {
			return false, err
		}
		p.state = stateHeaders
		return true, nil

	case stateHeaders:
		line, ok, err := p.takeLine()
		if err != nil || !ok {
			return false, err
		}
		if len(line) == 0 {
			if err := p.finishHeaders(); err != nil {
				return false, err
			}
			return true, nil
		}
		if err := p.parseHeaderLine(line); err != nil {
			return false, err
		}
		p.headerCount++
		if p.headerCount > maxHeaders {
			return false, ErrEntityTooLarge
		}
		return true, nil

	case stateBodyFixed:
		return p.absorbFixed()

	case stateChunkSize:
		line, ok, err := p.takeLine()
		if err != nil || !ok {
			return false, err
		}
		size, err := parseChunkSize(line)
		if err != nil {
			return false, err
		}
		if size == 0 {
			p.state = stateTrailerCRLF
			return true, nil
		}
		p.chunkRemaining = size
		p.state = stateChunkData
		return true, nil

	case stateChunkData:
		return p.absorbChunk()

	case stateChunkCRLF:
		return p.takeCRLF(stateChunkSize)

	case stateTrailerCRLF:
		return p.takeCRLF(stateFinished)

	case stateFinished:
		return false, nil
	}
	return false, nil
}

// takeLine extracts the next CRLF-terminated line from buf, excluding the
// CRLF. ok is false if no full line is buffered yet; the caller must wait
// for more Append calls.
func (p *Parser) takeLine() (line []byte, ok bool, err error) {
	idx := bytes.Index(p.buf, []byte("\r\n"))
	if idx < 0 {
		if len(p.buf) > maxLineSize {
			return nil, false, ErrEntityTooLarge
		}
		return nil, false, nil
	}
	if idx > maxLineSize {
		return nil, false, ErrEntityTooLarge
	}
	line = p.buf[:idx]
	p.buf = p.buf[idx+2:]
	return line, true, nil
}

func (p *Parser) takeCRLF(next parseState) (bool, error) {
	if len(p.buf) < 2 {
		return false, nil
	}
	if p.buf[0] != '\r' || p.buf[1] != '\n' {
		return false, ErrBadRequest
	}
	p.buf = p.buf[2:]
	p.state = next
	return true, nil
}

func (p *Parser) absorbFixed() (bool, error) {
	remaining := p.contentLength - p.bodyWritten
	if remaining == 0 {
		p.state = stateFinished
		return true, nil
	}
	if len(p.buf) == 0 {
		return false, nil
	}
	take := int64(len(p.buf))
	if take > remaining {
		take = remaining
	}
	p.req.Body = append(p.req.Body, p.buf[:take]...)
	p.buf = p.buf[take:]
	p.bodyWritten += take
	if p.bodyWritten > p.bodyCap {
		return false, ErrEntityTooLarge
	}
	if p.bodyWritten == p.contentLength {
		p.state = stateFinished
	}
	return true, nil
}

func (p *Parser) absorbChunk() (bool, error) {
	if p.chunkRemaining == 0 {
		p.state = stateChunkCRLF
		return true, nil
	}
	if len(p.buf) == 0 {
		return false, nil
	}
	take := int64(len(p.buf))
	if take > p.chunkRemaining {
		take = p.chunkRemaining
	}
	p.req.Body = append(p.req.Body, p.buf[:take]...)
	p.buf = p.buf[take:]
	p.chunkRemaining -= take
	p.bodyWritten += take
	if p.bodyWritten > p.bodyCap {
		return false, ErrEntityTooLarge
	}
	return true, nil
}

// parseRequestLine splits "METHOD target HTTP/x.y" into its three tokens.
func (p *Parser) parseRequestLine(line []byte) error {
	parts := bytes.Fields(line)
	if len(parts) != 3 {
		return ErrBadRequest
	}
	method := string(parts[0])
	if !httpmsg.ValidMethodToken(method) {
		return ErrBadRequest
	}
	target := string(parts[1])
	proto := string(parts[2])
	if proto != "HTTP/1.1" && proto != "HTTP/1.0" {
		return ErrBadRequest
	}

	path, rawQuery := target, ""
	if i := strings.IndexByte(target, '?'); i >= 0 {
		path, rawQuery = target[:i], target[i+1:]
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ErrBadRequest
	}

	p.req.Method = method
	p.req.Path = path
	p.req.RawQuery = rawQuery
	p.req.Query = query
	p.req.Proto = proto
	// Close defaults to true for every protocol version: only an explicit
	// "Connection: keep-alive" clears it. Absence of the header closes the
	// socket, same as any value other than keep-alive.
	p.req.Close = true
	return nil
}

// parseHeaderLine splits "Name: value" on the first colon. A colon
// preceded by whitespace is rejected (RFC 7230 §3.2.4, a request
// smuggling vector if tolerated).
func (p *Parser) parseHeaderLine(line []byte) error {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return ErrBadRequest
	}
	if line[colon-1] == ' ' || line[colon-1] == '\t' {
		return ErrBadRequest
	}
	name := string(bytes.TrimSpace(line[:colon]))
	value := string(bytes.TrimSpace(line[colon+1:]))
	if name == "" {
		return ErrBadRequest
	}
	lower := strings.ToLower(name)

	switch lower {
	case "content-length":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil || n < 0 {
			return ErrBadRequest
		}
		if p.hasContentLength && p.contentLength != n {
			return ErrBadRequest
		}
		p.hasContentLength = true
		p.contentLength = n
	case "transfer-encoding":
		encodings := strings.Split(value, ",")
		last := strings.TrimSpace(encodings[len(encodings)-1])
		if strings.EqualFold(last, "chunked") {
			p.hasTransferEncodingChunked = true
		}
	case "host":
		if p.hasHost {
			return ErrBadRequest
		}
		p.hasHost = true
		p.req.Host = httpmsg.HostOnly(value)
	case "connection":
		switch strings.ToLower(value) {
		case "close":
			p.req.Close = true
		case "keep-alive":
			p.req.Close = false
		}
	case "cookie":
		if cookies := httpmsg.ParseCookieHeader(value); cookies != nil {
			if sid, ok := cookies["session_id"]; ok {
				p.req.SessionID = sid
			}
		}
	}

	p.req.Header.Add(lower, value)
	return nil
}

func (p *Parser) finishHeaders() error {
	if p.hasContentLength && p.hasTransferEncodingChunked {
		// RFC 7230 §3.3.3 forbids both; reject rather than silently
		// preferring either.
		return ErrBadRequest
	}

	bodyCap := int64(defaultMaxBodySize)
	if p.OnHeadersParsed != nil {
		if n := p.OnHeadersParsed(p.req); n > 0 {
			bodyCap = n
		}
	}
	p.bodyCap = bodyCap

	switch {
	case p.hasTransferEncodingChunked:
		p.state = stateChunkSize
	case p.hasContentLength:
		if p.contentLength == 0 {
			p.state = stateFinished
		} else if p.contentLength > p.bodyCap {
			return ErrEntityTooLarge
		} else {
			p.state = stateBodyFixed
		}
	default:
		p.state = stateFinished
	}
	return nil
}

// parseChunkSize parses a chunk-size line, stripping any ";ext" chunk
// extensions. Only bare hex digits are accepted: a "0x"/"0X" prefix,
// though it appears in some non-conforming clients, is rejected as
// non-standard.
func parseChunkSize(line []byte) (int64, error) {
	if idx := bytes.IndexByte(line, ';'); idx >= 0 {
		line = line[:idx]
	}
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return 0, ErrBadRequest
	}
	if len(line) >= 2 && line[0] == '0' && (line[1] == 'x' || line[1] == 'X') {
		return 0, ErrBadRequest
	}
	var size int64
	for _, b := range line {
		var digit int64
		switch {
		case b >= '0' && b <= '9':
			digit = int64(b - '0')
		case b >= 'a' && b <= 'f':
			digit = int64(b-'a') + 10
		case b >= 'A' && b <= 'F':
			digit = int64(b-'A') + 10
		default:
			return 0, ErrBadRequest
		}
		size = size*16 + digit
		if size > maxChunkSize {
			return 0, ErrEntityTooLarge
		}
	}
	return size, nil
}
