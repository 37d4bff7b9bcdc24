package httpparse

import (
	"errors"
	"strings"
	"testing"

	"github.com/webserv-project/webserv/internal/httpmsg"
)

func mustParse(t *testing.T, raw string) *Parser {
	t.Helper()
	p := New()
	if err := p.Append([]byte(raw)); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !p.Done() {
		t.Fatalf("parser not done after full request; state=%d", p.state)
	}
	return p
}

func TestParseSimpleGET(t *testing.T) {
	p := mustParse(t, "GET /index.html?x=1 HTTP/1.1\r\nHost: a.example\r\n\r\n")
	req := p.Get()
	if req.Method != "GET" {
		t.Errorf("Method = %q, want GET", req.Method)
	}
	if req.Path != "/index.html" {
		t.Errorf("Path = %q, want /index.html", req.Path)
	}
	if req.Host != "a.example" {
		t.Errorf("Host = %q, want a.example", req.Host)
	}
	if req.Query.Get("x") != "1" {
		t.Errorf("Query[x] = %q, want 1", req.Query.Get("x"))
	}
	if !req.Close {
		t.Errorf("Close = false for HTTP/1.1 with no Connection header, want true")
	}
}

func TestParseHostPortStripped(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.1\r\nHost: a.example:8080\r\n\r\n")
	if got := p.Get().Host; got != "a.example" {
		t.Errorf("Host = %q, want a.example (port stripped)", got)
	}
}

func TestIncrementalParseMatchesWhole(t *testing.T) {
	raw := "POST /upload HTTP/1.1\r\nHost: a.example\r\nContent-Length: 5\r\n\r\nhello"

	whole := New()
	if err := whole.Append([]byte(raw)); err != nil {
		t.Fatalf("whole Append: %v", err)
	}
	if !whole.Done() {
		t.Fatalf("whole parser not done")
	}

	// Feed one byte at a time; no chunk boundary should change the result.
	partial := New()
	for i := 0; i < len(raw); i++ {
		if err := partial.Append([]byte{raw[i]}); err != nil {
			t.Fatalf("partial Append at byte %d: %v", i, err)
		}
	}
	if !partial.Done() {
		t.Fatalf("partial parser not done")
	}

	wantReq, gotReq := whole.Get(), partial.Get()
	if wantReq.Method != gotReq.Method || wantReq.Path != gotReq.Path {
		t.Fatalf("mismatch: whole=%+v partial=%+v", wantReq, gotReq)
	}
	if string(wantReq.Body) != string(gotReq.Body) {
		t.Fatalf("body mismatch: whole=%q partial=%q", wantReq.Body, gotReq.Body)
	}
	if string(gotReq.Body) != "hello" {
		t.Fatalf("body = %q, want hello", gotReq.Body)
	}
}

func TestHeaderLineTooLargeIsEntityTooLarge(t *testing.T) {
	p := New()
	longValue := strings.Repeat("a", maxLineSize+1)
	raw := "GET / HTTP/1.1\r\nHost: a.example\r\nX-Big: " + longValue + "\r\n\r\n"
	err := p.Append([]byte(raw))
	if !errors.Is(err, ErrEntityTooLarge) {
		t.Fatalf("err = %v, want ErrEntityTooLarge", err)
	}
}

func TestTooManyHeadersIsEntityTooLarge(t *testing.T) {
	p := New()
	var b strings.Builder
	b.WriteString("GET / HTTP/1.1\r\nHost: a.example\r\n")
	for i := 0; i < maxHeaders+1; i++ {
		b.WriteString("X-N: v\r\n")
	}
	b.WriteString("\r\n")
	err := p.Append([]byte(b.String()))
	if !errors.Is(err, ErrEntityTooLarge) {
		t.Fatalf("err = %v, want ErrEntityTooLarge", err)
	}
}

func TestContentLengthAndChunkedRejected(t *testing.T) {
	p := New()
	raw := "POST / HTTP/1.1\r\nHost: a.example\r\nContent-Length: 5\r\nTransfer-Encoding: chunked\r\n\r\nhello"
	err := p.Append([]byte(raw))
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
}

func TestChunkedBody(t *testing.T) {
	raw := "POST / HTTP/1.1\r\nHost: a.example\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	p := mustParse(t, raw)
	if got := string(p.Get().Body); got != "Wikipedia" {
		t.Errorf("Body = %q, want Wikipedia", got)
	}
}

func TestChunkSizeRejectsHexPrefix(t *testing.T) {
	p := New()
	raw := "POST / HTTP/1.1\r\nHost: a.example\r\nTransfer-Encoding: chunked\r\n\r\n0x4\r\nWiki\r\n0\r\n\r\n"
	err := p.Append([]byte(raw))
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest for 0x-prefixed chunk size", err)
	}
}

func TestBodyExceedsConfiguredCapIs413(t *testing.T) {
	p := New()
	p.OnHeadersParsed = func(_ *httpmsg.Request) int64 { return 4 }
	raw := "POST / HTTP/1.1\r\nHost: a.example\r\nContent-Length: 10\r\n\r\n0123456789"
	err := p.Append([]byte(raw))
	if !errors.Is(err, ErrEntityTooLarge) {
		t.Fatalf("err = %v, want ErrEntityTooLarge", err)
	}
}

func TestConnectionCloseHonored(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.1\r\nHost: a.example\r\nConnection: close\r\n\r\n")
	if !p.Get().Close {
		t.Errorf("Close = false, want true")
	}
}

func TestHTTP10DefaultsToClose(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.0\r\nHost: a.example\r\n\r\n")
	if !p.Get().Close {
		t.Errorf("Close = false for HTTP/1.0 with no Connection header")
	}
}

func TestHTTP11WithNoConnectionHeaderDefaultsToClose(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.1\r\nHost: a.example\r\n\r\n")
	if !p.Get().Close {
		t.Errorf("Close = false for HTTP/1.1 with no Connection header, want true")
	}
}

func TestConnectionKeepAliveClearsClose(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.1\r\nHost: a.example\r\nConnection: keep-alive\r\n\r\n")
	if p.Get().Close {
		t.Errorf("Close = true, want false with explicit Connection: keep-alive")
	}
}

func TestCookieSessionIDExtracted(t *testing.T) {
	p := mustParse(t, "GET / HTTP/1.1\r\nHost: a.example\r\nCookie: session_id=abc123; theme=dark\r\n\r\n")
	if got := p.Get().SessionID; got != "abc123" {
		t.Errorf("SessionID = %q, want abc123", got)
	}
}
