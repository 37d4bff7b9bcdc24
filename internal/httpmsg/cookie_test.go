package httpmsg

import "testing"

func TestCookieRoundTrip(t *testing.T) {
	c := Cookie{Name: "session_id", Value: "abc123", Path: "/", HttpOnly: true, MaxAge: 3600}
	header := c.String()

	// Parsing the Set-Cookie value as if it were a Cookie request header
	// should recover the same name/value pair; the attributes come back
	// as extra pairs and are ignored here.
	parsed := ParseCookieHeader(header)
	if parsed["session_id"] != c.Value {
		t.Errorf("round-trip value = %q, want %q", parsed["session_id"], c.Value)
	}
	if header == "" {
		t.Fatal("String() produced empty header")
	}
}

func TestParseCookieHeaderMultiple(t *testing.T) {
	got := ParseCookieHeader("session_id=abc123; theme=dark; malformed")
	if got["session_id"] != "abc123" || got["theme"] != "dark" {
		t.Errorf("got %#v", got)
	}
	if _, ok := got["malformed"]; ok {
		t.Errorf("pair without '=' should be skipped")
	}
}

func TestHeaderCaseInsensitive(t *testing.T) {
	var h Header
	h.Add("Content-Type", "text/html")
	v, ok := h.Get("content-type")
	if !ok || v != "text/html" {
		t.Errorf("Get(content-type) = %q, %v", v, ok)
	}
	h.Set("CONTENT-TYPE", "text/plain")
	if got := h.GetDefault("Content-Type"); got != "text/plain" {
		t.Errorf("after Set, got %q, want text/plain", got)
	}
	if h.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (case-insensitive collapse)", h.Len())
	}
}
