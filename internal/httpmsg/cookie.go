package httpmsg

import "strings"

// Cookie is the minimal response cookie this server ever emits: a session
// identifier with a path, an HttpOnly flag, and a max-age in seconds.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	HttpOnly bool
	MaxAge   int // seconds; 0 means the header omits Max-Age
}

// String renders the Set-Cookie header value for c.
func (c Cookie) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte('=')
	b.WriteString(c.Value)
	if c.Path != "" {
		b.WriteString("; Path=")
		b.WriteString(c.Path)
	}
	if c.MaxAge > 0 {
		b.WriteString("; Max-Age=")
		b.WriteString(itoa(c.MaxAge))
	}
	if c.HttpOnly {
		b.WriteString("; HttpOnly")
	}
	return b.String()
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

// ParseCookieHeader parses a request's Cookie header ("a=1; b=2") into a
// name→value map. Malformed pairs (no '=') are skipped rather than
// rejected, since the Cookie header is client-supplied and advisory.
func ParseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(part[:eq])
		value := strings.TrimSpace(part[eq+1:])
		if name == "" {
			continue
		}
		out[name] = value
	}
	return out
}
