package respond

import (
	"strconv"

	"github.com/valyala/bytebufferpool"
)

// WriteStatusLine writes "HTTP/1.1 <code> <reason>\r\n" to b.
func WriteStatusLine(b *bytebufferpool.ByteBuffer, code int) {
	b.WriteString("HTTP/1.1 ")
	b.WriteString(strconv.Itoa(code))
	b.WriteByte(' ')
	b.WriteString(StatusText(code))
	b.WriteString("\r\n")
}

// WriteHeaderLine writes "Name: value\r\n" to b.
func WriteHeaderLine(b *bytebufferpool.ByteBuffer, name, value string) {
	b.WriteString(name)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\r\n")
}

// WriteHeaderBlock renders a full status line plus headers plus the
// terminating blank line into b. headers is a slice of name/value pairs
// rather than a map so callers control emission order.
func WriteHeaderBlock(b *bytebufferpool.ByteBuffer, code int, headers [][2]string) {
	WriteStatusLine(b, code)
	for _, kv := range headers {
		WriteHeaderLine(b, kv[0], kv[1])
	}
	b.WriteString("\r\n")
}
