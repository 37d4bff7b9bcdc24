package respond

import (
	"os"
	"path/filepath"
	"testing"
)

func drain(t *testing.T, p Producer) []byte {
	t.Helper()
	var out []byte
	for !p.Finished() {
		if err := p.Refill(); err != nil {
			t.Fatalf("Refill: %v", err)
		}
		chunk := p.Peek()
		if len(chunk) == 0 {
			if p.Finished() {
				break
			}
			t.Fatalf("empty peek before Finished")
		}
		out = append(out, chunk...)
		p.Advance(len(chunk))
	}
	return out
}

func TestBufferedProducer(t *testing.T) {
	b := NewBuffered()
	WriteHeaderBlock(b.ByteBuffer(), 200, [][2]string{{"Content-Length", "5"}})
	b.Write([]byte("hello"))

	got := drain(t, b)
	want := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestFileStreamedProducerByteConservation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.bin")
	content := make([]byte, stagingSize*3+17)
	for i := range content {
		content[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	header := []byte("HTTP/1.1 200 OK\r\nContent-Length: " + itoa(len(content)) + "\r\n\r\n")
	fs := NewFileStreamed(header, f)

	got := drain(t, fs)
	wantPrefix := string(header)
	if string(got[:len(wantPrefix)]) != wantPrefix {
		t.Fatalf("header mismatch")
	}
	body := got[len(wantPrefix):]
	if len(body) != len(content) {
		t.Fatalf("body length = %d, want %d", len(body), len(content))
	}
	for i := range content {
		if body[i] != content[i] {
			t.Fatalf("byte %d mismatch: got %d want %d", i, body[i], content[i])
		}
	}
	if err := fs.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
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
