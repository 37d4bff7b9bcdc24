package respond

import (
	"errors"
	"io"
	"os"
)

// stagingSize is the fixed per-connection staging buffer for file
// streaming. Keeping it fixed-size bounds memory use regardless of the
// file being served.
const stagingSize = 8 * 1024

// FileStreamed is the file-backed response producer variant: a
// pre-rendered header block, an open file handle, and a fixed-size
// staging buffer refilled from disk as the write side drains it.
type FileStreamed struct {
	header       []byte
	headerCursor int
	headerSent   bool

	file         *os.File
	staging      [stagingSize]byte
	stageLen     int
	stageCursor  int
	eof          bool
}

// NewFileStreamed returns a producer that emits header followed by the
// full contents of f.
func NewFileStreamed(header []byte, f *os.File) *FileStreamed {
	return &FileStreamed{header: header, file: f}
}

func (f *FileStreamed) Peek() []byte {
	if !f.headerSent {
		return f.header[f.headerCursor:]
	}
	return f.staging[f.stageCursor:f.stageLen]
}

func (f *FileStreamed) Advance(n int) {
	if !f.headerSent {
		f.headerCursor += n
		if f.headerCursor >= len(f.header) {
			f.headerSent = true
		}
		return
	}
	f.stageCursor += n
}

// Refill pulls up to one staging buffer's worth of bytes from the file.
// It is a no-op until the header has fully drained and the current
// staging window is empty, and a no-op again once EOF has been seen.
func (f *FileStreamed) Refill() error {
	if !f.headerSent || f.eof {
		return nil
	}
	if f.stageCursor < f.stageLen {
		return nil
	}
	n, err := f.file.Read(f.staging[:])
	f.stageLen = n
	f.stageCursor = 0
	if n == 0 {
		f.eof = true
	}
	if err != nil {
		f.eof = true
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (f *FileStreamed) Finished() bool {
	return f.headerSent && f.eof && f.stageCursor >= f.stageLen
}

func (f *FileStreamed) Close() error {
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}
