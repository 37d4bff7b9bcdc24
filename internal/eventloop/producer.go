package eventloop

import (
	"os"
	"strconv"

	"github.com/valyala/bytebufferpool"

	"github.com/webserv-project/webserv/internal/respond"
)

// buildProducer renders resp's status line and headers and returns the
// respond.Producer the write phase should drive: FileStreamed when resp
// names a file on disk, Buffered otherwise.
func buildProducer(resp Response) (respond.Producer, error) {
	if resp.FilePath != "" {
		info, err := os.Stat(resp.FilePath)
		if err != nil {
			return buildErrorProducer(404)
		}
		f, err := os.Open(resp.FilePath)
		if err != nil {
			return buildErrorProducer(500)
		}
		headers := append([][2]string{{"Content-Length", strconv.FormatInt(info.Size(), 10)}}, resp.Headers...)
		hb := bytebufferpool.Get()
		respond.WriteHeaderBlock(hb, resp.Status, headers)
		header := make([]byte, len(hb.B))
		copy(header, hb.B)
		bytebufferpool.Put(hb)
		return respond.NewFileStreamed(header, f), nil
	}

	headers := append([][2]string{{"Content-Length", strconv.Itoa(len(resp.Body))}}, resp.Headers...)
	b := respond.NewBuffered()
	respond.WriteHeaderBlock(b.ByteBuffer(), resp.Status, headers)
	b.Write(resp.Body)
	return b, nil
}

// buildErrorProducer is the last-resort fallback when even serving the
// resolved error response fails (the file vanished between Stat and the
// handler deciding to serve it, or permissions changed underneath it).
func buildErrorProducer(status int) (respond.Producer, error) {
	body := []byte(respond.StatusText(status) + "\n")
	headers := [][2]string{
		{"Content-Type", "text/plain"},
		{"Content-Length", strconv.Itoa(len(body))},
	}
	b := respond.NewBuffered()
	respond.WriteHeaderBlock(b.ByteBuffer(), status, headers)
	b.Write(body)
	return b, nil
}
