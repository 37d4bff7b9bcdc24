package handlers

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/webserv-project/webserv/internal/httpmsg"
)

// singlePayloadMajorTypes are the major types §4.4 treats as a raw
// single-file upload rather than a multipart form.
var singlePayloadMajorTypes = map[string]bool{
	"application": true,
	"image":       true,
	"audio":       true,
	"video":       true,
	"font":        true,
	"text":        true,
}

// ServePost implements §4.4's POST handler. resolvedPath is the
// containment-checked filesystem target from route resolution;
// requestPath is the original request path, whose trailing slash
// decides whether resolvedPath is a directory to write into or the
// literal upload target.
func ServePost(req *httpmsg.Request, resolvedPath, requestPath string) Outcome {
	if len(req.Body) == 0 {
		return Outcome{Status: 400}
	}
	mediaType, raw := req.ContentType()
	if mediaType == "" {
		return Outcome{Status: 400}
	}

	if strings.EqualFold(mediaType, "multipart/form-data") {
		return servePostMultipart(req.Body, raw, resolvedPath)
	}

	major := mediaType
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		major = mediaType[:i]
	}
	if !singlePayloadMajorTypes[major] {
		return Outcome{Status: 415}
	}
	return servePostSingle(req.Body, mediaType, resolvedPath, requestPath)
}

func servePostSingle(body []byte, mediaType, resolvedPath, requestPath string) Outcome {
	filename := uploadFilename(requestPath, mediaType)

	target := resolvedPath
	if strings.HasSuffix(requestPath, "/") {
		target = filepath.Join(resolvedPath, filename)
	}

	if err := os.WriteFile(target, body, 0o644); err != nil {
		return Outcome{Status: 500}
	}
	return Outcome{
		Status:      200,
		ContentType: "text/plain",
		Body:        []byte("uploaded " + filepath.Base(target) + "\n"),
	}
}

// uploadFilename picks the filename for a single-payload upload: the
// last path segment if it already looks like a filename (contains a
// '.'), otherwise a generated "upload_<uuid>.<subtype>" name.
func uploadFilename(requestPath, mediaType string) string {
	seg := path.Base(requestPath)
	if strings.Contains(seg, ".") {
		return seg
	}
	subtype := mediaType
	if i := strings.IndexByte(mediaType, '/'); i >= 0 {
		subtype = mediaType[i+1:]
	}
	return "upload_" + uuid.NewString() + "." + subtype
}

func servePostMultipart(body []byte, rawContentType, resolvedPath string) Outcome {
	_, params, err := mime.ParseMediaType(rawContentType)
	if err != nil {
		return Outcome{Status: 400}
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return Outcome{Status: 400}
	}

	reader := multipart.NewReader(bytes.NewReader(body), boundary)
	var saved []string
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Outcome{Status: 400}
		}
		filename := part.FileName()
		if filename == "" {
			continue // ordinary form field, not a file part
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return Outcome{Status: 400}
		}
		target := filepath.Join(resolvedPath, filepath.Base(filename))
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return Outcome{Status: 500}
		}
		saved = append(saved, filepath.Base(target))
	}

	if len(saved) == 0 {
		return Outcome{Status: 400}
	}
	return Outcome{
		Status:      201,
		ContentType: "text/plain",
		Body:        []byte("created: " + strings.Join(saved, ", ") + "\n"),
	}
}
