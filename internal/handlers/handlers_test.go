package handlers

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/webserv-project/webserv/internal/config"
	"github.com/webserv-project/webserv/internal/httpmsg"
)

func TestServeGetDefaultFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hi</h1>"), 0o644); err != nil {
		t.Fatal(err)
	}
	route := config.Route{DefaultFile: "index.html"}
	out := ServeGet(route, dir, "/")
	if out.Status != 200 {
		t.Fatalf("Status = %d, want 200", out.Status)
	}
	if out.FilePath != filepath.Join(dir, "index.html") {
		t.Errorf("FilePath = %q", out.FilePath)
	}
}

func TestServeGetMissingFileIs404(t *testing.T) {
	dir := t.TempDir()
	out := ServeGet(config.Route{}, filepath.Join(dir, "nope.html"), "/nope.html")
	if out.Status != 404 {
		t.Errorf("Status = %d, want 404", out.Status)
	}
}

func TestDirectoryListingEscapesFilenames(t *testing.T) {
	dir := t.TempDir()
	evil := `<script>.txt`
	if err := os.WriteFile(filepath.Join(dir, evil), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := ServeGet(config.Route{ListDirectory: true}, dir, "/files")
	if out.Status != 200 {
		t.Fatalf("Status = %d, want 200", out.Status)
	}
	if strings.Contains(string(out.Body), "<script>.txt") {
		t.Fatalf("filename was not HTML-escaped: %s", out.Body)
	}
	if !strings.Contains(string(out.Body), "&lt;script&gt;") {
		t.Fatalf("expected escaped filename in listing: %s", out.Body)
	}
}

func TestServePostSinglePayload(t *testing.T) {
	dir := t.TempDir()
	req := &httpmsg.Request{Body: []byte("hello")}
	req.Header.Add("content-type", "text/plain")

	out := ServePost(req, filepath.Join(dir, "a.txt"), "/upload/a.txt")
	if out.Status != 200 {
		t.Fatalf("Status = %d, want 200", out.Status)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("file contents = %q, want hello", got)
	}
}

func TestServePostRejectsMissingContentType(t *testing.T) {
	req := &httpmsg.Request{Body: []byte("hello")}
	out := ServePost(req, t.TempDir(), "/upload/a.txt")
	if out.Status != 400 {
		t.Errorf("Status = %d, want 400", out.Status)
	}
}

func TestServePostMultipartRoundTrip(t *testing.T) {
	dir := t.TempDir()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile("f", "a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("hello")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := &httpmsg.Request{Body: body.Bytes()}
	req.Header.Add("content-type", w.FormDataContentType())

	out := ServePost(req, dir, "/upload/")
	if out.Status != 201 {
		t.Fatalf("Status = %d, want 201", out.Status)
	}
	got, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("file contents = %q, want hello", got)
	}
}

func TestServePostMultipartEmptyIs400(t *testing.T) {
	dir := t.TempDir()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("name", "value"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	req := &httpmsg.Request{Body: body.Bytes()}
	req.Header.Add("content-type", w.FormDataContentType())

	out := ServePost(req, dir, "/upload/")
	if out.Status != 400 {
		t.Errorf("Status = %d, want 400 for file-less multipart body", out.Status)
	}
}

func TestServeDelete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	if out := ServeDelete(path); out.Status != 204 {
		t.Fatalf("first delete Status = %d, want 204", out.Status)
	}
	if out := ServeDelete(path); out.Status != 404 {
		t.Fatalf("second delete Status = %d, want 404", out.Status)
	}
}
