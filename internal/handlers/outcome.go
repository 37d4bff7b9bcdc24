// Package handlers implements the static GET/POST/DELETE method
// handlers (§4.4): directory listings, default-file and plain file
// serving, raw and multipart uploads, and deletion.
package handlers

// Outcome is what a handler produces for the dispatcher to turn into a
// response. At most one of Body or FilePath is meaningful for a 2xx
// result; FilePath selects the file-streamed producer, Body the
// buffered one. A Status of 400 or above with neither set asks the caller
// to substitute the server's configured error page for Status (or a
// minimal default).
type Outcome struct {
	Status      int
	ContentType string
	Body        []byte
	FilePath    string
	Headers     [][2]string
}
