package handlers

import (
	"html"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/webserv-project/webserv/internal/config"
)

// ServeGet implements §4.4's GET handler: a directory listing, a
// default-file fallback, or a direct file serve, in that priority order.
// requestPath is the original request path, used to build relative links
// for the listing.
func ServeGet(route config.Route, resolvedPath, requestPath string) Outcome {
	if route.ListDirectory {
		return renderDirectoryListing(resolvedPath, requestPath)
	}

	if route.DefaultFile != "" {
		p := filepath.Join(resolvedPath, route.DefaultFile)
		info, err := os.Stat(p)
		if err != nil || info.IsDir() {
			return Outcome{Status: 404}
		}
		return fileOutcome(p)
	}

	info, err := os.Stat(resolvedPath)
	if err != nil || info.IsDir() {
		return Outcome{Status: 404}
	}
	return fileOutcome(resolvedPath)
}

func fileOutcome(path string) Outcome {
	ct := mime.TypeByExtension(filepath.Ext(path))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return Outcome{Status: 200, FilePath: path, ContentType: ct}
}

// renderDirectoryListing builds an HTML index of dir, with filenames
// HTML-escaped (the source this implementation is grounded on does not
// escape here, a latent XSS the spec itself flags as worth fixing) and
// links relative to requestPath.
func renderDirectoryListing(dir, requestPath string) Outcome {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Outcome{Status: 404}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	base := strings.TrimSuffix(requestPath, "/")
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html><head><title>Index of ")
	b.WriteString(html.EscapeString(requestPath))
	b.WriteString("</title></head><body>\n<h1>Index of ")
	b.WriteString(html.EscapeString(requestPath))
	b.WriteString("</h1>\n<ul>\n")
	for _, e := range entries {
		name := e.Name()
		href := base + "/" + url.PathEscape(name)
		label := html.EscapeString(name)
		if e.IsDir() {
			href += "/"
			label += "/"
		}
		b.WriteString(`<li><a href="`)
		b.WriteString(html.EscapeString(href))
		b.WriteString(`">`)
		b.WriteString(label)
		b.WriteString("</a></li>\n")
	}
	b.WriteString("</ul>\n</body></html>\n")

	return Outcome{Status: 200, ContentType: "text/html", Body: []byte(b.String())}
}
