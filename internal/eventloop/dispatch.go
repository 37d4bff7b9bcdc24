// Package eventloop implements the readiness-driven single-thread
// connection state machine (§4.7): one epoll instance multiplexes every
// listener and connection on one OS thread, each socket carries an
// explicit Read/Write phase, and a connection only blocks the thread for
// the one operation the core accepts as synchronous, a CGI invocation.
package eventloop

import (
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/webserv-project/webserv/internal/cgi"
	"github.com/webserv-project/webserv/internal/config"
	"github.com/webserv-project/webserv/internal/handlers"
	"github.com/webserv-project/webserv/internal/httpmsg"
	"github.com/webserv-project/webserv/internal/respond"
	"github.com/webserv-project/webserv/internal/routing"
	"github.com/webserv-project/webserv/internal/session"
)

// Response is the dispatcher's output: everything the write phase needs
// to build a respond.Producer, independent of any socket. At most one of
// Body or FilePath is meaningful; FilePath selects the file-streamed
// producer.
type Response struct {
	Status   int
	Headers  [][2]string
	Body     []byte
	FilePath string
	Close    bool
}

// Dispatcher turns a fully parsed request plus the listener it arrived on
// into a Response. It holds no per-connection state; one Dispatcher is
// shared by every connection in the loop.
type Dispatcher struct {
	Store *session.Store
}

// Dispatch implements §4.3's resolution pipeline end to end: virtual host
// selection, route matching, method gating, path resolution, and handing
// off to CGI or the static handlers. Every outcome carries the Set-Cookie
// value from the per-request session touch, per §4.6.
func (d *Dispatcher) Dispatch(listener *routing.Listener, req *httpmsg.Request) Response {
	srv := listener.SelectServer(req.Host)

	_, cookie := d.Store.Touch(req.SessionID, time.Now())

	route, ok := routing.MatchRoute(srv, req.Path)
	if !ok {
		return withCookie(errorPageResponse(srv, 404, req.Close), cookie)
	}

	if route.Redirect != "" {
		resp := Response{
			Status:  302,
			Headers: [][2]string{{"Location", route.Redirect}},
			Close:   req.Close,
		}
		return withCookie(resp, cookie)
	}

	if !route.AllowsMethod(req.Method) {
		resp := errorPageResponse(srv, 405, req.Close)
		resp.Headers = append(resp.Headers, [2]string{"Allow", strings.Join(route.Methods, ", ")})
		return withCookie(resp, cookie)
	}

	remainder := routing.Remainder(route.Path, req.Path)
	resolved, ok := routing.ResolvePath(srv.Root, route.Root, remainder)
	if !ok {
		return withCookie(errorPageResponse(srv, 404, req.Close), cookie)
	}

	if route.CGI != "" && strings.HasSuffix(req.Path, route.CGI) {
		return withCookie(dispatchCGI(srv, req, resolved), cookie)
	}

	var out handlers.Outcome
	switch req.Method {
	case "GET":
		out = handlers.ServeGet(*route, resolved, req.Path)
	case "POST":
		out = handlers.ServePost(req, resolved, req.Path)
	case "DELETE":
		out = handlers.ServeDelete(resolved)
	default:
		out = handlers.Outcome{Status: 405}
	}

	return withCookie(outcomeToResponse(srv, out, req.Close), cookie)
}

func dispatchCGI(srv *config.Server, req *httpmsg.Request, scriptPath string) Response {
	result := cgi.Run(cgi.Context{
		Method:     req.Method,
		Path:       req.Path,
		RawQuery:   req.RawQuery,
		ScriptPath: scriptPath,
		Header:     req.Header,
		Body:       req.Body,
	})
	if result.Status != 200 {
		return errorPageResponse(srv, 500, req.Close)
	}
	return Response{
		Status:  200,
		Headers: [][2]string{{"Content-Type", "text/html"}},
		Body:    result.Body,
		Close:   req.Close,
	}
}

// outcomeToResponse converts a handler Outcome into a Response,
// substituting the server's configured error page when the handler
// reported a failure status without supplying its own body.
func outcomeToResponse(srv *config.Server, out handlers.Outcome, close bool) Response {
	if out.Status >= 400 && len(out.Body) == 0 && out.FilePath == "" {
		return errorPageResponse(srv, out.Status, close)
	}
	headers := out.Headers
	if out.ContentType != "" {
		headers = append(headers, [2]string{"Content-Type", out.ContentType})
	}
	return Response{
		Status:   out.Status,
		Headers:  headers,
		Body:     out.Body,
		FilePath: out.FilePath,
		Close:    close,
	}
}

// errorPageResponse builds the response for a failure status, preferring
// the server's configured error page when one exists for that code.
func errorPageResponse(srv *config.Server, status int, close bool) Response {
	body := []byte(defaultErrorBody(status))
	contentType := "text/plain"

	if path, ok := srv.ErrorPages[status]; ok {
		if data, err := os.ReadFile(path); err == nil {
			body = data
			if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
				contentType = ct
			} else {
				contentType = "text/html"
			}
		}
	}

	return Response{
		Status:  status,
		Headers: [][2]string{{"Content-Type", contentType}},
		Body:    body,
		Close:   close,
	}
}

func defaultErrorBody(status int) string {
	return strconv.Itoa(status) + " " + respond.StatusText(status) + "\n"
}

func withCookie(resp Response, cookie string) Response {
	if cookie != "" {
		resp.Headers = append(resp.Headers, [2]string{"Set-Cookie", cookie})
	}
	return resp
}
