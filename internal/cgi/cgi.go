// Package cgi implements the synchronous fork-and-wait CGI bridge
// (§4.5, RFC 3875): it selects an interpreter by script extension, wires
// up the RFC 3875 environment, feeds the request body to the child's
// stdin, and captures its stdout as the response body.
package cgi

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/webserv-project/webserv/internal/httpmsg"
)

// interpreters maps a script extension to the interpreter binary invoked
// with the script path as its single argument.
var interpreters = map[string]string{
	".py":  "python3",
	".php": "php",
	".sh":  "bash",
	".pl":  "perl",
}

// Context is everything the bridge needs from the resolved request to
// build one CGI invocation.
type Context struct {
	Method     string
	Path       string // request path, becomes PATH_INFO
	RawQuery   string
	ScriptPath string // resolved script file on disk
	Header     httpmsg.Header
	Body       []byte
}

// Result is the response the bridge produced from a successful CGI run.
type Result struct {
	Status int
	Body   []byte
}

// Run spawns the interpreter for ctx.ScriptPath, feeds ctx.Body to its
// stdin when present, and waits for it to exit. Any failure (unknown
// extension, spawn failure, non-zero exit) is reported as a 500 with no
// body; the caller maps that into the configured error page.
func Run(ctx Context) *Result {
	ext := filepath.Ext(ctx.ScriptPath)
	interpreter, ok := interpreters[ext]
	if !ok {
		return &Result{Status: 500}
	}

	cmd := exec.Command(interpreter, ctx.ScriptPath)
	cmd.Dir = filepath.Dir(ctx.ScriptPath)
	cmd.Env = buildEnv(ctx)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if len(ctx.Body) > 0 {
		cmd.Stdin = bytes.NewReader(ctx.Body)
	}

	if err := cmd.Run(); err != nil {
		return &Result{Status: 500}
	}
	return &Result{Status: 200, Body: stdout.Bytes()}
}

// buildEnv constructs the RFC 3875 environment variable set (§6.3).
func buildEnv(ctx Context) []string {
	env := []string{
		"REQUEST_METHOD=" + ctx.Method,
		"QUERY_STRING=" + ctx.RawQuery,
		"SCRIPT_FILENAME=" + ctx.ScriptPath,
		"PATH_INFO=" + ctx.Path,
		"SERVER_PROTOCOL=HTTP/1.1",
		"GATEWAY_INTERFACE=CGI/1.1",
	}

	if ctx.Method == "POST" && len(ctx.Body) > 0 {
		env = append(env, "CONTENT_LENGTH="+strconv.Itoa(len(ctx.Body)))
		if ct, ok := ctx.Header.Get("content-type"); ok {
			env = append(env, "CONTENT_TYPE="+ct)
		}
	}

	ctx.Header.VisitAll(func(name, value string) {
		env = append(env, "HTTP_"+httpEnvName(name)+"="+value)
	})

	return env
}

// httpEnvName converts a lower-cased header name like "accept-language"
// into the RFC 3875 environment suffix "ACCEPT_LANGUAGE".
func httpEnvName(name string) string {
	upper := strings.ToUpper(name)
	return strings.ReplaceAll(upper, "-", "_")
}
