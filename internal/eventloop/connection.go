package eventloop

import (
	"sync/atomic"
	"time"

	"github.com/webserv-project/webserv/internal/httpmsg"
	"github.com/webserv-project/webserv/internal/httpparse"
	"github.com/webserv-project/webserv/internal/respond"
	"github.com/webserv-project/webserv/internal/routing"
)

// Phase is a connection's position in the §4.7 state machine: it only
// ever moves Read → Write → (Read again, on keep-alive, or Finish).
type Phase int32

const (
	PhaseRead Phase = iota
	PhaseWrite
	PhaseFinish
)

func (p Phase) String() string {
	switch p {
	case PhaseRead:
		return "read"
	case PhaseWrite:
		return "write"
	case PhaseFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// readBufSize is the fixed per-readiness-event stack buffer the read
// phase fills from the socket before handing the bytes to the parser.
const readBufSize = 2048

// Connection is the state the loop keeps per file descriptor. It is
// never touched from more than one goroutine: the loop thread is the only
// reader and writer.
type Connection struct {
	fd         int
	remoteAddr string
	listener   *routing.Listener

	phase           Phase
	parser          *httpparse.Parser
	producer        respond.Producer
	closeAfterWrite bool

	lastActivity atomic.Int64 // unix nanoseconds, for idle bookkeeping

	readBuf [readBufSize]byte
}

func newConnection(fd int, remoteAddr string, l *routing.Listener) *Connection {
	c := &Connection{
		fd:         fd,
		remoteAddr: remoteAddr,
		listener:   l,
	}
	c.touch()
	c.resetForRead()
	return c
}

func (c *Connection) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// resetForRead installs a fresh parser and puts the connection back in
// the Read phase, wiring OnHeadersParsed to the listener's matched server
// and route so the body-size cap reflects both the right virtual host and
// any per-route override (§12).
func (c *Connection) resetForRead() {
	p := httpparse.New()
	listener := c.listener
	p.OnHeadersParsed = func(req *httpmsg.Request) int64 {
		srv := listener.SelectServer(req.Host)
		if route, ok := routing.MatchRoute(srv, req.Path); ok && route.MaxBodySize > 0 {
			return route.MaxBodySize
		}
		return srv.ClientMaxBodySize
	}
	c.parser = p
	c.phase = PhaseRead
	if c.producer != nil {
		c.producer.Close()
		c.producer = nil
	}
}
