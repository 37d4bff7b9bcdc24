//go:build linux

package eventloop

import (
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/valyala/bytebufferpool"
	"golang.org/x/sys/unix"

	"github.com/webserv-project/webserv/internal/config"
	"github.com/webserv-project/webserv/internal/httpparse"
	"github.com/webserv-project/webserv/internal/respond"
	"github.com/webserv-project/webserv/internal/routing"
	"github.com/webserv-project/webserv/internal/session"
)

// maxEvents bounds a single epoll_wait batch. A connection not drained
// this round is simply seen again on the next iteration; nothing is lost.
const maxEvents = 256

// Loop is the single-thread readiness multiplexer described in §4.7: one
// epoll instance owns every listening socket and every open connection,
// and Run never returns control to another goroutine for I/O. The only
// blocking call the loop thread makes per request is cgi.Run, which the
// core accepts as a deliberate exception.
type Loop struct {
	epfd       int
	listenerFD map[int]*routing.Listener
	conns      map[int]*Connection
	dispatcher *Dispatcher
	store      *session.Store
	log        *log.Logger
	stats      Stats
	stop       chan struct{}
}

// New builds the listener set from cfg (one Listener per distinct
// host:port, per routing.GroupServers) and binds each one. It does not
// start serving; call Run for that.
func New(cfg *config.Config, store *session.Store, logger *log.Logger) (*Loop, error) {
	if logger == nil {
		logger = log.Default()
	}

	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, err
	}

	l := &Loop{
		epfd:       epfd,
		listenerFD: make(map[int]*routing.Listener),
		conns:      make(map[int]*Connection),
		dispatcher: &Dispatcher{Store: store},
		store:      store,
		log:        logger,
		stop:       make(chan struct{}),
	}
	l.stats.StartTime = time.Now()

	for _, ln := range routing.GroupServers(cfg.Servers) {
		fd, err := bindListener(ln.Addr)
		if err != nil {
			unix.Close(epfd)
			return nil, err
		}
		l.listenerFD[fd] = ln
		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
		if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
			unix.Close(epfd)
			return nil, err
		}
		logger.Printf("eventloop: listening on %s", ln.Addr)
	}

	return l, nil
}

// Stop asks Run to return after its current epoll_wait cycle.
func (l *Loop) Stop() {
	close(l.stop)
}

// Run drives the epoll loop until Stop is called or epoll_wait returns an
// unrecoverable error.
func (l *Loop) Run() error {
	events := make([]unix.EpollEvent, maxEvents)
	for {
		select {
		case <-l.stop:
			return nil
		default:
		}

		n, err := unix.EpollWait(l.epfd, events, 1000)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return err
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if ln, ok := l.listenerFD[fd]; ok {
				l.acceptAll(fd, ln)
				continue
			}
			if c, ok := l.conns[fd]; ok {
				l.service(c, events[i].Events)
			}
		}
	}
}

// acceptAll drains every pending connection on a readable listener
// socket. Level-triggered epoll would re-signal a listener with a
// non-empty backlog on the next wait regardless, but accepting in a loop
// here avoids an extra wait cycle under load.
func (l *Loop) acceptAll(listenFD int, ln *routing.Listener) {
	for {
		connFD, sa, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
		if err != nil {
			if !errors.Is(err, unix.EAGAIN) {
				l.stats.ConnectionErrors.Add(1)
			}
			return
		}

		tuneAccepted(connFD)
		c := newConnection(connFD, remoteAddrString(sa), ln)
		l.conns[connFD] = c
		l.stats.TotalConnections.Add(1)
		l.stats.ActiveConnections.Add(1)

		ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(connFD)}
		if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, connFD, &ev); err != nil {
			l.closeConn(c)
		}
	}
}

func (l *Loop) service(c *Connection, events uint32) {
	c.touch()
	if events&(unix.EPOLLHUP|unix.EPOLLERR) != 0 {
		l.closeConn(c)
		return
	}
	switch c.phase {
	case PhaseRead:
		if events&unix.EPOLLIN != 0 {
			l.readPhase(c)
		}
	case PhaseWrite:
		if events&unix.EPOLLOUT != 0 {
			l.writePhase(c)
		}
	}
}

// readPhase implements the non-blocking read half of §4.7's per-
// connection turn: drain the socket into the fixed stack buffer, feed
// every chunk straight to the incremental parser, and the instant a full
// request is available, dispatch and flip to the Write phase without
// waiting for the socket to go idle.
func (l *Loop) readPhase(c *Connection) {
	for {
		n, err := unix.Read(c.fd, c.readBuf[:])
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			l.closeConn(c)
			return
		}
		if n == 0 {
			l.closeConn(c)
			return
		}
		l.stats.BytesRead.Add(uint64(n))

		if err := c.parser.Append(c.readBuf[:n]); err != nil {
			status := 400
			if errors.Is(err, httpparse.ErrEntityTooLarge) {
				status = 413
			}
			l.sendBestEffort(c.fd, status)
			l.closeConn(c)
			return
		}

		if c.parser.Done() {
			l.stats.TotalRequests.Add(1)
			req := c.parser.Get()
			req.RemoteAddr = c.remoteAddr

			resp := l.dispatcher.Dispatch(c.listener, req)
			producer, err := buildProducer(resp)
			if err != nil {
				l.stats.RequestErrors.Add(1)
				l.closeConn(c)
				return
			}
			c.producer = producer
			c.closeAfterWrite = resp.Close
			l.rearm(c, PhaseWrite)
			return
		}
	}
}

// writePhase drains the installed producer per the Peek/Advance/Refill
// contract, stopping the instant the socket would block so the loop
// thread never stalls on a slow reader.
func (l *Loop) writePhase(c *Connection) {
	for {
		if err := c.producer.Refill(); err != nil {
			l.closeConn(c)
			return
		}
		chunk := c.producer.Peek()
		if len(chunk) == 0 {
			if c.producer.Finished() {
				break
			}
			return
		}

		n, err := unix.Write(c.fd, chunk)
		if err != nil {
			if errors.Is(err, unix.EAGAIN) {
				return
			}
			l.closeConn(c)
			return
		}
		l.stats.BytesWritten.Add(uint64(n))
		c.producer.Advance(n)
		if n < len(chunk) {
			return
		}
	}

	c.producer.Close()
	c.producer = nil

	if c.closeAfterWrite {
		l.closeConn(c)
		return
	}
	c.resetForRead()
	l.rearm(c, PhaseRead)
}

func (l *Loop) rearm(c *Connection, phase Phase) {
	c.phase = phase
	events := uint32(unix.EPOLLIN)
	if phase == PhaseWrite {
		events = unix.EPOLLOUT
	}
	ev := unix.EpollEvent{Events: events, Fd: int32(c.fd)}
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_MOD, c.fd, &ev)
}

func (l *Loop) closeConn(c *Connection) {
	_ = unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, c.fd, nil)
	unix.Close(c.fd)
	if c.producer != nil {
		c.producer.Close()
	}
	delete(l.conns, c.fd)
	l.stats.ActiveConnections.Add(-1)
}

// sendBestEffort writes a minimal status response before a connection is
// dropped for a parse error. It is genuinely best-effort: a single
// non-blocking write, ignoring a short write or EAGAIN, since the
// connection is being torn down regardless.
func (l *Loop) sendBestEffort(fd, status int) {
	body := []byte(respond.StatusText(status) + "\n")
	b := bytebufferpool.Get()
	defer bytebufferpool.Put(b)
	respond.WriteHeaderBlock(b, status, [][2]string{
		{"Content-Type", "text/plain"},
		{"Connection", "close"},
		{"Content-Length", strconv.Itoa(len(body))},
	})
	b.Write(body)
	_, _ = unix.Write(fd, b.B)
}

// StartSessionSweep wires the configured sweep interval into the shared
// session store, per §4.6.
func (l *Loop) StartSessionSweep(interval time.Duration) {
	l.store.StartSweep(interval, l.stop)
}
