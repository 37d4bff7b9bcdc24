//go:build linux

package eventloop

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// listenBacklog mirrors a conservative nginx-style default; large enough
// to absorb a burst of accepts between two epoll_wait returns.
const listenBacklog = 512

// bindListener creates a non-blocking IPv4 listening socket for addr
// ("host:port", host empty meaning all interfaces) with the platform
// tuning §4.7 expects from a readiness-driven accept loop: SO_REUSEADDR
// so a restart doesn't wait out TIME_WAIT, and TCP_DEFER_ACCEPT so the
// loop isn't woken for a connection with no data queued yet.
func bindListener(addr string) (int, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp4", addr)
	if err != nil {
		return -1, err
	}

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return -1, err
	}

	var sa unix.SockaddrInet4
	ip := tcpAddr.IP.To4()
	if ip == nil {
		ip = net.IPv4zero.To4()
	}
	copy(sa.Addr[:], ip)
	sa.Port = tcpAddr.Port

	if err := unix.Bind(fd, &sa); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, listenBacklog); err != nil {
		unix.Close(fd)
		return -1, err
	}

	// Best-effort: a kernel without defer-accept support should not
	// keep the server from starting.
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, 5)

	return fd, nil
}

// tuneAccepted applies the per-connection options §4.7 wants on every
// accepted socket: Nagle off (the server writes full response chunks, not
// a trickle worth coalescing) and a bound on how long an unacknowledged
// write can linger before the connection is presumed dead.
func tuneAccepted(fd int) {
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1)
	_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, 10000)
}

// remoteAddrString renders the peer address captured at accept time for
// Request.RemoteAddr and diagnostic logging.
func remoteAddrString(sa unix.Sockaddr) string {
	v4, ok := sa.(*unix.SockaddrInet4)
	if !ok {
		return ""
	}
	ip := net.IP(v4.Addr[:])
	return ip.String() + ":" + strconv.Itoa(v4.Port)
}
