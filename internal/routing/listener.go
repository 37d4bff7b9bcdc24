// Package routing implements virtual-host selection, longest-prefix
// route matching, and safe path resolution (§4.3). Method gating is
// config.Route.AllowsMethod, applied by the event loop's dispatcher.
package routing

import "github.com/webserv-project/webserv/internal/config"

// Listener groups the servers that share one (host, port) bind, plus
// which of them is the default when no Host header matches.
type Listener struct {
	Addr          string
	Servers       []*config.Server
	DefaultIndex  int
}

// SelectServer picks the server whose ServerName equals host, falling
// back to the listener's default server.
func (l *Listener) SelectServer(host string) *config.Server {
	for _, s := range l.Servers {
		if s.ServerName == host {
			return s
		}
	}
	return l.Servers[l.DefaultIndex]
}

// GroupServers partitions servers into one Listener per distinct
// (host, port) pair. The first server in each group that sets
// DefaultServer becomes that listener's default; absent one, the first
// server encountered for that group wins, matching a typical nginx-style
// "first server block is the default" convention.
func GroupServers(servers []config.Server) []*Listener {
	type key struct {
		host string
		port int
	}
	index := make(map[key]*Listener)
	var order []key

	for i := range servers {
		srv := &servers[i]
		for _, port := range srv.Ports {
			k := key{srv.Host, port}
			l, ok := index[k]
			if !ok {
				l = &Listener{Addr: addrString(srv.Host, port)}
				index[k] = l
				order = append(order, k)
			}
			l.Servers = append(l.Servers, srv)
			if srv.DefaultServer && !l.Servers[l.DefaultIndex].DefaultServer {
				l.DefaultIndex = len(l.Servers) - 1
			}
		}
	}

	out := make([]*Listener, 0, len(order))
	for _, k := range order {
		out = append(out, index[k])
	}
	return out
}

func addrString(host string, port int) string {
	if host == "" {
		host = "0.0.0.0"
	}
	return host + ":" + itoa(port)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [12]byte
	i := len(buf)
	neg := n < 0
	if neg {
		n = -n
	}
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
