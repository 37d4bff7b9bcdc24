package eventloop

import (
	"testing"

	"github.com/webserv-project/webserv/internal/config"
	"github.com/webserv-project/webserv/internal/httpmsg"
	"github.com/webserv-project/webserv/internal/routing"
)

func TestOnHeadersParsedPrefersRouteMaxBodySize(t *testing.T) {
	srv := config.Server{
		Ports:             []int{8080},
		DefaultServer:     true,
		ClientMaxBodySize: 1 << 20,
		Routes: []config.Route{
			{Path: "/upload", Methods: []string{"POST"}, MaxBodySize: 4096},
			{Path: "/", Methods: []string{"GET"}},
		},
	}
	listener := routing.GroupServers([]config.Server{srv})[0]
	c := &Connection{listener: listener}
	c.resetForRead()

	req := &httpmsg.Request{Path: "/upload/big.bin"}
	if got := c.parser.OnHeadersParsed(req); got != 4096 {
		t.Errorf("OnHeadersParsed = %d, want route override 4096", got)
	}

	req2 := &httpmsg.Request{Path: "/index.html"}
	if got := c.parser.OnHeadersParsed(req2); got != 1<<20 {
		t.Errorf("OnHeadersParsed = %d, want server default %d", got, 1<<20)
	}
}
