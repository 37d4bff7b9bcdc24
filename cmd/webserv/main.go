// Command webserv runs the configuration-driven HTTP/1.1 origin server.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webserv-project/webserv/internal/config"
	"github.com/webserv-project/webserv/internal/eventloop"
	"github.com/webserv-project/webserv/internal/session"
)

func main() {
	configPath := flag.String("config", "webserv.yaml", "path to the YAML configuration file")
	flag.Parse()

	logger := log.New(os.Stderr, "webserv: ", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	store := session.NewStore(session.DefaultTTL, logger)

	loop, err := eventloop.New(cfg, store, logger)
	if err != nil {
		logger.Fatalf("eventloop: %v", err)
	}
	loop.StartSessionSweep(time.Duration(cfg.SessionSweepIntervalSeconds) * time.Second)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("received %s, shutting down", sig)
		loop.Stop()
	}()

	if err := loop.Run(); err != nil {
		logger.Fatalf("eventloop: %v", err)
	}
}
