package eventloop

import (
	"sync/atomic"
	"time"
)

// Stats mirrors the shape of a typical embedded-server counter block:
// lock-free atomics a health endpoint or a diagnostic print can sample
// without ever touching the loop thread.
type Stats struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalRequests     atomic.Uint64
	BytesRead         atomic.Uint64
	BytesWritten      atomic.Uint64
	ConnectionErrors  atomic.Uint64
	RequestErrors     atomic.Uint64
	StartTime         time.Time
}

// Duration returns how long the loop has been running.
func (s *Stats) Duration() time.Duration {
	return time.Since(s.StartTime)
}

// RequestsPerSecond is a cheap diagnostic, not a rate limiter input.
func (s *Stats) RequestsPerSecond() float64 {
	d := s.Duration().Seconds()
	if d == 0 {
		return 0
	}
	return float64(s.TotalRequests.Load()) / d
}
