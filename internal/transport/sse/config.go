// Package sse holds the SSE keep-alive configuration, grounded on
// haowjy-meridian/internal/handler/sse/config.go. Nothing imports it:
// the debate stream itself is written by transport/http's streamDebate,
// which uses its own 15s keep-alive ticker.
package sse

import "time"

// Config holds the keep-alive cadence for an SSE connection.
type Config struct {
	KeepAliveInterval time.Duration
}

// DefaultConfig returns the teacher's 15s keep-alive cadence, safe
// against most reverse proxies' idle-connection timeouts.
func DefaultConfig() *Config {
	return &Config{KeepAliveInterval: 15 * time.Second}
}
