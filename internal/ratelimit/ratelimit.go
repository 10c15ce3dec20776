// Package ratelimit implements a fixed-window request counter keyed by
// string (typically a client IP). Instances are wired explicitly into the
// server; there is no process-wide state.
package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	count int
	start time.Time
}

// Limiter allows at most max events per key within each fixed window.
type Limiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	entries map[string]*window
	now     func() time.Time
}

// New constructs a limiter allowing max events per windowSize.
func New(max int, windowSize time.Duration) *Limiter {
	return &Limiter{
		max:     max,
		window:  windowSize,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// Allow records an event for key and reports whether it is within the
// window's budget. The counter resets when the window elapses.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.entries[key]
	if !ok || now.Sub(w.start) > l.window {
		w = &window{start: now}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.max
}
