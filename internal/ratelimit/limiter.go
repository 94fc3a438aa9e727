// Package ratelimit implements the per-connection fixed-window frame
// counter that protects the hub from a single client flooding it with
// inbound frames.
package ratelimit

import (
	"sync"
	"time"
)

// DefaultWidth and DefaultCap are the window width and frame cap mandated
// for every session unless overridden.
const (
	DefaultWidth = 2000 * time.Millisecond
	DefaultCap   = 20
)

// Limiter is a fixed-window counter: {windowStart, count}. On each Allow
// call, if the window has expired it resets; the call always counts
// (frames are consumed, never queued), and Allow reports whether the
// frame should still be dispatched.
type Limiter struct {
	mu          sync.Mutex
	width       time.Duration
	cap         int
	windowStart time.Time
	count       int
}

// New returns a Limiter with the given window width and cap.
func New(width time.Duration, cap int) *Limiter {
	if width <= 0 {
		width = DefaultWidth
	}
	if cap <= 0 {
		cap = DefaultCap
	}
	return &Limiter{
		width:       width,
		cap:         cap,
		windowStart: time.Now(),
	}
}

// Allow records one frame against the current window and reports whether
// the session is still within its budget. Even a rejected frame is
// counted: the caller must not re-submit it.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.windowStart) > l.width {
		l.windowStart = now
		l.count = 0
	}

	l.count++
	return l.count <= l.cap
}
