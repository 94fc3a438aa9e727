// Package session defines the per-connection record the rest of the hub
// mutates: identity, claimed name, room membership, and the write-only
// handle used to push frames back to the browser.
package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/duskline/voicehub/internal/ratelimit"
)

// Channel is the write-only handle a Session uses to deliver frames to its
// peer. Implementations must never block the caller indefinitely; a full
// buffer should be reported as an error rather than stalling the hub.
type Channel interface {
	// Send enqueues a single frame for delivery. It must not hold any
	// hub-owned lock and must return quickly.
	Send(frame []byte) error
	// Close releases the underlying transport. Idempotent.
	Close() error
}

// Session is one per live duplex channel. Its name and roomId fields are
// mutated only by the signaling engine while holding its own
// serialization lock; the mutex here exists to let read-only consumers
// (logging, metrics) observe a consistent snapshot without taking that
// larger lock.
type Session struct {
	ID string

	mu          sync.Mutex
	name        string
	roomID      string
	lastFrameAt time.Time

	channel Channel

	// Rate is the per-session fixed-window frame counter. It carries its
	// own lock and is safe to call without the engine's lock held.
	Rate *ratelimit.Limiter
}

// New creates a Session bound to the given channel and rate limiter.
func New(id string, ch Channel, rate *ratelimit.Limiter) *Session {
	return &Session{
		ID:          id,
		channel:     ch,
		Rate:        rate,
		lastFrameAt: time.Now(),
	}
}

// Name returns the currently claimed display name, or "" if none.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// SetName updates the claimed display name.
func (s *Session) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

// RoomID returns the current room id, or "" if the session is not in a
// call.
func (s *Session) RoomID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roomID
}

// SetRoomID updates the current room id; pass "" to clear it.
func (s *Session) SetRoomID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roomID = id
}

// Busy reports whether the session currently belongs to a room.
func (s *Session) Busy() bool {
	return s.RoomID() != ""
}

// Touch records that a frame was just received from this session.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFrameAt = time.Now()
}

// LastFrameAt returns the timestamp of the most recently received frame.
func (s *Session) LastFrameAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFrameAt
}

// Channel returns the session's outbound handle.
func (s *Session) Channel() Channel {
	return s.channel
}

// SendJSON marshals v and enqueues it on the session's channel.
func (s *Session) SendJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.channel.Send(b)
}

// Close releases the session's transport.
func (s *Session) Close() error {
	return s.channel.Close()
}
