// Package pushsvc holds the push-subscription store and the sink
// abstraction used to deliver out-of-band notifications. The hub never
// understands the subscription blob's contents — it stores it opaquely
// and hands it to a Sink when a notification is due.
package pushsvc

import "encoding/json"

// Store is the in-memory mapping session id -> opaque subscription
// blob. Like presence and rooms, it is a plain data structure mutated
// only while the engine holds its own lock.
type Store struct {
	subs map[string]json.RawMessage
}

// NewStore returns an empty subscription store.
func NewStore() *Store {
	return &Store{subs: make(map[string]json.RawMessage)}
}

// Subscribe records blob as sessionId's subscription, replacing any
// previous one.
func (s *Store) Subscribe(sessionID string, blob json.RawMessage) {
	s.subs[sessionID] = blob
}

// Unsubscribe removes sessionId's subscription, if any. A no-op if
// there was none.
func (s *Store) Unsubscribe(sessionID string) {
	delete(s.subs, sessionID)
}

// Get returns the subscription blob for sessionId, if present.
func (s *Store) Get(sessionID string) (json.RawMessage, bool) {
	blob, ok := s.subs[sessionID]
	return blob, ok
}

// Remove is an alias for Unsubscribe used by disconnect handling and
// by the sink-gone path, kept distinct for readability at call sites.
func (s *Store) Remove(sessionID string) {
	s.Unsubscribe(sessionID)
}
