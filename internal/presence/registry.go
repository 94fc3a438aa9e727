// Package presence holds the two tables that make up the live lobby:
// every attached session, and the name each one has claimed. It is a
// plain data structure with no lock of its own — the signaling engine
// mutates it only while holding its own serialization lock, the same
// one that guards rooms and push subscriptions.
package presence

import (
	"errors"

	"github.com/duskline/voicehub/internal/session"
)

var ErrNameTaken = errors.New("name already claimed")
var ErrNotFound = errors.New("session not found")

// Entry is a read-only snapshot of one attached session; Name is ""
// for a session that has not claimed a name.
type Entry struct {
	SessionID string
	Name      string
	RoomID    string
}

// Registry tracks every attached session and the name, if any, each
// one currently owns.
type Registry struct {
	sessions map[string]*session.Session
	names    map[string]string // name -> session id
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session.Session),
		names:    make(map[string]string),
	}
}

// Attach registers a freshly connected session with no claimed name.
func (r *Registry) Attach(s *session.Session) {
	r.sessions[s.ID] = s
}

// Detach removes a session entirely, releasing any name it held.
func (r *Registry) Detach(id string) {
	if s, ok := r.sessions[id]; ok {
		if name := s.Name(); name != "" {
			delete(r.names, name)
		}
		delete(r.sessions, id)
	}
}

// Claim assigns name to the session, failing if another live session
// already holds it. Reclaiming your own current name is a no-op
// success. The previous name, if any, is released.
func (r *Registry) Claim(id, name string) error {
	s, ok := r.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := r.names[name]; taken && owner != id {
		return ErrNameTaken
	}
	if old := s.Name(); old != "" && old != name {
		delete(r.names, old)
	}
	r.names[name] = id
	s.SetName(name)
	return nil
}

// Release drops the name a session holds, if any, without detaching
// the session itself.
func (r *Registry) Release(id string) {
	s, ok := r.sessions[id]
	if !ok {
		return
	}
	if name := s.Name(); name != "" {
		delete(r.names, name)
		s.SetName("")
	}
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*session.Session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// GetByName returns the session currently holding name.
func (r *Registry) GetByName(name string) (*session.Session, bool) {
	id, ok := r.names[name]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// NameTaken reports whether name is currently claimed by anyone.
func (r *Registry) NameTaken(name string) bool {
	_, ok := r.names[name]
	return ok
}

// Count returns the number of attached sessions.
func (r *Registry) Count() int {
	return len(r.sessions)
}

// Snapshot returns one Entry per attached session, anonymous ones
// included, in no particular order. The presence broadcast is built
// from NamedSessions, not from this.
func (r *Registry) Snapshot() []Entry {
	out := make([]Entry, 0, len(r.sessions))
	for id, s := range r.sessions {
		out = append(out, Entry{SessionID: id, Name: s.Name(), RoomID: s.RoomID()})
	}
	return out
}

// NamedSessions returns every session that currently holds a claimed
// name, i.e. every session eligible to receive broadcasts and private
// messages.
func (r *Registry) NamedSessions() []*session.Session {
	out := make([]*session.Session, 0, len(r.names))
	for _, id := range r.names {
		if s, ok := r.sessions[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
