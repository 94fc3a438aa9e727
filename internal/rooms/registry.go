// Package rooms implements the room registry: the table mapping a room
// id to its set of member session ids. Like presence, it carries no
// lock of its own — the signaling engine mutates it only while holding
// its own serialization lock.
package rooms

import (
	"github.com/duskline/voicehub/internal/session"
)

// Room is a set of sessions that have agreed to exchange media. The
// hub only tracks membership here; sessions reference rooms by id and
// rooms reference sessions by id, avoiding a cyclic ownership graph.
type Room struct {
	ID      string
	Members map[string]struct{}
}

func newRoom(id string) *Room {
	return &Room{ID: id, Members: make(map[string]struct{})}
}

// Size returns the current member count.
func (r *Room) Size() int {
	return len(r.Members)
}

// MembershipMirror is an optional, non-authoritative sink that
// observes room join/leave/dissolve events. It exists purely so an
// external process can see approximate room occupancy; the hub's
// correctness never depends on it being present or accurate, which is
// why every method is best-effort and none return an error the
// registry acts on. Its calls may block on network I/O, so the
// registry itself never invokes it directly — see MirrorEvent.
type MembershipMirror interface {
	Joined(roomID, sessionID string)
	Left(roomID, sessionID string)
	Dissolved(roomID string)
}

// NoopMirror discards every event. It is the default when no external
// mirror is configured.
type NoopMirror struct{}

func (NoopMirror) Joined(string, string) {}
func (NoopMirror) Left(string, string)   {}
func (NoopMirror) Dissolved(string)      {}

// MirrorEvent is a pending membership change the caller should relay
// to a MembershipMirror once it has released whatever lock it is
// holding across the registry mutation. Registry methods append these
// to an internal queue instead of calling a mirror directly, so the
// network call a mirror implementation makes never happens while the
// registry's caller holds its serialization lock.
type MirrorEvent struct {
	Kind      string // "joined", "left", or "dissolved"
	RoomID    string
	SessionID string
}

// DispatchMirrorEvents relays events to mirror in order. Safe to call
// with a nil mirror (each event is a no-op) or an empty slice.
func DispatchMirrorEvents(mirror MembershipMirror, events []MirrorEvent) {
	if mirror == nil {
		return
	}
	for _, ev := range events {
		switch ev.Kind {
		case "joined":
			mirror.Joined(ev.RoomID, ev.SessionID)
		case "left":
			mirror.Left(ev.RoomID, ev.SessionID)
		case "dissolved":
			mirror.Dissolved(ev.RoomID)
		}
	}
}

// LookupFunc resolves a session id to its live Session, mirroring the
// signature presence.Registry.Get exposes. It is injected rather than
// importing the presence package directly, so rooms has no compile
// dependency on presence's internals beyond this one call shape.
type LookupFunc func(id string) (*session.Session, bool)

// Registry owns every live room. lookup resolves session ids to
// sessions so Join/Leave/Dissolve can keep each member's roomId in
// sync with membership (Invariants C/D).
type Registry struct {
	rooms   map[string]*Room
	lookup  LookupFunc
	pending []MirrorEvent
}

// NewRegistry returns an empty room registry.
func NewRegistry(lookup LookupFunc) *Registry {
	return &Registry{
		rooms:  make(map[string]*Room),
		lookup: lookup,
	}
}

// DrainEvents returns every MirrorEvent queued since the last drain
// and clears the queue. Callers must hold whatever lock guards the
// registry while draining, then dispatch the returned events to a
// MembershipMirror only after releasing it.
func (reg *Registry) DrainEvents() []MirrorEvent {
	events := reg.pending
	reg.pending = nil
	return events
}

// Get returns the room with the given id, if it exists.
func (reg *Registry) Get(id string) (*Room, bool) {
	r, ok := reg.rooms[id]
	return r, ok
}

// Count returns the number of live rooms.
func (reg *Registry) Count() int {
	return len(reg.rooms)
}

// Ensure returns the room with the given id, creating it if absent.
func (reg *Registry) Ensure(id string) *Room {
	if r, ok := reg.rooms[id]; ok {
		return r
	}
	r := newRoom(id)
	reg.rooms[id] = r
	return r
}

// Join adds sessionID to room's members and points that session's
// roomId at it. Creates the room if it does not already exist.
func (reg *Registry) Join(roomID, sessionID string) *Room {
	r := reg.Ensure(roomID)
	r.Members[sessionID] = struct{}{}
	if s, ok := reg.lookup(sessionID); ok {
		s.SetRoomID(roomID)
	}
	reg.pending = append(reg.pending, MirrorEvent{Kind: "joined", RoomID: roomID, SessionID: sessionID})
	return r
}

// Leave removes sessionID from the room and clears its roomId. It
// does not dissolve the room; call DissolveIfSmall afterward if the
// caller wants the size<=1 rule enforced.
func (reg *Registry) Leave(roomID, sessionID string) {
	r, ok := reg.rooms[roomID]
	if !ok {
		return
	}
	if _, member := r.Members[sessionID]; !member {
		return
	}
	delete(r.Members, sessionID)
	if s, ok := reg.lookup(sessionID); ok && s.RoomID() == roomID {
		s.SetRoomID("")
	}
	reg.pending = append(reg.pending, MirrorEvent{Kind: "left", RoomID: roomID, SessionID: sessionID})
}

// DissolveIfSmall enforces Invariant E: once a room's membership drops
// to one or zero, the room is removed, and any remaining single
// member has its roomId cleared (it is returned so the caller can
// notify it with a callEnded reason=alone frame). Returns the id of
// the leftover lone member, or "" if the room had no members left or
// still has 2+.
func (reg *Registry) DissolveIfSmall(roomID string) string {
	r, ok := reg.rooms[roomID]
	if !ok {
		return ""
	}
	if r.Size() > 1 {
		return ""
	}
	var lone string
	for id := range r.Members {
		lone = id
		if s, ok := reg.lookup(id); ok {
			s.SetRoomID("")
		}
	}
	delete(reg.rooms, roomID)
	reg.pending = append(reg.pending, MirrorEvent{Kind: "dissolved", RoomID: roomID})
	return lone
}

// IsPair reports whether sessions a and b are both current members of
// the given room, i.e. signaling between them is permitted.
func (reg *Registry) IsPair(a, b, roomID string) bool {
	r, ok := reg.rooms[roomID]
	if !ok {
		return false
	}
	_, aIn := r.Members[a]
	_, bIn := r.Members[b]
	return aIn && bIn
}

// Sizes returns the member count of every live room, in no
// particular order. Used to compute derived voice-capacity stats.
func (reg *Registry) Sizes() []int {
	out := make([]int, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		out = append(out, r.Size())
	}
	return out
}

// MemberIDs returns the member session ids of a room in no particular
// order.
func (reg *Registry) MemberIDs(roomID string) []string {
	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.Members))
	for id := range r.Members {
		out = append(out, id)
	}
	return out
}
