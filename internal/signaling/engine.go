// Package signaling implements the connection-oriented state machine:
// per-session lifecycle, the presence/room invariants, and the frame
// dispatch rules that constrain signaling to same-room peers. It is
// the one package allowed to mutate the presence, rooms, and push
// registries; every mutation happens while Engine's own mutex is
// held, released before any push-sink network call.
package signaling

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/duskline/voicehub/internal/identity"
	"github.com/duskline/voicehub/internal/metrics"
	"github.com/duskline/voicehub/internal/presence"
	"github.com/duskline/voicehub/internal/pushsvc"
	"github.com/duskline/voicehub/internal/ratelimit"
	"github.com/duskline/voicehub/internal/rooms"
	"github.com/duskline/voicehub/internal/session"
	"github.com/duskline/voicehub/internal/turnauth"
	"github.com/duskline/voicehub/internal/voicestats"
)

// pushJob is a push notification ready to send once Engine's lock is
// released: the subscription blob was already read under lock, the
// network call is issued after.
type pushJob struct {
	sessionID string
	blob      json.RawMessage
	payload   any
}

// Engine owns the presence, room, and push registries and is the only
// component permitted to mutate them. A single mutex serializes every
// frame handled across every connection.
type Engine struct {
	mu sync.Mutex

	presence *presence.Registry
	rooms    *rooms.Registry
	push     *pushsvc.Store
	sink     pushsvc.Sink
	mirror   rooms.MembershipMirror
	metrics  *metrics.Metrics

	turnCfg Config

	newSessionID func() string
	newRoomID    func() string

	log zerolog.Logger
}

// Config bundles the TURN/ICE settings the engine needs to build
// hello frames and VoiceStats snapshots.
type Config struct {
	Turn turnauth.Config
}

// New constructs an Engine. sessionIDFunc and roomIDFunc are injected
// so tests can produce deterministic ids; production wiring passes
// identity.NewID and a uuid-backed generator respectively.
func New(
	presenceReg *presence.Registry,
	roomsReg *rooms.Registry,
	pushStore *pushsvc.Store,
	sink pushsvc.Sink,
	mirror rooms.MembershipMirror,
	metricsSvc *metrics.Metrics,
	cfg Config,
	sessionIDFunc func() string,
	roomIDFunc func() string,
	log zerolog.Logger,
) *Engine {
	if sink == nil {
		sink = pushsvc.NoopSink{}
	}
	if mirror == nil {
		mirror = rooms.NoopMirror{}
	}
	return &Engine{
		presence:     presenceReg,
		rooms:        roomsReg,
		push:         pushStore,
		sink:         sink,
		mirror:       mirror,
		metrics:      metricsSvc,
		turnCfg:      cfg,
		newSessionID: sessionIDFunc,
		newRoomID:    roomIDFunc,
		log:          log.With().Str("module", "signaling").Logger(),
	}
}

// Connect attaches a fresh session for ch and sends it the initial
// hello frame before any inbound frame is read, per the hub
// supervisor's accept contract.
func (e *Engine) Connect(ch session.Channel, clientIP string, https bool) *session.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	sess := session.New(e.newSessionID(), ch, ratelimit.New(ratelimit.DefaultWidth, ratelimit.DefaultCap))
	e.presence.Attach(sess)

	ice := turnauth.Derive(e.turnCfg.Turn, time.Now())
	warning := turnauth.Warning(e.turnCfg.Turn, clientIP)
	stats := e.voiceStatsLocked()

	_ = sess.SendJSON(HelloFrame{
		Type:        "hello",
		ID:          sess.ID,
		Turn:        ice,
		HTTPS:       https,
		ClientIP:    clientIP,
		TurnWarning: warning,
		Voice:       stats,
	})
	return sess
}

// HandleFrame processes one inbound frame from sessionID in full,
// including any resulting push notifications.
func (e *Engine) HandleFrame(sessionID string, raw []byte) {
	e.mu.Lock()
	sess, ok := e.presence.Get(sessionID)
	e.mu.Unlock()
	if !ok {
		return
	}

	if !sess.Rate.Allow() {
		e.sendError(sess, "RATE_LIMIT")
		return
	}
	sess.Touch()

	frameType, err := decodeFrameType(raw)
	if err != nil {
		e.sendError(sess, "BAD_JSON")
		return
	}
	if frameType == "" {
		e.sendError(sess, "BAD_MESSAGE")
		return
	}

	var jobs []pushJob

	e.mu.Lock()
	switch frameType {
	case "setName":
		e.handleSetNameLocked(sess, raw)
	case "pushSubscribe":
		e.handlePushSubscribeLocked(sess, raw)
	case "pushUnsubscribe":
		e.push.Remove(sess.ID)
	default:
		if sess.Name() == "" {
			e.sendErrorLocked(sess, "NO_NAME")
		} else {
			switch frameType {
			case "callStart":
				jobs = e.handleCallStartLocked(sess, raw)
			case "callAccept":
				e.handleCallAcceptLocked(sess, raw)
			case "callReject":
				e.handleCallRejectLocked(sess, raw)
			case "callHangup":
				e.handleCallHangupLocked(sess)
			case "signal":
				e.handleSignalLocked(sess, raw)
			case "chatSend":
				jobs = e.handleChatSendLocked(sess, raw)
			default:
				e.sendErrorLocked(sess, "UNKNOWN_TYPE")
			}
		}
	}
	events := e.rooms.DrainEvents()
	e.mu.Unlock()

	e.dispatchPushJobs(jobs)
	rooms.DispatchMirrorEvents(e.mirror, events)
}

// Disconnect runs the disconnect handler exactly once for sessionID:
// leaves any room (synthesizing the callHangup effect), removes the
// push subscription and name binding, broadcasts the departure, and
// finally deletes the session record.
func (e *Engine) Disconnect(sessionID string) {
	e.mu.Lock()

	sess, ok := e.presence.Get(sessionID)
	if !ok {
		e.mu.Unlock()
		return
	}
	name := sess.Name()

	if roomID := sess.RoomID(); roomID != "" {
		e.leaveRoomLocked(sess, roomID)
	}

	e.push.Remove(sessionID)
	e.presence.Release(sessionID)

	if name != "" {
		e.broadcastSystemChatLocked(name + " left.")
	}
	e.broadcastPresenceLocked()
	e.presence.Detach(sessionID)

	events := e.rooms.DrainEvents()
	e.mu.Unlock()

	rooms.DispatchMirrorEvents(e.mirror, events)
}

func (e *Engine) sendError(sess *session.Session, code string) {
	_ = sess.SendJSON(ErrorFrame{Type: "error", Code: code})
	e.log.Debug().Str("session", sess.ID).Str("code", code).Msg("protocol error frame sent")
}

func (e *Engine) sendErrorLocked(sess *session.Session, code string) {
	e.sendError(sess, code)
}

func (e *Engine) voiceStatsLocked() voicestats.Stats {
	var totalPtr *int
	if total, ok := e.turnCfg.Turn.RelayPortsTotal(); ok {
		totalPtr = &total
	}
	turnHost, _ := e.turnCfg.Turn.TurnHost()
	return voicestats.Compute(turnHost, totalPtr, e.rooms.Sizes())
}

func (e *Engine) broadcastPresenceLocked() {
	stats := e.voiceStatsLocked()
	named := e.presence.NamedSessions()
	if e.metrics != nil {
		e.metrics.Update(stats, len(named))
	}
	users := make([]PresenceUser, 0, len(named))
	for _, s := range named {
		users = append(users, PresenceUser{ID: s.ID, Name: s.Name(), Busy: s.Busy()})
	}
	frame := PresenceFrame{Type: "presence", Users: users, Voice: stats}
	for _, s := range named {
		_ = s.SendJSON(frame)
	}
}

func (e *Engine) broadcastSystemChatLocked(text string) {
	frame := ChatFrame{
		Type:     "chat",
		AtIso:    nowISO(),
		FromName: "System",
		Text:     text,
		Private:  false,
	}
	for _, s := range e.presence.NamedSessions() {
		_ = s.SendJSON(frame)
	}
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// decodeFrameType parses raw as generic JSON and extracts its "type"
// discriminator, distinguishing a transport-level decode failure
// (BAD_JSON) from a well-formed but non-object or type-less frame
// (BAD_MESSAGE, signaled by a "" return with a nil error).
func decodeFrameType(raw []byte) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return "", nil
	}
	typ, ok := obj["type"].(string)
	if !ok {
		return "", nil
	}
	return typ, nil
}

// leaveRoomLocked implements the shared portion of callReject,
// callHangup, and disconnect: remove sess from roomID, notify
// remaining members, and enforce the size<=1 dissolution rule.
func (e *Engine) leaveRoomLocked(sess *session.Session, roomID string) {
	if roomID == "" {
		return
	}
	e.rooms.Leave(roomID, sess.ID)

	for _, id := range e.rooms.MemberIDs(roomID) {
		if peer, ok := e.presence.Get(id); ok {
			_ = peer.SendJSON(RoomPeerLeftFrame{Type: "roomPeerLeft", RoomID: roomID, PeerID: sess.ID})
		}
	}

	if lone := e.rooms.DissolveIfSmall(roomID); lone != "" {
		if peer, ok := e.presence.Get(lone); ok {
			_ = peer.SendJSON(CallEndedFrame{Type: "callEnded", Reason: "alone"})
		}
	}

	e.broadcastPresenceLocked()
}

func (e *Engine) dispatchPushJobs(jobs []pushJob) {
	if len(jobs) == 0 || !e.sink.Enabled() {
		return
	}
	for _, j := range jobs {
		err := e.sink.Send(context.Background(), j.blob, j.payload)
		if err == pushsvc.ErrSubscriptionGone {
			e.mu.Lock()
			e.push.Remove(j.sessionID)
			e.mu.Unlock()
		}
	}
}

func (e *Engine) pushJobFor(recipient *session.Session, payload any) []pushJob {
	if !e.sink.Enabled() {
		return nil
	}
	blob, ok := e.push.Get(recipient.ID)
	if !ok {
		return nil
	}
	return []pushJob{{sessionID: recipient.ID, blob: blob, payload: payload}}
}

func (e *Engine) handleSetNameLocked(sess *session.Session, raw []byte) {
	var req setNameRequest
	_ = json.Unmarshal(raw, &req)

	canon, err := identity.ValidateName(req.Name)
	if err != nil {
		_ = sess.SendJSON(NameResultFrame{Type: "nameResult", OK: false, Reason: "invalid"})
		return
	}

	if err := e.presence.Claim(sess.ID, canon); err != nil {
		reason := "invalid"
		if err == presence.ErrNameTaken {
			reason = "taken"
		}
		_ = sess.SendJSON(NameResultFrame{Type: "nameResult", OK: false, Reason: reason})
		return
	}

	_ = sess.SendJSON(NameResultFrame{Type: "nameResult", OK: true, Name: canon})
	e.broadcastSystemChatLocked(canon + " joined.")
	e.broadcastPresenceLocked()
}

func (e *Engine) handlePushSubscribeLocked(sess *session.Session, raw []byte) {
	if !e.sink.Enabled() {
		return
	}
	var req pushSubscribeRequest
	_ = json.Unmarshal(raw, &req)
	if len(req.Subscription) == 0 {
		return
	}
	e.push.Subscribe(sess.ID, req.Subscription)
}

func (e *Engine) handleCallStartLocked(sess *session.Session, raw []byte) []pushJob {
	var req callStartRequest
	_ = json.Unmarshal(raw, &req)

	if req.To == sess.ID {
		_ = sess.SendJSON(CallStartResultFrame{Type: "callStartResult", OK: false, Reason: "self"})
		return nil
	}
	target, ok := e.presence.Get(req.To)
	if !ok {
		_ = sess.SendJSON(CallStartResultFrame{Type: "callStartResult", OK: false, Reason: "not_found"})
		return nil
	}
	if target.Name() == "" {
		_ = sess.SendJSON(CallStartResultFrame{Type: "callStartResult", OK: false, Reason: "not_ready"})
		return nil
	}
	if target.Busy() {
		_ = sess.SendJSON(CallStartResultFrame{Type: "callStartResult", OK: false, Reason: "busy"})
		return nil
	}

	roomID := sess.RoomID()
	if roomID == "" {
		roomID = e.newRoomID()
	}
	e.rooms.Join(roomID, sess.ID)
	e.rooms.Join(roomID, target.ID)

	_ = target.SendJSON(IncomingCallFrame{Type: "incomingCall", From: sess.ID, FromName: sess.Name(), RoomID: roomID})
	_ = sess.SendJSON(CallStartResultFrame{Type: "callStartResult", OK: true})
	e.broadcastPresenceLocked()

	return e.pushJobFor(target, map[string]string{"type": "incomingCall", "from": sess.Name()})
}

func (e *Engine) handleCallAcceptLocked(sess *session.Session, raw []byte) {
	var req callAcceptRequest
	_ = json.Unmarshal(raw, &req)

	caller, ok := e.presence.Get(req.From)
	if !ok || caller.RoomID() != req.RoomID || sess.RoomID() != req.RoomID {
		if cur := sess.RoomID(); cur != "" {
			e.leaveRoomLocked(sess, cur)
		}
		return
	}

	others := make([]string, 0)
	for _, id := range e.rooms.MemberIDs(req.RoomID) {
		if id != sess.ID {
			others = append(others, id)
		}
	}

	for _, id := range others {
		if peer, ok := e.presence.Get(id); ok {
			_ = peer.SendJSON(RoomPeerJoinedFrame{
				Type:   "roomPeerJoined",
				RoomID: req.RoomID,
				Peer:   PeerInfo{ID: sess.ID, Name: sess.Name()},
			})
		}
	}

	peers := make([]PeerInfo, 0, len(others))
	for _, id := range others {
		if peer, ok := e.presence.Get(id); ok {
			peers = append(peers, PeerInfo{ID: peer.ID, Name: peer.Name()})
		}
	}
	_ = sess.SendJSON(RoomPeersFrame{Type: "roomPeers", RoomID: req.RoomID, Peers: peers})
}

func (e *Engine) handleCallRejectLocked(sess *session.Session, raw []byte) {
	var req callRejectRequest
	_ = json.Unmarshal(raw, &req)

	if caller, ok := e.presence.Get(req.From); ok {
		_ = caller.SendJSON(CallRejectedFrame{Type: "callRejected", Reason: "rejected"})
	}

	roomID := req.RoomID
	if roomID == "" {
		roomID = sess.RoomID()
	}
	e.leaveRoomLocked(sess, roomID)
}

func (e *Engine) handleCallHangupLocked(sess *session.Session) {
	e.leaveRoomLocked(sess, sess.RoomID())
}

func (e *Engine) handleSignalLocked(sess *session.Session, raw []byte) {
	var req signalRequest
	_ = json.Unmarshal(raw, &req)

	selfRoom := sess.RoomID()
	if selfRoom == "" {
		return
	}
	target, ok := e.presence.Get(req.To)
	if !ok {
		return
	}
	if !e.rooms.IsPair(sess.ID, target.ID, selfRoom) {
		return
	}
	_ = target.SendJSON(SignalFrame{Type: "signal", From: sess.ID, FromName: sess.Name(), Payload: req.Payload})
}

func (e *Engine) handleChatSendLocked(sess *session.Session, raw []byte) []pushJob {
	var req chatSendRequest
	_ = json.Unmarshal(raw, &req)

	body, err := identity.ValidateChat(req.Text)
	if err != nil {
		e.sendErrorLocked(sess, "BAD_CHAT")
		return nil
	}

	if strings.HasPrefix(body, identity.ReplyPrefix) {
		return e.broadcastPublicChatLocked(sess, body)
	}

	if name, pmBody, ok := identity.ParsePrivatePrefix(body); ok {
		target, found := e.presence.GetByName(name)
		if !found {
			e.sendErrorLocked(sess, "PM_NOT_FOUND")
			return nil
		}
		if target.ID == sess.ID {
			e.sendErrorLocked(sess, "PM_SELF")
			return nil
		}
		frame := ChatFrame{
			Type:     "chat",
			AtIso:    nowISO(),
			From:     sess.ID,
			FromName: sess.Name(),
			To:       target.ID,
			ToName:   target.Name(),
			Text:     pmBody,
			Private:  true,
		}
		_ = sess.SendJSON(frame)
		_ = target.SendJSON(frame)
		return e.pushJobFor(target, map[string]string{"type": "chat", "from": sess.Name()})
	}

	return e.broadcastPublicChatLocked(sess, body)
}

func (e *Engine) broadcastPublicChatLocked(sess *session.Session, body string) []pushJob {
	frame := ChatFrame{
		Type:     "chat",
		AtIso:    nowISO(),
		From:     sess.ID,
		FromName: sess.Name(),
		Text:     body,
		Private:  false,
	}

	var jobs []pushJob
	for _, s := range e.presence.NamedSessions() {
		_ = s.SendJSON(frame)
		if s.ID == sess.ID {
			continue
		}
		jobs = append(jobs, e.pushJobFor(s, map[string]string{"type": "chat", "from": sess.Name()})...)
	}
	return jobs
}
