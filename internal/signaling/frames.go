package signaling

import (
	"encoding/json"

	"github.com/duskline/voicehub/internal/turnauth"
	"github.com/duskline/voicehub/internal/voicestats"
)

type setNameRequest struct {
	Name string `json:"name"`
}

type callStartRequest struct {
	To string `json:"to"`
}

type callAcceptRequest struct {
	From   string `json:"from"`
	RoomID string `json:"roomId"`
}

type callRejectRequest struct {
	From   string `json:"from"`
	RoomID string `json:"roomId"`
}

type signalRequest struct {
	To      string          `json:"to"`
	Payload json.RawMessage `json:"payload"`
}

type chatSendRequest struct {
	Text string `json:"text"`
}

type pushSubscribeRequest struct {
	Subscription json.RawMessage `json:"subscription"`
}

// Outbound frames. Every one carries its own "type" discriminator so
// the client can dispatch without a second lookup.

type HelloFrame struct {
	Type        string             `json:"type"`
	ID          string             `json:"id"`
	Turn        turnauth.IceConfig `json:"turn"`
	HTTPS       bool               `json:"https"`
	ClientIP    string             `json:"clientIp"`
	TurnWarning string             `json:"turnWarning,omitempty"`
	Voice       voicestats.Stats   `json:"voice"`
}

type NameResultFrame struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Name   string `json:"name,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type PresenceUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Busy bool   `json:"busy"`
}

type PresenceFrame struct {
	Type  string           `json:"type"`
	Users []PresenceUser   `json:"users"`
	Voice voicestats.Stats `json:"voice"`
}

type ChatFrame struct {
	Type     string `json:"type"`
	AtIso    string `json:"atIso"`
	From     string `json:"from,omitempty"`
	FromName string `json:"fromName"`
	Text     string `json:"text"`
	To       string `json:"to,omitempty"`
	ToName   string `json:"toName,omitempty"`
	Private  bool   `json:"private"`
}

type IncomingCallFrame struct {
	Type     string `json:"type"`
	From     string `json:"from"`
	FromName string `json:"fromName"`
	RoomID   string `json:"roomId"`
}

type CallStartResultFrame struct {
	Type   string `json:"type"`
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

type CallRejectedFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type CallEndedFrame struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

type PeerInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RoomPeersFrame struct {
	Type   string     `json:"type"`
	RoomID string     `json:"roomId"`
	Peers  []PeerInfo `json:"peers"`
}

type RoomPeerJoinedFrame struct {
	Type   string   `json:"type"`
	RoomID string   `json:"roomId"`
	Peer   PeerInfo `json:"peer"`
}

type RoomPeerLeftFrame struct {
	Type   string `json:"type"`
	RoomID string `json:"roomId"`
	PeerID string `json:"peerId"`
}

type SignalFrame struct {
	Type     string          `json:"type"`
	From     string          `json:"from"`
	FromName string          `json:"fromName"`
	Payload  json.RawMessage `json:"payload"`
}

type ErrorFrame struct {
	Type string `json:"type"`
	Code string `json:"code"`
}
