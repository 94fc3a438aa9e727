package hub

import (
	"net"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/duskline/voicehub/internal/originpolicy"
	"github.com/duskline/voicehub/internal/signaling"
)

// Hub owns the WebSocket upgrader and wires every accepted connection
// to the signaling engine. It holds no presence/room state itself;
// that all lives in Engine.
type Hub struct {
	engine   *signaling.Engine
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// New returns a Hub that dispatches accepted connections to engine,
// enforcing policy on the WebSocket handshake's Origin header.
func New(engine *signaling.Engine, policy *originpolicy.Policy, log zerolog.Logger) *Hub {
	return &Hub{
		engine: engine,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     policy.CheckWebsocketOrigin,
		},
		log: log.With().Str("module", "hub").Logger(),
	}
}

// ServeWS upgrades r and runs the connection's full lifecycle: accept,
// spawn the read/write pumps, and on any terminal condition run the
// engine's disconnect handler exactly once.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	clientIP := clientIPFromRequest(r)
	https := r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https"

	ch := newWSChannel(conn)
	sess := h.engine.Connect(ch, clientIP, https)

	go ch.writePump()

	ch.readPump(maxMessageSize, func(data []byte) {
		h.engine.HandleFrame(sess.ID, data)
	})

	// readPump returned: the connection is gone one way or another.
	// Close before Disconnect so no further Send call can race a
	// half-torn-down transport, then run the disconnect handler
	// exactly once.
	_ = ch.Close()
	h.log.Info().Str("session", sess.ID).Msg("connection closed")
	h.engine.Disconnect(sess.ID)
}

func clientIPFromRequest(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
