// Package originpolicy centralizes the hub's allowed-origin check so
// both the HTTP CORS middleware and the WebSocket upgrader's
// CheckOrigin callback enforce the same rule from one place. It lives
// outside httpapi and hub so neither has to import the other.
package originpolicy

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Policy decides whether a given Origin header value is permitted to
// talk to the hub. An empty allow-list permits every origin, matching
// the common "wide open for local development" default.
type Policy struct {
	allowed map[string]struct{}
}

// New returns a Policy permitting exactly the given origins. An empty
// or nil slice permits everything.
func New(allowedOrigins []string) *Policy {
	p := &Policy{allowed: make(map[string]struct{}, len(allowedOrigins))}
	for _, o := range allowedOrigins {
		p.allowed[o] = struct{}{}
	}
	return p
}

// Allowed reports whether origin may proceed. An empty origin (a
// non-browser client, or a direct WebSocket handshake with no Origin
// header) is always allowed — the absence of an Origin is not by
// itself a spoofing signal worth blocking.
func (p *Policy) Allowed(origin string) bool {
	if p == nil || len(p.allowed) == 0 || origin == "" {
		return true
	}
	_, ok := p.allowed[origin]
	return ok
}

// CheckWebsocketOrigin adapts Allowed to gorilla/websocket's
// Upgrader.CheckOrigin signature.
func (p *Policy) CheckWebsocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Sec-WebSocket-Origin")
	}
	return p.Allowed(origin)
}

// GinMiddleware rejects disallowed cross-origin requests and sets the
// CORS headers gin's router needs for allowed ones, mirroring the
// preflight handling a browser client depends on.
func (p *Policy) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = c.GetHeader("Sec-WebSocket-Origin")
		}

		if origin != "" && !p.Allowed(origin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}

		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
