// Package httpapi wires the hub's auxiliary HTTP surface: the
// WebSocket upgrade route, the TURN credential and push-key endpoints,
// static asset serving, and the Prometheus scrape endpoint, all behind
// the shared origin policy.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duskline/voicehub/internal/config"
	"github.com/duskline/voicehub/internal/hub"
	"github.com/duskline/voicehub/internal/metrics"
	"github.com/duskline/voicehub/internal/originpolicy"
	"github.com/duskline/voicehub/internal/turnauth"
)

// NewRouter builds the gin engine serving every auxiliary endpoint the
// specification names, plus the WebSocket upgrade route and a metrics
// scrape endpoint.
func NewRouter(cfg *config.Config, h *hub.Hub, m *metrics.Metrics, policy *originpolicy.Policy) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(policy.GinMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	r.GET("/turn", func(c *gin.Context) {
		turnCfg := turnauth.Config{
			URLs:         cfg.TurnURLs,
			Secret:       cfg.TurnSecret,
			UsernameTTL:  cfg.TurnUsernameTTL,
			RelayMinPort: cfg.TurnRelayMinPort,
			RelayMaxPort: cfg.TurnRelayMaxPort,
		}
		c.JSON(http.StatusOK, turnauth.Derive(turnCfg, time.Now()))
	})

	r.GET("/api/push/public-key", func(c *gin.Context) {
		if !cfg.VapidEnabled() {
			c.JSON(http.StatusOK, gin.H{"enabled": false, "publicKey": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"enabled": true, "publicKey": cfg.VapidPublicKey})
	})

	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	r.GET("/ws", func(c *gin.Context) {
		h.ServeWS(c.Writer, c.Request)
	})

	if cfg.PublicDir != "" {
		r.NoRoute(func(c *gin.Context) {
			c.File(cfg.PublicDir + "/index.html")
		})
		r.Static("/static", cfg.PublicDir)
	}

	return r
}
