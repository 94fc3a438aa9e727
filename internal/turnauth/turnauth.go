// Package turnauth derives short-lived TURN credentials from a shared
// secret, the same HMAC-SHA1-over-expiry scheme used for WebRTC relay
// authentication generally: the username embeds its own expiry, and
// the password is an HMAC of that username, so a TURN server holding
// the same secret can verify a credential without a database lookup.
package turnauth

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config is the static TURN configuration read once at startup.
type Config struct {
	URLs        []string
	Secret      string
	UsernameTTL time.Duration
	RelayMinPort int
	RelayMaxPort int
}

// STUNServer is the always-present public STUN entry in IceConfig.
const STUNServer = "stun:stun.l.google.com:19302"

// turnWarning is the fixed advisory string sent to a client whose
// address is not loopback while the configured TURN URLs are.
const turnWarning = "TURN server is configured for loopback only; relay connectivity from remote clients will fail"

// IceServer mirrors the subset of RTCIceServer fields a browser's
// RTCPeerConnection constructor accepts.
type IceServer struct {
	URLs       []string `json:"urls"`
	Username   string   `json:"username,omitempty"`
	Credential string   `json:"credential,omitempty"`
}

// IceConfig is the full ICE server list handed to a client in hello
// and from GET /turn.
type IceConfig struct {
	IceServers []IceServer `json:"iceServers"`
}

// Derive builds an IceConfig for cfg, always including the public STUN
// server and, when a secret is configured, a time-limited TURN entry.
func Derive(cfg Config, now time.Time) IceConfig {
	servers := []IceServer{{URLs: []string{STUNServer}}}

	if cfg.Secret != "" && len(cfg.URLs) > 0 {
		expiry := now.Add(ttlOrDefault(cfg.UsernameTTL)).Unix()
		username := strconv.FormatInt(expiry, 10)
		credential := sign(cfg.Secret, username)
		servers = append(servers, IceServer{
			URLs:       cfg.URLs,
			Username:   username,
			Credential: credential,
		})
	}

	return IceConfig{IceServers: servers}
}

func ttlOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}

func sign(secret, username string) string {
	h := hmac.New(sha1.New, []byte(secret))
	h.Write([]byte(username))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// RelayPortsTotal returns the configured relay port range size, and
// false if no range is configured.
func (c Config) RelayPortsTotal() (int, bool) {
	if c.RelayMinPort <= 0 || c.RelayMaxPort <= 0 || c.RelayMaxPort < c.RelayMinPort {
		return 0, false
	}
	return c.RelayMaxPort - c.RelayMinPort + 1, true
}

// TurnHost returns host:port of the first configured TURN URL, if
// any.
func (c Config) TurnHost() (string, bool) {
	if len(c.URLs) == 0 {
		return "", false
	}
	u, err := url.Parse(normalizeSchemeForParsing(c.URLs[0]))
	if err != nil || u.Host == "" {
		return "", false
	}
	return u.Host, true
}

// normalizeSchemeForParsing rewrites turn:host:port (and turns:) into
// the authority form turn://host:port. Without the "//", net/url
// treats everything after the scheme as an opaque part and leaves
// Host empty.
func normalizeSchemeForParsing(raw string) string {
	if strings.HasPrefix(raw, "turn:") && !strings.HasPrefix(raw, "turn://") {
		return "turn://" + strings.TrimPrefix(raw, "turn:")
	}
	if strings.HasPrefix(raw, "turns:") && !strings.HasPrefix(raw, "turns://") {
		return "turns://" + strings.TrimPrefix(raw, "turns:")
	}
	return raw
}

// Warning returns the fixed loopback advisory if cfg's TURN URLs are
// all loopback addresses but clientIP is not, and "" otherwise.
func Warning(cfg Config, clientIP string) string {
	if len(cfg.URLs) == 0 {
		return ""
	}
	if !allLoopback(cfg.URLs) {
		return ""
	}
	if isLoopbackHost(clientIP) {
		return ""
	}
	return turnWarning
}

func allLoopback(rawURLs []string) bool {
	for _, raw := range rawURLs {
		u, err := url.Parse(normalizeSchemeForParsing(raw))
		if err != nil {
			return false
		}
		host := u.Hostname()
		if !isLoopbackHost(host) {
			return false
		}
	}
	return true
}

func isLoopbackHost(host string) bool {
	if host == "" {
		return false
	}
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
