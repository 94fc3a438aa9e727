package pushsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// ErrSubscriptionGone is returned by a Sink when the gateway reports
// the subscription will never be deliverable again (HTTP 404/410).
// The caller must remove it from the Store on receiving this error.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Sink delivers a notification payload to a previously registered
// subscription. The production implementation talks to an external
// push gateway over HTTP; tests use a recording fake.
type Sink interface {
	Send(ctx context.Context, subscription json.RawMessage, payload any) error
	Enabled() bool
}

// NoopSink reports disabled and never sends anything. Used when no
// gateway URL is configured.
type NoopSink struct{}

func (NoopSink) Send(context.Context, json.RawMessage, any) error { return nil }
func (NoopSink) Enabled() bool                                    { return false }

// HTTPSink posts notifications to a push gateway reachable at a
// single configured URL. The subscription blob and the payload are
// both forwarded verbatim; the hub never inspects either.
type HTTPSink struct {
	url    string
	client *http.Client
	log    zerolog.Logger
}

// NewHTTPSink returns a Sink that POSTs to url. An empty url disables
// the sink (Enabled returns false, Send is a no-op).
func NewHTTPSink(url string, log zerolog.Logger) *HTTPSink {
	return &HTTPSink{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
		log:    log.With().Str("module", "push-sink").Logger(),
	}
}

func (h *HTTPSink) Enabled() bool {
	return h != nil && h.url != ""
}

type sinkRequest struct {
	Subscription json.RawMessage `json:"subscription"`
	Payload      any             `json:"payload"`
}

// Send forwards subscription and payload to the gateway. Any failure
// other than a 404/410 response is swallowed after logging, per the
// hub's rule that push delivery failures never affect the signaling
// state machine.
func (h *HTTPSink) Send(ctx context.Context, subscription json.RawMessage, payload any) error {
	if !h.Enabled() {
		return nil
	}
	body, err := json.Marshal(sinkRequest{Subscription: subscription, Payload: payload})
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to marshal push request")
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to build push request")
		return nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Warn().Err(err).Msg("push gateway request failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		h.log.Info().Int("status", resp.StatusCode).Msg("push subscription gone, removing")
		return ErrSubscriptionGone
	}
	if resp.StatusCode >= 300 {
		h.log.Warn().Int("status", resp.StatusCode).Msg("push gateway returned non-success status")
	}
	return nil
}
