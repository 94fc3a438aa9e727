package originpolicy

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowedEmptyListAllowsEverything(t *testing.T) {
	p := New(nil)
	if !p.Allowed("https://anywhere.example") {
		t.Fatal("expected empty allow-list to permit any origin")
	}
}

func TestAllowedEmptyOriginAlwaysPasses(t *testing.T) {
	p := New([]string{"https://app.example"})
	if !p.Allowed("") {
		t.Fatal("expected empty origin to always be allowed")
	}
}

func TestAllowedRejectsUnlisted(t *testing.T) {
	p := New([]string{"https://app.example"})
	if p.Allowed("https://evil.example") {
		t.Fatal("expected unlisted origin to be rejected")
	}
	if !p.Allowed("https://app.example") {
		t.Fatal("expected listed origin to be allowed")
	}
}

func TestCheckWebsocketOriginFallsBackToSecWebSocketOrigin(t *testing.T) {
	p := New([]string{"https://app.example"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Sec-WebSocket-Origin", "https://app.example")
	if !p.CheckWebsocketOrigin(req) {
		t.Fatal("expected Sec-WebSocket-Origin to be honored")
	}
}
