package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/duskline/voicehub/internal/voicestats"
)

func TestUpdateSetsGaugeValues(t *testing.T) {
	m := New()
	m.Update(voicestats.Stats{
		ActiveCalls:            3,
		PeerLinksEstimate:      5,
		RelayPortsUsedEstimate: 10,
	}, 7)

	if got := testutil.ToFloat64(m.sessionsNamed); got != 7 {
		t.Errorf("sessionsNamed = %v, want 7", got)
	}
	if got := testutil.ToFloat64(m.activeCalls); got != 3 {
		t.Errorf("activeCalls = %v, want 3", got)
	}
	if got := testutil.ToFloat64(m.peerLinks); got != 5 {
		t.Errorf("peerLinks = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.relayPortsUsed); got != 10 {
		t.Errorf("relayPortsUsed = %v, want 10", got)
	}
}

func TestUpdateZeroesSessionsNamedWhenEmpty(t *testing.T) {
	m := New()
	m.Update(voicestats.Stats{}, 0)
	if got := testutil.ToFloat64(m.sessionsNamed); got != 0 {
		t.Errorf("sessionsNamed = %v, want 0", got)
	}
}
