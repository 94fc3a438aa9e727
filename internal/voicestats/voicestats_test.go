package voicestats

import "testing"

func TestComputeNoRooms(t *testing.T) {
	s := Compute("", nil, nil)
	if s.ActiveCalls != 0 || s.PeerLinksEstimate != 0 || s.RelayPortsUsedEstimate != 0 {
		t.Fatalf("expected all zero, got %+v", s)
	}
	if s.RelayPortsTotal != nil || s.CapacityCallsEstimate != nil || s.MaxConferenceUsersEstimate != nil {
		t.Fatal("expected unknown-total fields to stay nil")
	}
}

func TestComputeActiveCallsOnlyCountsTwoPlus(t *testing.T) {
	s := Compute("", nil, []int{1, 2, 3})
	if s.ActiveCalls != 2 {
		t.Fatalf("expected 2 active calls (sizes 2 and 3), got %d", s.ActiveCalls)
	}
}

func TestComputePeerLinksEstimate(t *testing.T) {
	// room of size 3: 3*2/2=3 links; room of size 4: 4*3/2=6 links
	s := Compute("", nil, []int{3, 4})
	if s.PeerLinksEstimate != 9 {
		t.Fatalf("expected 9 peer links, got %d", s.PeerLinksEstimate)
	}
	if s.RelayPortsUsedEstimate != 18 {
		t.Fatalf("expected relayPortsUsedEstimate=2*9=18, got %d", s.RelayPortsUsedEstimate)
	}
}

func TestComputeRelayPortsUsedCappedAtTotal(t *testing.T) {
	total := 10
	s := Compute("", &total, []int{3, 4}) // 9 peer links -> 18 used, capped to 10
	if s.RelayPortsUsedEstimate != 10 {
		t.Fatalf("expected capped at total=10, got %d", s.RelayPortsUsedEstimate)
	}
}

func TestComputeCapacityAndMaxConferenceUsers(t *testing.T) {
	total := 100
	s := Compute("turn.example.com:3478", &total, nil)
	if s.CapacityCallsEstimate == nil || *s.CapacityCallsEstimate != 50 {
		t.Fatalf("expected capacityCallsEstimate=50, got %v", s.CapacityCallsEstimate)
	}
	// largest k with k*(k-1)/2 <= 50: k=10 -> 45 <= 50; k=11 -> 55 > 50
	if s.MaxConferenceUsersEstimate == nil || *s.MaxConferenceUsersEstimate != 10 {
		t.Fatalf("expected maxConferenceUsersEstimate=10, got %v", s.MaxConferenceUsersEstimate)
	}
}

func TestMaxConferenceUsersBoundaryValues(t *testing.T) {
	cases := []struct {
		capacity int
		want     int
	}{
		{0, 0},
		{1, 2},  // 2*1/2=1<=1
		{2, 2},  // 3*2/2=3>2, 2*1/2=1<=2
		{3, 3},  // 3*2/2=3<=3
		{45, 10},
		{55, 11},
	}
	for _, c := range cases {
		got := maxConferenceUsers(c.capacity)
		if got != c.want {
			t.Errorf("maxConferenceUsers(%d) = %d, want %d", c.capacity, got, c.want)
		}
	}
}
