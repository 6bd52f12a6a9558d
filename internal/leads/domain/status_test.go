package domain

import "testing"

const (
	fmtExpectedAllowed = "expected %s -> %s to be allowed"
	fmtExpectedBlocked = "expected %s -> %s to be blocked"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusPending, StatusProcessing},
		{StatusPending, StatusRejected},
		{StatusPending, StatusDuplicate},
		{StatusProcessing, StatusAuctioned},
		{StatusProcessing, StatusSold},
		{StatusProcessing, StatusRejected},
		{StatusProcessing, StatusExpired},
		{StatusProcessing, StatusDeliveryFailed},
		{StatusAuctioned, StatusSold},
		{StatusAuctioned, StatusDeliveryFailed},
		{StatusAuctioned, StatusExpired},
		{StatusSold, StatusScrubbed},
		{StatusRejected, StatusProcessing},
		{StatusExpired, StatusProcessing},
		{StatusDeliveryFailed, StatusProcessing},
	}
	for _, tc := range allowed {
		if !CanTransitionStatus(tc.from, tc.to) {
			t.Errorf(fmtExpectedAllowed, tc.from, tc.to)
		}
	}

	blocked := []struct {
		from, to Status
	}{
		{StatusPending, StatusSold},
		{StatusPending, StatusAuctioned},
		{StatusSold, StatusProcessing},
		{StatusSold, StatusRejected},
		{StatusScrubbed, StatusProcessing},
		{StatusDuplicate, StatusProcessing},
		{StatusAuctioned, StatusProcessing},
		{StatusRejected, StatusSold},
	}
	for _, tc := range blocked {
		if CanTransitionStatus(tc.from, tc.to) {
			t.Errorf(fmtExpectedBlocked, tc.from, tc.to)
		}
	}
}

func TestStatusSelfTransitionsRejected(t *testing.T) {
	for s := range statusTransitions {
		if CanTransitionStatus(s, s) {
			t.Errorf(fmtExpectedBlocked, s, s)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	terminal := map[Status]bool{
		StatusScrubbed:  true,
		StatusDuplicate: true,
	}
	for s := range statusTransitions {
		if got := IsTerminalStatus(s); got != terminal[s] {
			t.Errorf("IsTerminalStatus(%s) = %v, want %v", s, got, terminal[s])
		}
	}
	if IsTerminalStatus(Status("BOGUS")) {
		t.Error("unknown status must not be terminal")
	}
}

func TestKnownStatus(t *testing.T) {
	if !KnownStatus(StatusPending) {
		t.Error("PENDING should be known")
	}
	if KnownStatus(Status("pending")) {
		t.Error("status matching is case-sensitive")
	}
	if KnownStatus(Status("")) {
		t.Error("empty status should be unknown")
	}
}

func TestAllowedStatusTargetsIsACopy(t *testing.T) {
	targets := AllowedStatusTargets(StatusPending)
	if len(targets) == 0 {
		t.Fatal("expected targets for PENDING")
	}
	targets[0] = Status("MUTATED")
	if !CanTransitionStatus(StatusPending, StatusProcessing) {
		t.Error("mutating the returned slice must not affect the graph")
	}
}

func TestSourceRequiresReason(t *testing.T) {
	if !SourceAdmin.RequiresReason() {
		t.Error("admin transitions must carry a reason")
	}
	if SourceSystem.RequiresReason() {
		t.Error("system transitions must not require a reason")
	}
	if SourceWebhook.RequiresReason() {
		t.Error("webhook transitions must not require a reason")
	}
}

func TestKnownSource(t *testing.T) {
	for _, s := range []ChangeSource{SourceSystem, SourceAdmin, SourceWebhook} {
		if !KnownSource(s) {
			t.Errorf("expected %s to be a known source", s)
		}
	}
	if KnownSource(ChangeSource("CRON")) {
		t.Error("unexpected source accepted")
	}
}
