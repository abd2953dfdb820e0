package wlancrypto

import "testing"

func TestEvaluateMICFailureFirstFailureArms(t *testing.T) {
	var state CountermeasuresState
	next, action := EvaluateMICFailure(state, OperatingModeAP, 42, 1000, 1000, 60)
	if action.Kind != MICFailureActionArm {
		t.Fatalf("action = %v, want Arm", action.Kind)
	}
	if !next.HasLastFailure || next.Active {
		t.Fatalf("next state = %+v, want HasLastFailure=true Active=false", next)
	}
	if next.LastFailedTSC != 42 || next.LastFailureTick != 1000 {
		t.Fatalf("next state did not record the observation: %+v", next)
	}
}

func TestEvaluateMICFailureSecondWithinWindowEngagesByMode(t *testing.T) {
	first, _ := EvaluateMICFailure(CountermeasuresState{}, OperatingModeAP, 1, 0, 1000, 60)

	ap, action := EvaluateMICFailure(first, OperatingModeAP, 2, 30_000, 1000, 60) // 30s later
	if action.Kind != MICFailureActionEngageAP {
		t.Fatalf("AP mode action = %v, want EngageAP", action.Kind)
	}
	if !ap.Active {
		t.Fatal("AP countermeasures state should be Active after engaging")
	}

	sta, action2 := EvaluateMICFailure(first, OperatingModeStation, 2, 30_000, 1000, 60)
	if action2.Kind != MICFailureActionEngageStation {
		t.Fatalf("station mode action = %v, want EngageStation", action2.Kind)
	}
	if action2.PreviousTSC != 1 || action2.CurrentTSC != 2 {
		t.Fatalf("station action TSCs = %d/%d, want 1/2", action2.PreviousTSC, action2.CurrentTSC)
	}
	if !sta.Active {
		t.Fatal("station countermeasures state should be Active after engaging")
	}
}

func TestEvaluateMICFailureWindowExpiryResetsInsteadOfEngaging(t *testing.T) {
	first, _ := EvaluateMICFailure(CountermeasuresState{}, OperatingModeAP, 1, 0, 1000, 60)

	// Exactly 90s later: well past the 60s window, must re-arm, not engage.
	second, action := EvaluateMICFailure(first, OperatingModeAP, 2, 90_000, 1000, 60)
	if action.Kind != MICFailureActionArm {
		t.Fatalf("action after 90s gap = %v, want Arm", action.Kind)
	}
	if second.Active {
		t.Fatal("countermeasures must not engage after the window has expired")
	}
}

func TestEvaluateMICFailureExactlyAtWindowBoundaryExpires(t *testing.T) {
	// The reference's `>=` comparison treats a failure landing exactly on
	// the 60-second mark as "window expired" (spec section 9 open
	// question, preserved as-is).
	first, _ := EvaluateMICFailure(CountermeasuresState{}, OperatingModeAP, 1, 0, 1000, 60)
	_, action := EvaluateMICFailure(first, OperatingModeAP, 2, 60_000, 1000, 60)
	if action.Kind != MICFailureActionArm {
		t.Fatalf("action exactly at the 60s boundary = %v, want Arm", action.Kind)
	}
}

func TestEvaluateMICFailureWhileActiveIsANoOp(t *testing.T) {
	active := CountermeasuresState{Active: true, HasLastFailure: true, LastFailureTick: 0, LastFailedTSC: 1}
	next, action := EvaluateMICFailure(active, OperatingModeAP, 99, 10, 1000, 60)
	if action.Kind != MICFailureActionNone {
		t.Fatalf("action while already active = %v, want None", action.Kind)
	}
	if next != active {
		t.Fatal("state must not change while countermeasures are already active")
	}
}

func TestFakeClockAdvanceAndSet(t *testing.T) {
	c := NewFakeClock(1000)
	if c.Ticks() != 0 {
		t.Fatalf("fresh FakeClock.Ticks() = %d, want 0", c.Ticks())
	}
	c.Advance(30)
	if c.Ticks() != 30_000 {
		t.Fatalf("after Advance(30) Ticks() = %d, want 30000", c.Ticks())
	}
	c.Set(5)
	if c.Ticks() != 5 {
		t.Fatalf("after Set(5) Ticks() = %d, want 5", c.Ticks())
	}
	if c.TicksPerSecond() != 1000 {
		t.Fatalf("TicksPerSecond() = %d, want 1000", c.TicksPerSecond())
	}
}
