package wlancrypto

// The Michael-failure controller is a pure function: given the current
// CountermeasuresState and a newly observed MIC failure, it returns the
// next state and the action(s) the caller (Manager) must execute against
// the station-management collaborator. No I/O happens here, mirroring the
// FSM-as-pure-function shape used for session state transitions elsewhere
// in this codebase — it keeps the 60-second window logic testable with a
// FakeClock and no goroutines.
//
//	(no failure) --failure--> window armed --failure within window--> countermeasures engaged
//	                            |      ^
//	                            +------+
//	            failure at or after the window end (>=60s) re-arms
//
// Once engaged, Active stays set: EvaluateMICFailure ignores every later
// failure and nothing in this package clears it.
//
// IEEE 802.11-2007 Section 8.3.2.4.

// MICFailureActionKind enumerates what the Manager must do in response to
// a MIC failure, as decided by EvaluateMICFailure.
type MICFailureActionKind int

const (
	// MICFailureActionNone means countermeasures were already active; do
	// nothing (do not even log, per spec section 4.4 step 1).
	MICFailureActionNone MICFailureActionKind = iota
	// MICFailureActionArm means this is the first failure in a fresh
	// window; only bookkeeping changed, no station-management action.
	MICFailureActionArm
	// MICFailureActionEngageAP means a second failure arrived within the
	// window while operating as an access point: deauthenticate every
	// TKIP station. The Manager does not gate associations itself; the
	// now-set Active flag is what records that countermeasures are on.
	MICFailureActionEngageAP
	// MICFailureActionEngageStation means a second failure arrived within
	// the window while operating as a station: report both failures to
	// the AP, deauthenticate, and rescan.
	MICFailureActionEngageStation
)

func (k MICFailureActionKind) String() string {
	switch k {
	case MICFailureActionNone:
		return "none"
	case MICFailureActionArm:
		return "arm"
	case MICFailureActionEngageAP:
		return "engage-ap"
	case MICFailureActionEngageStation:
		return "engage-station"
	default:
		return "unknown"
	}
}

// MICFailureAction is the caller-executable result of one controller
// evaluation. PreviousTSC/CurrentTSC are only meaningful for
// MICFailureActionEngageStation, which must report both failed packet
// numbers back-to-back (spec section 4.4 step 3).
type MICFailureAction struct {
	Kind        MICFailureActionKind
	PreviousTSC uint64
	CurrentTSC  uint64
}

// OperatingMode selects which branch of step 3 applies.
type OperatingMode int

const (
	OperatingModeStation OperatingMode = iota
	OperatingModeAP
)

// DefaultCountermeasuresWindowSeconds is the window mandated by the
// standard; internal/config may override it for test environments.
const DefaultCountermeasuresWindowSeconds = 60

// EvaluateMICFailure advances a CountermeasuresState in response to an
// observed Michael MIC failure with packet number tsc, observed at
// nowTicks on a clock ticking at tps ticks per second. windowSeconds is
// normally DefaultCountermeasuresWindowSeconds.
//
// The tick-delta comparison is a signed subtraction so it tolerates
// monotonic counter wraparound, matching the reference controller's
// `ticks - (prev + window*hz) >= 0` test: exactly `windowSeconds` later
// counts as "old enough", not "still within the window" (spec section 9
// open question — preserved as-is from the reference).
func EvaluateMICFailure(state CountermeasuresState, mode OperatingMode, tsc uint64, nowTicks, tps, windowSeconds int64) (CountermeasuresState, MICFailureAction) {
	if state.Active {
		return state, MICFailureAction{Kind: MICFailureActionNone}
	}

	windowTicks := windowSeconds * tps
	expired := !state.HasLastFailure || nowTicks-(state.LastFailureTick+windowTicks) >= 0

	if expired {
		next := CountermeasuresState{
			HasLastFailure:  true,
			LastFailureTick: nowTicks,
			LastFailedTSC:   tsc,
			Active:          false,
		}
		return next, MICFailureAction{Kind: MICFailureActionArm}
	}

	prevTSC := state.LastFailedTSC
	next := CountermeasuresState{
		Active:          true,
		HasLastFailure:  true,
		LastFailureTick: nowTicks,
		LastFailedTSC:   tsc,
	}

	if mode == OperatingModeAP {
		return next, MICFailureAction{Kind: MICFailureActionEngageAP}
	}
	return next, MICFailureAction{Kind: MICFailureActionEngageStation, PreviousTSC: prevTSC, CurrentTSC: tsc}
}
