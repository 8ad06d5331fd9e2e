package reconcile

// Mode identifies which accounting strategy last produced the accumulated
// hours, so the two methods are never silently mixed across provider
// capability changes.
type Mode string

const (
	// ModeUnset means no sample has ever been accounted for this asset.
	ModeUnset Mode = ""
	// ModeCounter means hours come from the provider's cumulative run counter.
	ModeCounter Mode = "counter"
	// ModeWallclock means hours are derived from gaps between samples while
	// the engine was running.
	ModeWallclock Mode = "wallclock"
)

// EngineState is the durable accounting record for one asset. It is owned by
// the engine-state store and mutated only through Apply.
type EngineState struct {
	// AccumulatedRunHours is the single source of truth for engine use.
	// It never decreases within a single accounting mode.
	AccumulatedRunHours float64

	// EngineOnSince is the unix timestamp of the last detected off→on edge.
	// Cleared on the next on→off edge; never set together with EngineOffSince.
	EngineOnSince *int64

	// EngineOffSince is the unix timestamp of the last detected on→off edge.
	EngineOffSince *int64

	// IgnitionCount increments exactly once per accepted off→on edge.
	IgnitionCount int

	// LastSampleObservedAt is the timestamp of the most recently applied
	// sample, used to reject stale, duplicate and out-of-order samples.
	LastSampleObservedAt int64

	// LastEngineOn is the engine state from the last accepted sample.
	LastEngineOn bool

	// HasSample is false only before the first sample is ever applied, when
	// the prior engine state is unknown.
	HasSample bool

	// Mode pins the accounting strategy that produced AccumulatedRunHours.
	Mode Mode

	// Degraded is true when the most recent refresh could not reach the
	// provider. The rest of the state is preserved while degraded.
	Degraded bool
}

// Running reports whether the asset was running as of the last applied sample.
func (s EngineState) Running() bool {
	return s.HasSample && s.LastEngineOn
}

// IdleHours returns the time since the engine's last stop, in hours. It is
// derived, never accumulated: zero while running (or before any stop has been
// observed), and it resets on every restart.
func (s EngineState) IdleHours(now int64) float64 {
	if s.Running() || s.EngineOffSince == nil {
		return 0
	}
	idle := float64(now-*s.EngineOffSince) / 3600
	if idle < 0 {
		return 0
	}
	return idle
}
