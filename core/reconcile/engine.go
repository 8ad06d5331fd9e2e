package reconcile

import (
	"fleet-monitor/core/telemetry"
)

// Outcome is the result of applying one sample to an asset's engine state.
type Outcome struct {
	// State is the updated engine state. When Stale is true it is the prior
	// state, unchanged.
	State EngineState

	// Stale is true when the sample was already applied (observed_at not
	// newer than the last applied sample). Applying it is a no-op.
	Stale bool

	// Ignition is true when this sample produced an off→on edge.
	Ignition bool

	// ModeSwitch is true when the accounting strategy changed because the
	// provider started or stopped reporting its cumulative counter. Callers
	// log it; the values are never silently reconciled.
	ModeSwitch bool

	// Anomaly is set when the sample's accounting effect was rejected or
	// capped. Non-accounting fields are still applied.
	Anomaly *Anomaly
}

// Apply folds one normalized sample into the engine state. It is a pure
// function: callers persist the returned state atomically.
//
// The accounting strategy is chosen by provider capability. When the sample
// carries the provider's cumulative run counter the counter is authoritative
// (immune to poll-rate irregularity and outages); otherwise run time is
// credited from the wall-clock gap since the previous sample, capped at a
// plausible maximum, and only while the engine stayed on across the gap.
func Apply(prev EngineState, sample *telemetry.Sample, cfg Config) Outcome {
	cfg = cfg.withDefaults()
	out := Outcome{State: prev}

	// Staleness guard: identical or older samples are idempotent no-ops.
	if prev.HasSample && sample.ObservedAt <= prev.LastSampleObservedAt {
		out.Stale = true
		return out
	}

	st := prev

	if sample.CumulativeRunSeconds != nil {
		applyCounter(&st, &out, sample, cfg)
	} else {
		applyWallclock(&st, &out, sample, cfg)
	}

	applyEdges(&st, &out, sample)

	st.LastSampleObservedAt = sample.ObservedAt
	st.HasSample = true
	st.Degraded = false

	out.State = st
	return out
}

func applyCounter(st *EngineState, out *Outcome, sample *telemetry.Sample, cfg Config) {
	hours := *sample.CumulativeRunSeconds / 3600

	if st.Mode == ModeWallclock {
		// Provider capability changed; adopt the counter as the new baseline.
		out.ModeSwitch = true
		st.Mode = ModeCounter
		st.AccumulatedRunHours = hours
		return
	}
	st.Mode = ModeCounter

	switch {
	case hours >= st.AccumulatedRunHours:
		st.AccumulatedRunHours = hours
	case st.AccumulatedRunHours-hours <= cfg.CounterToleranceSeconds/3600:
		// Clock jitter; keep the prior value so hours stay monotonic.
	default:
		// Genuine regression means a device reset. Surface it, keep the
		// prior value.
		out.Anomaly = &Anomaly{
			Kind:        AnomalyCounterRegression,
			PriorHours:  st.AccumulatedRunHours,
			SampleHours: hours,
		}
	}
}

func applyWallclock(st *EngineState, out *Outcome, sample *telemetry.Sample, cfg Config) {
	if st.Mode == ModeCounter {
		out.ModeSwitch = true
	}
	st.Mode = ModeWallclock

	// Credit the gap only when the engine was on at the previous sample and
	// is still on now; a stop somewhere in the gap ends the credited run at
	// the edge, matching how the panel reads "hours of engine use".
	if !st.Running() || sample.EngineOn == nil || !*sample.EngineOn {
		return
	}

	gap := float64(sample.ObservedAt-st.LastSampleObservedAt) / 3600
	if gap <= 0 {
		return
	}
	if gap > cfg.MaxWallclockGapHours {
		out.Anomaly = &Anomaly{
			Kind:        AnomalyImplausibleGap,
			PriorHours:  st.AccumulatedRunHours,
			SampleHours: gap,
		}
		gap = cfg.MaxWallclockGapHours
	}

	st.AccumulatedRunHours += gap
}

func applyEdges(st *EngineState, out *Outcome, sample *telemetry.Sample) {
	if sample.EngineOn == nil {
		// State not reported; keep the last known state and edge timestamps.
		return
	}

	on := *sample.EngineOn
	// An unknown prior state counts as off, so the first powered sample for
	// an asset registers as an ignition.
	prevOn := st.Running()

	switch {
	case on && !prevOn:
		st.IgnitionCount++
		out.Ignition = true
		ts := sample.ObservedAt
		st.EngineOnSince = &ts
		st.EngineOffSince = nil
	case !on && prevOn:
		ts := sample.ObservedAt
		st.EngineOnSince = nil
		st.EngineOffSince = &ts
	}

	st.LastEngineOn = on
}
