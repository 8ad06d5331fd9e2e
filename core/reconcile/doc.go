// Package reconcile implements the engine-state accounting engine.
//
// It converts a sequence of irregular, client-triggered telemetry samples into
// a monotonically increasing account of engine run hours, idle duration and
// ignition count per asset.
//
// # Accounting Strategies
//
// Two mutually exclusive strategies exist, pinned per asset via the Mode
// field so a provider capability change is logged rather than silently mixed:
//
//   - Counter: the provider device accumulates run seconds itself; the
//     reported counter overwrites the stored hours. Regressions beyond a
//     small jitter tolerance indicate a device reset and are surfaced as
//     anomalies instead of being applied.
//   - Wallclock: only a boolean ignition state is available; the gap between
//     consecutive samples is credited while the engine stayed on, capped at a
//     plausible maximum so outages are not credited as run time.
//
// # Contract
//
// Apply is a pure function over (state, sample): it never performs I/O and
// never blocks. Staleness (observed_at not newer than the last applied
// sample) makes it an idempotent no-op, so concurrent refreshes that race on
// the same sample cannot double-count. Persistence and locking are the
// caller's concern.
package reconcile
