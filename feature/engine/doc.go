// Package engine exposes the per-asset engine state over HTTP and owns its
// persistence.
//
// A refresh request resolves the asset to its tracker device, fetches one
// telemetry sample from the provider (outside any lock), folds it into the
// stored state through the core/reconcile engine and persists the result with
// optimistic compare-and-swap. Concurrent refreshes for the same asset cannot
// double-count: a lost write race is retried once from a fresh load, and a
// stale sample is an idempotent no-op.
//
// The package also owns the calibration ledger: a manual, admin-set offset
// added to the accumulated hours only when composing the response view.
package engine
