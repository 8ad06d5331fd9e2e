// Package consumption records daily fuel-consumption closings.
//
// A closing writes one snapshot row per active asset: the displayed engine
// hours (accumulated + calibration offset) and the fuel burn derived from the
// asset's liters-per-hour rate. Closings are idempotent per (asset, day) and
// are triggered externally, by the admin endpoint or the snapshot CLI
// command. There is no owned scheduler.
package consumption
