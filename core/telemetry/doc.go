// Package telemetry wraps the external tracking provider and normalizes its
// payloads into canonical samples.
//
// # Responsibilities
//
//   - Authentication: time-signed credential exchange for a short-lived access
//     token, cached per client instance with an expiry safety margin and
//     refreshed transparently on expiry or explicit rejection.
//   - Single-device track lookup with a bounded timeout and no retries; the
//     caller re-polls on the next client-triggered refresh.
//   - Normalization: provider field names, units and loose typing are mapped
//     onto the Sample type. Optional fields that the provider omitted stay nil
//     instead of defaulting to zero.
//
// # Failure Mapping
//
// Every failure is returned as a *ProviderError (unavailable or malformed),
// never as a zero-valued Sample, so callers can mark the asset degraded
// rather than record false data. Malformed payloads are handed to the
// configured RawSink for later diagnosis.
//
// The provider-specific response shape never leaks past this package.
package telemetry
