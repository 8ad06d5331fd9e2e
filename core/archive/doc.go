// Package archive preserves raw telemetry payloads on object storage.
//
// When the provider returns a payload the normalizer cannot make sense of,
// the raw record is written to an S3/MinIO bucket under a per-device prefix
// so the shape can be inspected later. The archive is optional (disabled when
// no endpoint is configured) and strictly best-effort: a failed write is
// logged and the refresh request proceeds.
package archive
