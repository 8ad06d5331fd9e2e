// Package utils provides common utility functions for the fleet-monitor application.
// It includes loose-typed conversion helpers used when decoding telemetry provider
// payloads, where numeric fields arrive interchangeably as JSON numbers and strings.
package utils
