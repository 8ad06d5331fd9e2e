package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecord_FullRecord(t *testing.T) {
	record := map[string]any{
		"imei":          "355468593059041",
		"accstatus":     float64(1),
		"acctime":       float64(7200),
		"externalpower": "12.6",
		"servertime":    float64(1756700000),
		"latitude":      -23.55,
		"longitude":     -46.63,
		"speed":         "8.5",
		"course":        float64(270),
	}

	s, err := normalizeRecord("fallback-imei", record)
	require.NoError(t, err)

	assert.Equal(t, "355468593059041", s.DeviceID)
	assert.Equal(t, int64(1756700000), s.ObservedAt)

	require.NotNil(t, s.EngineOn)
	assert.True(t, *s.EngineOn)

	require.NotNil(t, s.CumulativeRunSeconds)
	assert.InDelta(t, 7200.0, *s.CumulativeRunSeconds, 1e-9)

	require.NotNil(t, s.BatteryVoltage)
	assert.InDelta(t, 12.6, *s.BatteryVoltage, 1e-9)

	require.NotNil(t, s.Latitude)
	assert.InDelta(t, -23.55, *s.Latitude, 1e-9)
	require.NotNil(t, s.Longitude)
	assert.InDelta(t, -46.63, *s.Longitude, 1e-9)

	require.NotNil(t, s.SpeedKmh)
	assert.InDelta(t, 8.5, *s.SpeedKmh, 1e-9)
	require.NotNil(t, s.Course)
	assert.InDelta(t, 270.0, *s.Course, 1e-9)
}

func TestNormalizeRecord_AbsentFieldsStayNil(t *testing.T) {
	// Boolean-only device: no counter, no position.
	record := map[string]any{
		"imei":       "355468593059041",
		"accstatus":  "0",
		"servertime": float64(1756700000),
	}

	s, err := normalizeRecord("355468593059041", record)
	require.NoError(t, err)

	require.NotNil(t, s.EngineOn)
	assert.False(t, *s.EngineOn)
	assert.Nil(t, s.CumulativeRunSeconds, "absent counter must not default to zero")
	assert.Nil(t, s.BatteryVoltage)
	assert.Nil(t, s.Latitude)
	assert.Nil(t, s.Longitude)
}

func TestNormalizeRecord_NoEngineState(t *testing.T) {
	record := map[string]any{
		"imei":       "355468593059041",
		"servertime": float64(1756700000),
		"acctime":    "3600",
	}

	s, err := normalizeRecord("355468593059041", record)
	require.NoError(t, err)

	assert.Nil(t, s.EngineOn, "absent accstatus must stay unknown, not false")
	require.NotNil(t, s.CumulativeRunSeconds)
	assert.InDelta(t, 3600.0, *s.CumulativeRunSeconds, 1e-9)
}

func TestNormalizeRecord_AlternateFieldNames(t *testing.T) {
	record := map[string]any{
		"accstatus":  float64(1),
		"servertime": float64(1756700000),
		"lat":        "-23.55",
		"lng":        "-46.63",
		"gps_speed":  float64(12),
		"direction":  float64(90),
	}

	s, err := normalizeRecord("imei-x", record)
	require.NoError(t, err)

	assert.Equal(t, "imei-x", s.DeviceID)
	require.NotNil(t, s.Latitude)
	assert.InDelta(t, -23.55, *s.Latitude, 1e-9)
	require.NotNil(t, s.Longitude)
	require.NotNil(t, s.SpeedKmh)
	require.NotNil(t, s.Course)
}

func TestNormalizeRecord_DatetimeServertime(t *testing.T) {
	record := map[string]any{
		"accstatus":  float64(0),
		"servertime": "2026-08-31 12:00:00",
	}

	s, err := normalizeRecord("imei-x", record)
	require.NoError(t, err)
	assert.Equal(t, int64(1788177600), s.ObservedAt)
}

func TestNormalizeRecord_MissingTimestamp(t *testing.T) {
	record := map[string]any{
		"accstatus": float64(1),
	}

	_, err := normalizeRecord("imei-x", record)
	assert.Error(t, err)
}
