package telemetry

import (
	"fmt"
	"time"

	"fleet-monitor/core/utils"
)

// timeLayout is the fallback datetime format some provider deployments use
// for servertime instead of a unix timestamp.
const timeLayout = "2006-01-02 15:04:05"

// normalizeRecord maps the provider's loose-typed track record onto the
// canonical Sample. Absent optional fields stay nil rather than defaulting to
// zero, so the reconciler can tell "not reported" from "reported as zero".
func normalizeRecord(deviceID string, record map[string]any) (*Sample, error) {
	s := &Sample{DeviceID: deviceID, Raw: record}

	if imei := utils.ToString(record["imei"]); imei != "" && imei != "<nil>" {
		s.DeviceID = imei
	}

	s.ObservedAt = observedAt(record)
	if s.ObservedAt <= 0 {
		return nil, fmt.Errorf("track record has no usable servertime")
	}

	if v, ok := record["accstatus"]; ok && v != nil {
		b := utils.ToBool(v)
		s.EngineOn = &b
	}

	if v, ok := record["acctime"]; ok && v != nil {
		if f, okF := utils.ToFloat64(v); okF {
			s.CumulativeRunSeconds = &f
		}
	}

	s.BatteryVoltage = optFloat(record, "externalpower", "voltage")
	s.Latitude = optFloat(record, "latitude", "lat")
	s.Longitude = optFloat(record, "longitude", "lng", "lon")
	s.SpeedKmh = optFloat(record, "speed", "gps_speed")
	s.Course = optFloat(record, "course", "direction")

	return s, nil
}

// observedAt extracts the reading timestamp, preferring servertime and
// accepting either a unix epoch or a formatted datetime.
func observedAt(record map[string]any) int64 {
	for _, key := range []string{"servertime", "gpstime", "hearttime"} {
		v, ok := record[key]
		if !ok || v == nil {
			continue
		}
		if ts := utils.ToInt64(v); ts > 0 {
			return ts
		}
		if parsed, err := time.Parse(timeLayout, utils.ToString(v)); err == nil {
			return parsed.Unix()
		}
	}
	return 0
}

// optFloat returns the first present, parseable field among keys, or nil.
func optFloat(record map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := record[key]
		if !ok || v == nil {
			continue
		}
		if f, okF := utils.ToFloat64(v); okF {
			return &f
		}
	}
	return nil
}
