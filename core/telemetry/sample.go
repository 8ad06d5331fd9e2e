package telemetry

// Sample is one normalized telemetry reading for a device at a point in time.
//
// Optional fields are pointers: nil means the provider did not report the
// field, which the reconciler treats differently from a reported zero. In
// particular CumulativeRunSeconds selects the accounting strategy: when the
// device accumulates run time itself the counter is authoritative, otherwise
// run time is derived from wall-clock gaps between samples.
type Sample struct {
	// DeviceID is the tracker identifier (IMEI).
	DeviceID string

	// ObservedAt is the provider-reported unix timestamp of the reading.
	// It is the authoritative "now" for this sample.
	ObservedAt int64

	// EngineOn is the ignition/accessory state. nil when the provider did not
	// include the field in this reading.
	EngineOn *bool

	// CumulativeRunSeconds is the provider-side monotonic engine run counter,
	// present only for devices that report it.
	CumulativeRunSeconds *float64

	// Passthrough telemetry, not used by the accounting logic.
	BatteryVoltage *float64
	Latitude       *float64
	Longitude      *float64
	SpeedKmh       *float64
	Course         *float64

	// Raw is the provider record as received, kept for diagnostics.
	Raw map[string]any
}
