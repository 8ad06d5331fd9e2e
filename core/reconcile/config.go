package reconcile

// Config holds the tunables for the accounting engine.
type Config struct {
	// CounterToleranceSeconds is the maximum provider-counter regression
	// absorbed as clock jitter. A larger decrease indicates a device reset
	// and is surfaced as an anomaly instead of being applied.
	CounterToleranceSeconds float64 `mapstructure:"counter_tolerance_seconds" default:"120"`

	// MaxWallclockGapHours caps the run time credited for a single gap
	// between samples in wall-clock mode, so a multi-day outage is not
	// credited as continuous running when the device reconnects mid-run.
	MaxWallclockGapHours float64 `mapstructure:"max_wallclock_gap_hours" default:"4"`
}

// withDefaults fills zero values so a zero Config behaves sensibly.
func (c Config) withDefaults() Config {
	if c.CounterToleranceSeconds <= 0 {
		c.CounterToleranceSeconds = 120
	}
	if c.MaxWallclockGapHours <= 0 {
		c.MaxWallclockGapHours = 4
	}
	return c
}
