package reconcile

import "fmt"

// AnomalyKind classifies accounting anomalies.
type AnomalyKind string

const (
	// AnomalyCounterRegression means the provider counter decreased beyond
	// tolerance, which indicates a device reset.
	AnomalyCounterRegression AnomalyKind = "counter_regression"
	// AnomalyImplausibleGap means a wall-clock gap exceeded the plausible
	// maximum; the credit was capped.
	AnomalyImplausibleGap AnomalyKind = "implausible_gap"
)

// Anomaly describes an accounting irregularity detected while applying a
// sample. The sample's accounting effect is discarded or capped, but its
// non-accounting fields (edges, timestamps) are still applied.
type Anomaly struct {
	Kind AnomalyKind

	// PriorHours is the accumulated value before the sample.
	PriorHours float64
	// SampleHours is the value the sample implied (counter mode) or the raw
	// uncapped gap (wall-clock mode).
	SampleHours float64
}

func (a *Anomaly) String() string {
	return fmt.Sprintf("%s: prior=%.4fh sample=%.4fh", a.Kind, a.PriorHours, a.SampleHours)
}
