package models

import (
	"time"

	"fleet-monitor/core/reconcile"
)

// Asset is the tracked vehicle or vessel record. The surrounding application
// owns its lifecycle; the engine feature only reads it to resolve the asset
// to a tracker device.
type Asset struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Name        string  `gorm:"size:120" json:"name"`
	Description string  `gorm:"type:text" json:"description,omitempty"`
	IMEI        string  `gorm:"column:imei;size:50;index" json:"imei"`
	Category    string  `gorm:"size:50" json:"category,omitempty"`
	// ConsumptionLPH is the fuel burn rate in liters per engine hour, used by
	// the daily consumption closing.
	ConsumptionLPH float64 `gorm:"column:consumption_lph" json:"consumption_lph"`
	Active         bool    `gorm:"default:true" json:"active"`
}

// TableName overrides the table name.
func (Asset) TableName() string {
	return "assets"
}

// AssetEngineState is the durable accounting row, one per asset. It is owned
// by the engine-state store and mutated only by the reconciliation service.
// Version supports optimistic compare-and-swap.
type AssetEngineState struct {
	AssetID              uint     `gorm:"primaryKey" json:"asset_id"`
	AccumulatedRunHours  float64  `json:"accumulated_run_hours"`
	EngineOnSince        *int64   `json:"engine_on_since,omitempty"`
	EngineOffSince       *int64   `json:"engine_off_since,omitempty"`
	IgnitionCount        int      `json:"ignition_count"`
	LastSampleObservedAt int64    `json:"last_sample_observed_at"`
	LastEngineOn         bool     `json:"last_engine_on"`
	HasSample            bool     `json:"has_sample"`
	AccountingMode       string   `gorm:"size:16" json:"accounting_mode"`
	Degraded             bool     `json:"degraded"`

	// Passthrough telemetry from the last accepted sample, not part of the
	// accounting contract.
	BatteryVoltage *float64 `json:"battery_voltage,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`

	Version   int64     `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides the table name.
func (AssetEngineState) TableName() string {
	return "asset_engine_states"
}

// Engine converts the stored row into the reconciler's state value.
func (m *AssetEngineState) Engine() reconcile.EngineState {
	return reconcile.EngineState{
		AccumulatedRunHours:  m.AccumulatedRunHours,
		EngineOnSince:        m.EngineOnSince,
		EngineOffSince:       m.EngineOffSince,
		IgnitionCount:        m.IgnitionCount,
		LastSampleObservedAt: m.LastSampleObservedAt,
		LastEngineOn:         m.LastEngineOn,
		HasSample:            m.HasSample,
		Mode:                 reconcile.Mode(m.AccountingMode),
		Degraded:             m.Degraded,
	}
}

// SetEngine writes the reconciler's state value back onto the stored row.
func (m *AssetEngineState) SetEngine(st reconcile.EngineState) {
	m.AccumulatedRunHours = st.AccumulatedRunHours
	m.EngineOnSince = st.EngineOnSince
	m.EngineOffSince = st.EngineOffSince
	m.IgnitionCount = st.IgnitionCount
	m.LastSampleObservedAt = st.LastSampleObservedAt
	m.LastEngineOn = st.LastEngineOn
	m.HasSample = st.HasSample
	m.AccountingMode = string(st.Mode)
	m.Degraded = st.Degraded
}

// CalibrationOffset is the manual, admin-set correction added only when
// composing the displayed total. It is never folded into the accumulator.
type CalibrationOffset struct {
	AssetID     uint      `gorm:"primaryKey" json:"asset_id"`
	OffsetHours float64   `json:"offset_hours"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName overrides the table name.
func (CalibrationOffset) TableName() string {
	return "calibration_offsets"
}

// EngineView is the display-ready refresh response for one asset.
type EngineView struct {
	AssetID        uint     `json:"asset_id"`
	Name           string   `json:"name"`
	IMEI           string   `json:"imei"`
	EngineOn       bool     `json:"engine_on"`
	MonitorOnline  bool     `json:"monitor_online"`
	RunHours       float64  `json:"run_hours"`
	IdleHours      float64  `json:"idle_hours"`
	IgnitionCount  int      `json:"ignition_count"`
	OffsetHours    float64  `json:"offset_hours"`
	DisplayedHours float64  `json:"displayed_hours"`
	LastObservedAt int64    `json:"last_observed_at"`
	BatteryVoltage *float64 `json:"battery_voltage,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
}
