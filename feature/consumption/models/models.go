package models

import "time"

// ConsumptionDay is one daily closing record per asset: the displayed engine
// hours at closing time and the fuel burn derived from the asset's
// consumption rate. At most one row exists per (asset, day).
type ConsumptionDay struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AssetID        uint      `gorm:"index:idx_consumption_asset_day,unique" json:"asset_id"`
	Day            string    `gorm:"size:10;index:idx_consumption_asset_day,unique" json:"day"`
	EngineHours    float64   `json:"engine_hours"`
	ConsumptionLPH float64   `json:"consumption_lph"`
	FuelLiters     float64   `json:"fuel_liters"`
	CreatedAt      time.Time `json:"-"`
}

// TableName overrides the table name.
func (ConsumptionDay) TableName() string {
	return "consumption_days"
}

// DayFormat is the closing date layout.
const DayFormat = "2006-01-02"
