package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	"fleet-monitor/feature/engine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInvalidOffset is returned when the offset is NaN or infinite.
var ErrInvalidOffset = errors.New("offset must be a finite number")

// Ledger stores the manual calibration offset per asset. It is a pure value
// store with no side effects on the reconciler's state.
type Ledger struct {
	db *gorm.DB
}

// NewLedger creates a ledger over the given database.
func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// GetOffset returns the offset for the asset, zero if none was ever set.
func (l *Ledger) GetOffset(ctx context.Context, assetID uint) (float64, error) {
	var row models.CalibrationOffset
	err := l.db.WithContext(ctx).First(&row, "asset_id = ?", assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("loading offset for asset %d: %w", assetID, err)
	}
	return row.OffsetHours, nil
}

// SetOffset stores the offset for the asset. Negative values are allowed
// (the offset is a signed correction); non-finite values are rejected.
func (l *Ledger) SetOffset(ctx context.Context, assetID uint, hours float64) error {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return ErrInvalidOffset
	}

	row := models.CalibrationOffset{AssetID: assetID, OffsetHours: hours}
	err := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "asset_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"offset_hours", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving offset for asset %d: %w", assetID, err)
	}
	return nil
}
