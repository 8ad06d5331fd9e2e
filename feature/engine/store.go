package engine

import (
	"context"
	"errors"
	"fmt"

	"fleet-monitor/feature/engine/models"

	"gorm.io/gorm"
)

// ErrConflict is returned by CompareAndSwap when another writer updated the
// row since it was loaded.
var ErrConflict = errors.New("engine state version conflict")

// Store provides atomic read-modify-write access to the per-asset engine
// state. No business logic lives here.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over the given database.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Load returns the engine state for the asset, or a zero-valued state
// (Version 0) if none exists yet. The state row is created lazily by the
// first successful CompareAndSwap.
func (s *Store) Load(ctx context.Context, assetID uint) (*models.AssetEngineState, error) {
	var st models.AssetEngineState
	err := s.db.WithContext(ctx).First(&st, "asset_id = ?", assetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.AssetEngineState{AssetID: assetID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading engine state for asset %d: %w", assetID, err)
	}
	return &st, nil
}

// CompareAndSwap persists the state only if the stored version still matches
// the one it was loaded with. On success the state's Version is advanced.
// A lost race returns ErrConflict; callers retry from a fresh Load, never by
// reapplying onto the stale copy.
func (s *Store) CompareAndSwap(ctx context.Context, st *models.AssetEngineState) error {
	if st.Version == 0 {
		st.Version = 1
		err := s.db.WithContext(ctx).Create(st).Error
		if err != nil {
			st.Version = 0
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrConflict
			}
			return fmt.Errorf("creating engine state for asset %d: %w", st.AssetID, err)
		}
		return nil
	}

	res := s.db.WithContext(ctx).Model(&models.AssetEngineState{}).
		Where("asset_id = ? AND version = ?", st.AssetID, st.Version).
		Updates(map[string]any{
			"accumulated_run_hours":   st.AccumulatedRunHours,
			"engine_on_since":         st.EngineOnSince,
			"engine_off_since":        st.EngineOffSince,
			"ignition_count":          st.IgnitionCount,
			"last_sample_observed_at": st.LastSampleObservedAt,
			"last_engine_on":          st.LastEngineOn,
			"has_sample":              st.HasSample,
			"accounting_mode":         st.AccountingMode,
			"degraded":                st.Degraded,
			"battery_voltage":         st.BatteryVoltage,
			"latitude":                st.Latitude,
			"longitude":               st.Longitude,
			"version":                 st.Version + 1,
		})
	if res.Error != nil {
		return fmt.Errorf("updating engine state for asset %d: %w", st.AssetID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}

	st.Version++
	return nil
}
