package consumption

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleet-monitor/feature/consumption/models"
	enginemodels "fleet-monitor/feature/engine/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StateReader provides the engine hours and offset the closing reads.
// Satisfied by the engine feature's store and ledger.
type StateReader interface {
	Load(ctx context.Context, assetID uint) (*enginemodels.AssetEngineState, error)
}

// OffsetReader resolves the calibration offset per asset.
type OffsetReader interface {
	GetOffset(ctx context.Context, assetID uint) (float64, error)
}

// Service records one consumption snapshot per asset per day. It owns no
// scheduler: the closing runs when an operator or external cron invokes it.
type Service struct {
	db      *gorm.DB
	states  StateReader
	offsets OffsetReader
	logger  *zap.Logger
}

// NewService creates the consumption service.
func NewService(db *gorm.DB, states StateReader, offsets OffsetReader, logg *zap.Logger) *Service {
	return &Service{db: db, states: states, offsets: offsets, logger: logg}
}

// CloseDay writes the daily snapshot for every active asset. Assets already
// closed for the day are skipped, so re-running the closing is idempotent.
// It returns the number of rows created.
func (s *Service) CloseDay(ctx context.Context, day time.Time) (int, error) {
	dayKey := day.Format(models.DayFormat)

	var assets []enginemodels.Asset
	if err := s.db.WithContext(ctx).Where("active = ?", true).Find(&assets).Error; err != nil {
		return 0, fmt.Errorf("listing active assets: %w", err)
	}

	created := 0
	for _, asset := range assets {
		ok, err := s.closeAsset(ctx, &asset, dayKey)
		if err != nil {
			s.logger.Error("Failed to close consumption day for asset",
				zap.Uint("asset_id", asset.ID),
				zap.String("day", dayKey),
				zap.Error(err),
			)
			continue
		}
		if ok {
			created++
		}
	}

	s.logger.Info("Consumption day closed",
		zap.String("day", dayKey),
		zap.Int("assets", len(assets)),
		zap.Int("created", created),
	)
	return created, nil
}

func (s *Service) closeAsset(ctx context.Context, asset *enginemodels.Asset, dayKey string) (bool, error) {
	var existing models.ConsumptionDay
	err := s.db.WithContext(ctx).
		First(&existing, "asset_id = ? AND day = ?", asset.ID, dayKey).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	state, err := s.states.Load(ctx, asset.ID)
	if err != nil {
		return false, err
	}
	offset, err := s.offsets.GetOffset(ctx, asset.ID)
	if err != nil {
		return false, err
	}

	hours := state.AccumulatedRunHours + offset
	row := models.ConsumptionDay{
		AssetID:        asset.ID,
		Day:            dayKey,
		EngineHours:    hours,
		ConsumptionLPH: asset.ConsumptionLPH,
		FuelLiters:     hours * asset.ConsumptionLPH,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return false, err
	}
	return true, nil
}
