package consumption

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"fleet-monitor/core/database"
	"fleet-monitor/feature/consumption/models"
	"fleet-monitor/feature/engine"
	enginemodels "fleet-monitor/feature/engine/models"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&enginemodels.Asset{},
		&enginemodels.AssetEngineState{},
		&enginemodels.CalibrationOffset{},
		&models.ConsumptionDay{},
	))

	svc := NewService(db, engine.NewStore(db), engine.NewLedger(db), zap.NewNop())
	return svc, db
}

func seedAsset(t *testing.T, db *gorm.DB, id uint, lph float64, active bool) {
	t.Helper()
	require.NoError(t, db.Create(&enginemodels.Asset{
		ID:             id,
		Name:           "Asset",
		IMEI:           "355468593059041",
		ConsumptionLPH: lph,
		Active:         active,
	}).Error)
}

func TestCloseDay(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 31, 23, 59, 0, 0, time.UTC)

	seedAsset(t, db, 7, 12, true)
	st := &enginemodels.AssetEngineState{AssetID: 7, AccumulatedRunHours: 10, HasSample: true}
	require.NoError(t, engine.NewStore(db).CompareAndSwap(ctx, st))
	require.NoError(t, engine.NewLedger(db).SetOffset(ctx, 7, 50))

	created, err := svc.CloseDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var row models.ConsumptionDay
	require.NoError(t, db.First(&row, "asset_id = ? AND day = ?", 7, "2026-08-31").Error)
	assert.Equal(t, 60.0, row.EngineHours, "displayed hours include the calibration offset")
	assert.Equal(t, 12.0, row.ConsumptionLPH)
	assert.Equal(t, 720.0, row.FuelLiters)
}

func TestCloseDay_Idempotent(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)

	seedAsset(t, db, 7, 12, true)

	created, err := svc.CloseDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = svc.CloseDay(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 0, created, "a rerun must not duplicate or overwrite rows")

	var count int64
	require.NoError(t, db.Model(&models.ConsumptionDay{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCloseDay_SkipsInactiveAssets(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seedAsset(t, db, 7, 12, true)
	seedAsset(t, db, 8, 12, false)

	created, err := svc.CloseDay(ctx, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	var count int64
	require.NoError(t, db.Model(&models.ConsumptionDay{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCloseDay_SeparateDays(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	seedAsset(t, db, 7, 12, true)

	created, err := svc.CloseDay(ctx, time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	created, err = svc.CloseDay(ctx, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}
