package engine

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"fleet-monitor/core/database"
	"fleet-monitor/feature/engine/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Asset{},
		&models.AssetEngineState{},
		&models.CalibrationOffset{},
	))
	return db
}

func TestStore_LoadMissingReturnsZeroState(t *testing.T) {
	store := NewStore(newTestDB(t))

	st, err := store.Load(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), st.AssetID)
	assert.Equal(t, int64(0), st.Version)
	assert.False(t, st.HasSample)
}

func TestStore_CreateThenUpdate(t *testing.T) {
	store := NewStore(newTestDB(t))
	ctx := context.Background()

	on := int64(1756700000)
	st := &models.AssetEngineState{
		AssetID:              7,
		AccumulatedRunHours:  1.5,
		EngineOnSince:        &on,
		IgnitionCount:        1,
		LastSampleObservedAt: on,
		LastEngineOn:         true,
		HasSample:            true,
		AccountingMode:       "wallclock",
	}
	require.NoError(t, store.CompareAndSwap(ctx, st))
	assert.Equal(t, int64(1), st.Version)

	st.AccumulatedRunHours = 1.8
	st.LastSampleObservedAt = on + 600
	require.NoError(t, store.CompareAndSwap(ctx, st))
	assert.Equal(t, int64(2), st.Version)

	loaded, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 1.8, loaded.AccumulatedRunHours)
	assert.Equal(t, int64(2), loaded.Version)
	require.NotNil(t, loaded.EngineOnSince)
	assert.Equal(t, on, *loaded.EngineOnSince)
}

func TestStore_CreateRace(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	first := &models.AssetEngineState{AssetID: 7, HasSample: true}
	require.NoError(t, store.CompareAndSwap(ctx, first))

	// A second writer that loaded before the row existed must lose.
	second := &models.AssetEngineState{AssetID: 7, HasSample: true}
	err := store.CompareAndSwap(ctx, second)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(0), second.Version, "version must be restored so the caller can reload")
}

func TestStore_UpdateConflict(t *testing.T) {
	db := newTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	st := &models.AssetEngineState{AssetID: 7, HasSample: true}
	require.NoError(t, store.CompareAndSwap(ctx, st))

	// Two readers load version 1, both try to write.
	a, err := store.Load(ctx, 7)
	require.NoError(t, err)
	b, err := store.Load(ctx, 7)
	require.NoError(t, err)

	a.AccumulatedRunHours = 2.0
	require.NoError(t, store.CompareAndSwap(ctx, a))

	b.AccumulatedRunHours = 9.9
	err = store.CompareAndSwap(ctx, b)
	assert.ErrorIs(t, err, ErrConflict)

	loaded, err := store.Load(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2.0, loaded.AccumulatedRunHours, "the losing write must not land")
}

func TestStore_UpdateConflictRowsAffectedZero(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `asset_engine_states` SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	st := &models.AssetEngineState{AssetID: 7, Version: 3}
	err = NewStore(db).CompareAndSwap(context.Background(), st)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(3), st.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
