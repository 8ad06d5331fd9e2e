package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"fleet-monitor/core/reconcile"
	"fleet-monitor/core/telemetry"
	"fleet-monitor/feature/engine/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrAssetNotFound is returned when the asset does not exist or is inactive.
	ErrAssetNotFound = errors.New("asset not found")
	// ErrNoDevice is returned when the asset has no tracker IMEI registered.
	ErrNoDevice = errors.New("asset has no tracker device registered")
)

// Fetcher is the telemetry dependency of the service; satisfied by
// *telemetry.Client and stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, deviceID string) (*telemetry.Sample, error)
}

// Service orchestrates one reconciliation per refresh request: resolve the
// asset to its device, fetch telemetry (outside any lock), fold the sample
// into the stored state and persist it with optimistic concurrency.
type Service struct {
	db      *gorm.DB
	store   *Store
	ledger  *Ledger
	fetcher Fetcher
	cfg     reconcile.Config
	logger  *zap.Logger

	// now is swappable for tests.
	now func() int64
}

// NewService creates the engine service.
func NewService(db *gorm.DB, fetcher Fetcher, cfg reconcile.Config, logg *zap.Logger) *Service {
	return &Service{
		db:      db,
		store:   NewStore(db),
		ledger:  NewLedger(db),
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logg,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// Store exposes the engine-state store for collaborators (consumption closing).
func (s *Service) Store() *Store {
	return s.store
}

// Ledger exposes the calibration ledger for collaborators.
func (s *Service) Ledger() *Ledger {
	return s.ledger
}

// Refresh performs one reconciliation for the asset and returns the
// display-ready view. Provider failures are not errors: the view is built
// from the last persisted state with MonitorOnline=false.
func (s *Service) Refresh(ctx context.Context, assetID uint) (*models.EngineView, error) {
	asset, err := s.loadAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.IMEI == "" {
		return nil, ErrNoDevice
	}

	// The provider call may block up to its timeout; it runs before any
	// state access so a slow provider cannot stall concurrent refreshes.
	sample, fetchErr := s.fetcher.Fetch(ctx, asset.IMEI)
	if fetchErr != nil {
		return s.degraded(ctx, asset, fetchErr)
	}

	return s.applySample(ctx, asset, sample)
}

// SetOffset validates and stores the manual calibration offset. It never
// touches the accumulated hours.
func (s *Service) SetOffset(ctx context.Context, assetID uint, hours float64) error {
	if _, err := s.loadAsset(ctx, assetID); err != nil {
		return err
	}
	if err := s.ledger.SetOffset(ctx, assetID, hours); err != nil {
		return err
	}

	s.logger.Info("Calibration offset updated",
		zap.Uint("asset_id", assetID),
		zap.Float64("offset_hours", hours),
	)
	return nil
}

func (s *Service) loadAsset(ctx context.Context, assetID uint) (*models.Asset, error) {
	var asset models.Asset
	err := s.db.WithContext(ctx).First(&asset, "id = ? AND active = ?", assetID, true).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading asset %d: %w", assetID, err)
	}
	return &asset, nil
}

// applySample folds the sample into the stored state and persists it.
// A persistence conflict is retried once from a fresh load; a second
// conflict is logged as transient and the pre-conflict view is returned.
func (s *Service) applySample(ctx context.Context, asset *models.Asset, sample *telemetry.Sample) (*models.EngineView, error) {
	state, err := s.store.Load(ctx, asset.ID)
	if err != nil {
		return nil, err
	}

	applied, ok := s.applyOnce(ctx, asset, state, sample)
	if ok || applied == nil {
		if applied != nil {
			state = applied
		}
		return s.view(ctx, asset, state, true), nil
	}

	// Lost the race: reapply from the true persisted state so the sample is
	// never partially double-counted.
	fresh, err := s.store.Load(ctx, asset.ID)
	if err != nil {
		return s.view(ctx, asset, applied, true), nil
	}
	retried, ok := s.applyOnce(ctx, asset, fresh, sample)
	if retried != nil {
		fresh = retried
	}
	if !ok {
		s.logger.Warn("Engine state write conflicted twice, returning unpersisted view",
			zap.Uint("asset_id", asset.ID),
		)
	}
	return s.view(ctx, asset, fresh, true), nil
}

// applyOnce runs the reconciler over the loaded state and attempts one
// compare-and-swap. It returns the mutated state (nil when the sample was
// stale) and whether persistence either succeeded or was not needed.
// A false return with non-nil state means a version conflict.
func (s *Service) applyOnce(ctx context.Context, asset *models.Asset, state *models.AssetEngineState, sample *telemetry.Sample) (*models.AssetEngineState, bool) {
	out := reconcile.Apply(state.Engine(), sample, s.cfg)
	if out.Stale {
		// Already applied (duplicate or out-of-order poll); nothing to persist.
		return nil, true
	}

	s.logOutcome(asset, sample, out)

	state.SetEngine(out.State)
	if sample.BatteryVoltage != nil {
		state.BatteryVoltage = sample.BatteryVoltage
	}
	if sample.Latitude != nil {
		state.Latitude = sample.Latitude
	}
	if sample.Longitude != nil {
		state.Longitude = sample.Longitude
	}

	err := s.store.CompareAndSwap(ctx, state)
	if err == nil {
		return state, true
	}
	if errors.Is(err, ErrConflict) {
		return state, false
	}

	// Availability over strict consistency for a read-only display: the
	// in-memory view is still served. The next refresh re-applies from the
	// true persisted state, so nothing is silently retried with stale data.
	s.logger.Error("Failed to persist engine state",
		zap.Uint("asset_id", asset.ID),
		zap.Error(err),
	)
	return state, true
}

// degraded marks the asset degraded without touching accounting fields and
// returns the last known view with the monitor offline.
func (s *Service) degraded(ctx context.Context, asset *models.Asset, fetchErr error) (*models.EngineView, error) {
	fields := []zap.Field{
		zap.Uint("asset_id", asset.ID),
		zap.String("imei", asset.IMEI),
		zap.Error(fetchErr),
	}
	if pe, ok := telemetry.AsProviderError(fetchErr); ok {
		fields = append(fields, zap.String("kind", string(pe.Kind)))
	}
	s.logger.Warn("Telemetry provider unavailable, serving degraded view", fields...)

	state, err := s.store.Load(ctx, asset.ID)
	if err != nil {
		return nil, err
	}

	if !state.Degraded && state.Version > 0 {
		state.Degraded = true
		if err := s.store.CompareAndSwap(ctx, state); err != nil {
			// Best effort; the flag is presentation state, not accounting.
			s.logger.Warn("Failed to persist degraded flag",
				zap.Uint("asset_id", asset.ID),
				zap.Error(err),
			)
			state.Degraded = true
		}
	}

	return s.view(ctx, asset, state, false), nil
}

func (s *Service) view(ctx context.Context, asset *models.Asset, state *models.AssetEngineState, online bool) *models.EngineView {
	offset, err := s.ledger.GetOffset(ctx, asset.ID)
	if err != nil {
		s.logger.Warn("Failed to load calibration offset",
			zap.Uint("asset_id", asset.ID),
			zap.Error(err),
		)
		offset = 0
	}

	eng := state.Engine()
	run := eng.AccumulatedRunHours

	return &models.EngineView{
		AssetID:        asset.ID,
		Name:           asset.Name,
		IMEI:           asset.IMEI,
		EngineOn:       eng.LastEngineOn,
		MonitorOnline:  online,
		RunHours:       round2(run),
		IdleHours:      round2(eng.IdleHours(s.now())),
		IgnitionCount:  eng.IgnitionCount,
		OffsetHours:    offset,
		DisplayedHours: round2(run + offset),
		LastObservedAt: eng.LastSampleObservedAt,
		BatteryVoltage: state.BatteryVoltage,
		Latitude:       state.Latitude,
		Longitude:      state.Longitude,
	}
}

func (s *Service) logOutcome(asset *models.Asset, sample *telemetry.Sample, out reconcile.Outcome) {
	if out.Ignition {
		s.logger.Info("Ignition detected",
			zap.Uint("asset_id", asset.ID),
			zap.Int("ignition_count", out.State.IgnitionCount),
			zap.Int64("observed_at", sample.ObservedAt),
		)
	}
	if out.ModeSwitch {
		s.logger.Warn("Accounting mode switched",
			zap.Uint("asset_id", asset.ID),
			zap.String("mode", string(out.State.Mode)),
			zap.Float64("accumulated_run_hours", out.State.AccumulatedRunHours),
		)
	}
	if out.Anomaly != nil {
		s.logger.Warn("Accounting anomaly",
			zap.Uint("asset_id", asset.ID),
			zap.String("kind", string(out.Anomaly.Kind)),
			zap.Float64("prior_hours", out.Anomaly.PriorHours),
			zap.Float64("sample_hours", out.Anomaly.SampleHours),
		)
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
