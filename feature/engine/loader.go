package engine

import (
	"fleet-monitor/core/reconcile"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the engine feature.
func NewFeature(db *gorm.DB, fetcher Fetcher, cfg reconcile.Config, logg *zap.Logger) *Feature {
	svc := NewService(db, fetcher, cfg, logg)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service returns the underlying service for collaborators.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "engine"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return nil
}
