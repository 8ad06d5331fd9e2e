package consumption

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface.
type Feature struct {
	service *Service
	handler *Handler
}

// NewFeature creates the consumption feature.
func NewFeature(db *gorm.DB, states StateReader, offsets OffsetReader, logg *zap.Logger) *Feature {
	svc := NewService(db, states, offsets, logg)
	h := NewHandler(svc)
	return &Feature{service: svc, handler: h}
}

// Service returns the underlying service for the snapshot command.
func (f *Feature) Service() *Service {
	return f.service
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "consumption"
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
