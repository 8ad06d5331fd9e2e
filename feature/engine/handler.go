package engine

import (
	"errors"

	"fleet-monitor/core/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for engine state.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the engine routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/assets")
	group.Get("/:id/refresh", h.HandleRefresh)
	group.Post("/:id/offset", h.HandleSetOffset)
}

// HandleRefresh triggers one reconciliation for the asset and returns the
// display-ready engine view. A provider outage is not an error: the response
// carries monitor_online=false with the last known values, so the dashboard
// degrades to a stale panel instead of a broken one.
// @Summary Refresh Engine State
// @Description Poll the telemetry provider, reconcile the asset's engine state and return the updated view.
// @Tags engine
// @Accept json
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} models.EngineView "Engine view"
// @Failure 400 {object} map[string]string "Asset has no tracker device"
// @Failure 404 {object} map[string]string "Asset not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /assets/{id}/refresh [get]
func (h *Handler) HandleRefresh(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	assetID, err := c.ParamsInt("id")
	if err != nil || assetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid asset id",
		})
	}

	view, err := h.service.Refresh(c.Context(), uint(assetID))
	if err != nil {
		return h.writeError(c, l, err)
	}

	return c.JSON(view)
}

// offsetRequest is the body for HandleSetOffset.
type offsetRequest struct {
	Offset *float64 `json:"offset"`
}

// HandleSetOffset updates the manual calibration offset for the asset.
// @Summary Set Calibration Offset
// @Description Set the manual offset added to the accumulated run hours at display time. Does not touch accumulated hours.
// @Tags engine
// @Accept json
// @Produce json
// @Param id path int true "Asset ID"
// @Param body body offsetRequest true "New offset in hours (signed)"
// @Success 200 {object} map[string]interface{} "Confirmation with the new offset"
// @Failure 400 {object} map[string]string "Invalid offset"
// @Failure 404 {object} map[string]string "Asset not found"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /assets/{id}/offset [post]
func (h *Handler) HandleSetOffset(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	assetID, err := c.ParamsInt("id")
	if err != nil || assetID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid asset id",
		})
	}

	var req offsetRequest
	if err := c.BodyParser(&req); err != nil || req.Offset == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid offset",
		})
	}

	if err := h.service.SetOffset(c.Context(), uint(assetID), *req.Offset); err != nil {
		if errors.Is(err, ErrInvalidOffset) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return h.writeError(c, l, err)
	}

	return c.JSON(fiber.Map{
		"message":  "offset updated",
		"asset_id": assetID,
		"offset":   *req.Offset,
	})
}

func (h *Handler) writeError(c *fiber.Ctx, l *zap.Logger, err error) error {
	switch {
	case errors.Is(err, ErrAssetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, ErrNoDevice):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		l.Error("Engine request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
