package consumption

import (
	"time"

	"fleet-monitor/core/logger"
	"fleet-monitor/feature/consumption/models"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for consumption closings.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the consumption routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/consumption")
	group.Post("/close", h.HandleCloseDay)
}

// HandleCloseDay runs the daily consumption closing. The optional "day" query
// parameter (YYYY-MM-DD) defaults to today; re-running a closed day is a no-op.
// @Summary Close Consumption Day
// @Description Record one consumption snapshot per active asset for the given day.
// @Tags consumption
// @Accept json
// @Produce json
// @Param day query string false "Day to close (YYYY-MM-DD, default today)"
// @Success 200 {object} map[string]interface{} "Closing summary"
// @Failure 400 {object} map[string]string "Invalid day"
// @Failure 500 {object} map[string]string "Internal Server Error"
// @Router /consumption/close [post]
func (h *Handler) HandleCloseDay(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	day := time.Now()
	if q := c.Query("day"); q != "" {
		parsed, err := time.Parse(models.DayFormat, q)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid day, expected YYYY-MM-DD",
			})
		}
		day = parsed
	}

	created, err := h.service.CloseDay(c.Context(), day)
	if err != nil {
		l.Error("Consumption closing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"status":  "ok",
		"day":     day.Format(models.DayFormat),
		"created": created,
	})
}
