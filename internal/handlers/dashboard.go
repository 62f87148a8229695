package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/grants-portal/internal/pipeline"
	"github.com/localnerve/grants-portal/internal/services"
)

// DashboardHandler serves the staff dashboard
type DashboardHandler struct {
	*Base
}

// GetStats handles GET /api/dashboard/stats
// @Summary Dashboard statistics
// @Description Pipeline counts, win rate, closing soon grants and recent activity
// @Tags Dashboard
// @Produce json
// @Success 200 {object} dashboard.Stats
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /dashboard/stats [get]
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := services.DashboardStats(h.db(c), h.now())
	if err != nil {
		return h.respondError(c, err, "dashboardStats")
	}
	return c.JSON(stats)
}

// GetVocabulary handles GET /api/pipeline/vocabulary
// @Summary Stage, sub-status and item vocabularies
// @Tags Dashboard
// @Produce json
// @Success 200 {object} pipeline.Vocabulary
// @Security CookieAuth
// @Router /pipeline/vocabulary [get]
func (h *DashboardHandler) GetVocabulary(c *fiber.Ctx) error {
	return c.JSON(pipeline.Describe())
}
