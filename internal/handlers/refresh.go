package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/services"
	"github.com/soltixdb/clusterview/internal/utils"
)

// GetRefreshStatus returns the refresh clock state
// GET /v1/refresh
func (h *Handler) GetRefreshStatus(c *fiber.Ctx) error {
	return c.JSON(h.clock.Status())
}

// TriggerRefresh invalidates cached data for the optional scope and starts
// a refresh. It returns as soon as the tick is stamped.
// POST /v1/refresh
func (h *Handler) TriggerRefresh(c *fiber.Ctx) error {
	var req models.TriggerRefreshRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, services.CodeInvalidRequest, "Invalid request body: "+err.Error())
		}
	}
	if req.Scope == "" {
		req.Scope = c.Query("scope")
	}
	if req.Scope != "" && !utils.IsScope(req.Scope) {
		return h.writeError(c, services.NewServiceErrorWithDetails(services.CodeInvalidScope,
			fmt.Sprintf("unknown scope %q", req.Scope),
			map[string]interface{}{"supported": utils.Scopes}))
	}

	tick := h.clock.TriggerRefresh(req.Scope)
	return c.Status(fiber.StatusAccepted).JSON(models.TriggerRefreshResponse{
		Tick: tickResponse(tick),
	})
}

// SetRefreshInterval changes and persists the refresh interval
// PUT /v1/refresh/interval
func (h *Handler) SetRefreshInterval(c *fiber.Ctx) error {
	var req models.SetIntervalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, services.CodeInvalidRequest, "Invalid request body: "+err.Error())
	}
	if req.IntervalMs == nil {
		return badRequest(c, services.CodeInvalidRequest, "interval_ms is required")
	}

	// Range check in milliseconds; the Duration conversion can overflow
	maxMs := utils.MaxRefreshInterval.Milliseconds()
	if *req.IntervalMs < 0 || *req.IntervalMs > maxMs {
		return h.writeError(c, services.NewServiceErrorWithDetails(services.CodeInvalidInterval,
			"interval_ms out of range",
			map[string]interface{}{"min": 0, "max": maxMs}))
	}
	interval := time.Duration(*req.IntervalMs) * time.Millisecond

	ctx, cancel := contextWithTimeout(c, utils.PersistTimeout)
	defer cancel()

	if err := h.clock.SetInterval(ctx, interval); err != nil {
		return h.writeError(c, services.NewServiceError(services.CodeInvalidInterval, err.Error()))
	}

	return c.JSON(h.clock.Status())
}
