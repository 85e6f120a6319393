package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/models"
)

// Health reports liveness. The service is live before its first snapshot;
// snapshot_ready tells readiness apart.
func (h *Handler) Health(c *fiber.Ctx) error {
	_, tick, ready := h.cluster.Current()
	return c.JSON(models.HealthResponse{
		Status:        "healthy",
		Timestamp:     time.Now().Format(time.RFC3339),
		Version:       Version,
		SnapshotReady: ready,
		SnapshotSeq:   tick.Seq,
	})
}

// NotFound handles unmatched routes
func (h *Handler) NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    "NOT_FOUND",
			Message: "Route not found",
			Path:    c.Path(),
		},
	})
}
