package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/services"
)

// RelocateShard validates and dispatches a shard relocation. A rejection is a
// normal 200 response carrying the reason.
// POST /v1/shards/relocate
func (h *Handler) RelocateShard(c *fiber.Ctx) error {
	var req models.RelocateShardRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error())
	}

	if req.Index == "" || req.Shard == nil {
		return badRequest(c, "INVALID_REQUEST", "index and shard are required")
	}

	out, err := h.cluster.RelocateShard(c.UserContext(), services.RelocationRequest{
		Index:      req.Index,
		Shard:      *req.Shard,
		SourceNode: req.SourceNode,
		DestNode:   req.DestNode,
	})
	if err != nil {
		return h.writeError(c, err)
	}

	return c.JSON(out)
}

// BulkOperation validates a bulk index operation and dispatches one command
// per approved index. Partial failures are reported per item.
// POST /v1/indices/bulk
func (h *Handler) BulkOperation(c *fiber.Ctx) error {
	var req models.BulkOperationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "INVALID_REQUEST", "Invalid request body: "+err.Error())
	}

	out, err := h.cluster.ApplyBulk(c.UserContext(), req.Operation, req.Indices)
	if err != nil {
		return h.writeError(c, err)
	}

	status := fiber.StatusOK
	if out.Failed > 0 {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(out)
}
