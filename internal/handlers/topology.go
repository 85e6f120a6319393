package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/services"
)

// GetTopology returns the current snapshot
// GET /v1/topology
func (h *Handler) GetTopology(c *fiber.Ctx) error {
	snap, tick, ok := h.cluster.Current()
	if !ok {
		return h.writeError(c, services.ErrNoSnapshot)
	}
	return c.JSON(models.TopologyResponse{
		Tick:     tickResponse(tick),
		Snapshot: snap,
	})
}

// GetTopologySummary returns aggregate counts over the snapshot
// GET /v1/topology/summary
func (h *Handler) GetTopologySummary(c *fiber.Ctx) error {
	snap, tick, ok := h.cluster.Current()
	if !ok {
		return h.writeError(c, services.ErrNoSnapshot)
	}
	return c.JSON(models.TopologySummaryResponse{
		Tick:    tickResponse(tick),
		Summary: snap.Summary(),
	})
}

// GetNode returns one node and the shards it holds
// GET /v1/nodes/:node_id
func (h *Handler) GetNode(c *fiber.Ctx) error {
	node, err := h.cluster.Node(c.Params("node_id"))
	if err != nil {
		return h.writeError(c, err)
	}
	_, tick, _ := h.cluster.Current()
	return c.JSON(models.NodeResponse{
		Tick:       tickResponse(tick),
		Node:       node,
		ShardCount: node.ShardCount(),
	})
}

// ListIndices returns every index summary, optionally filtered by status
// GET /v1/indices?status=open|close
func (h *Handler) ListIndices(c *fiber.Ctx) error {
	snap, tick, ok := h.cluster.Current()
	if !ok {
		return h.writeError(c, services.ErrNoSnapshot)
	}

	status := models.IndexStatus(c.Query("status"))
	if status != "" && status != models.IndexOpen && status != models.IndexClosed {
		return badRequest(c, "INVALID_STATUS", "status must be open or close")
	}

	indices := make([]models.IndexSummary, 0, len(snap.Indices))
	for _, idx := range snap.Indices {
		if status == "" || idx.Status == status {
			indices = append(indices, idx)
		}
	}

	return c.JSON(models.IndexListResponse{
		Tick:    tickResponse(tick),
		Indices: indices,
		Count:   len(indices),
	})
}
