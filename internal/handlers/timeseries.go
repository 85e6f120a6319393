package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/services"
	"github.com/soltixdb/clusterview/internal/timeseries"
)

// GetTimeSeries returns one series, or the list of tracked series when no
// entity is given
// GET /v1/timeseries?entity=node:n1&metric=heap_percent
func (h *Handler) GetTimeSeries(c *fiber.Ctx) error {
	entity := c.Query("entity")
	metric := c.Query("metric")

	if entity == "" && metric == "" {
		keys := h.cluster.SeriesKeys()
		resp := models.SeriesListResponse{Series: make([]models.SeriesKeyResponse, 0, len(keys))}
		for _, k := range keys {
			resp.Series = append(resp.Series, models.SeriesKeyResponse{Entity: k.Entity, Metric: k.Metric})
		}
		return c.JSON(resp)
	}

	if entity == "" || metric == "" {
		return badRequest(c, services.CodeInvalidRequest, "entity and metric are required together")
	}

	key := timeseries.Key{Entity: entity, Metric: metric}
	points, err := h.cluster.Series(key)
	if err != nil {
		return h.writeError(c, err)
	}

	resp := models.TimeSeriesResponse{
		Entity:   entity,
		Metric:   metric,
		Capacity: h.cluster.SeriesCapacity(),
		Points:   make([]models.PointResponse, len(points)),
	}
	for i, p := range points {
		resp.Points[i] = models.PointResponse{Time: p.Time, Value: p.Value}
	}
	return c.JSON(resp)
}

// ResetTimeSeries applies an external reset key to one series
// POST /v1/timeseries/reset
func (h *Handler) ResetTimeSeries(c *fiber.Ctx) error {
	var req models.ResetSeriesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, services.CodeInvalidRequest, "Invalid request body: "+err.Error())
	}
	if req.Entity == "" || req.Metric == "" {
		return badRequest(c, services.CodeInvalidRequest, "entity and metric are required")
	}

	cleared, err := h.cluster.ResetSeries(timeseries.Key{Entity: req.Entity, Metric: req.Metric}, req.ResetKey)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(models.ResetSeriesResponse{Cleared: cleared})
}
