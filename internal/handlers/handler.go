package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/soltixdb/clusterview/internal/logging"
	"github.com/soltixdb/clusterview/internal/models"
	"github.com/soltixdb/clusterview/internal/refresh"
	"github.com/soltixdb/clusterview/internal/services"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// Handler contains all HTTP handlers
type Handler struct {
	logger  *logging.Logger
	cluster *services.ClusterService
	clock   *refresh.Clock
}

// New creates a new handler instance
func New(logger *logging.Logger, cluster *services.ClusterService, clock *refresh.Clock) *Handler {
	return &Handler{
		logger:  logger,
		cluster: cluster,
		clock:   clock,
	}
}

var serviceErrorStatus = map[string]int{
	services.CodeSnapshotUnavailable: fiber.StatusServiceUnavailable,
	services.CodeInvalidRequest:      fiber.StatusBadRequest,
	services.CodeUnknownOperation:    fiber.StatusBadRequest,
	services.CodeInvalidInterval:     fiber.StatusBadRequest,
	services.CodeInvalidScope:        fiber.StatusBadRequest,
	services.CodeSeriesNotFound:      fiber.StatusNotFound,
	services.CodeNodeNotFound:        fiber.StatusNotFound,
}

// writeError renders err as an ErrorResponse
func (h *Handler) writeError(c *fiber.Ctx, err error) error {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		status, ok := serviceErrorStatus[svcErr.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return c.Status(status).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    svcErr.Code,
				Message: svcErr.Message,
				Details: svcErr.Details,
			},
		})
	}

	var collabErr *services.CollaboratorError
	if errors.As(err, &collabErr) {
		logging.FromContext(c.UserContext()).WithContext(c.UserContext()).Error("Collaborator failure",
			"op", collabErr.Op, "error", collabErr.Err)
		return c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "COLLABORATOR_FAILED",
				Message: collabErr.Error(),
			},
		})
	}

	return err
}

// badRequest renders a 400 with code and message
func badRequest(c *fiber.Ctx, code, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func tickResponse(t refresh.Tick) models.TickResponse {
	return models.TickResponse{Seq: t.Seq, Scope: t.Scope, Time: t.Time}
}
