package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/overtq/blesk/internal/media"
	"github.com/overtq/blesk/internal/services"
)

// Handler wires the HTTP surface to the services. The API is consumed by
// the chat frontend adapter, which acts on behalf of chat users: the
// bearer token authenticates the adapter, per-user authorization lives
// in the services.
type Handler struct {
	identity  *services.IdentityService
	workflow  *services.WorkflowService
	media     media.Store
	secretKey []byte
}

func NewHandler(identity *services.IdentityService, workflow *services.WorkflowService, mediaStore media.Store, secretKey string) *Handler {
	return &Handler{
		identity:  identity,
		workflow:  workflow,
		media:     mediaStore,
		secretKey: []byte(secretKey),
	}
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// respondError maps core errors to HTTP statuses. Internal detail never
// crosses the boundary: unknown failures become a generic message.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		return apiError(c, fiber.StatusNotFound, "task not found")
	case errors.Is(err, services.ErrInvalidTransition):
		return apiError(c, fiber.StatusConflict, "action not allowed in current status")
	case errors.Is(err, services.ErrAccessDenied):
		return apiError(c, fiber.StatusForbidden, "access denied")
	case errors.Is(err, services.ErrUnknownCategory):
		return apiError(c, fiber.StatusBadRequest, "unknown category")
	default:
		return apiError(c, fiber.StatusInternalServerError, "request failed")
	}
}

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
