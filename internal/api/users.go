package api

import (
	"github.com/gofiber/fiber/v2"
)

type userRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Category string `json:"category"`
	Code     string `json:"code"`
}

// Restart re-registers the user as a plain executor with no category,
// whatever they were before.
func (handler *Handler) Restart(c *fiber.Ctx) error {
	var request userRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.identity.Restart(request.UserID, request.Username); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) SelectCategory(c *fiber.Ctx) error {
	var request userRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.identity.SelectCategory(request.UserID, request.Username, request.Category); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) PromoteToManager(c *fiber.Ctx) error {
	var request userRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.identity.PromoteToManager(request.UserID, request.Username, request.Code); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) DeactivateUser(c *fiber.Ctx) error {
	var request userRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.identity.Deactivate(request.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) GetUserRole(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid user id")
	}

	role, err := handler.identity.Role(int64(userID))
	if err != nil {
		return respondError(c, err)
	}
	category, err := handler.identity.Category(int64(userID))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"role": role, "category": category})
}
