package api

import (
	"github.com/gofiber/fiber/v2"
)

// UploadPhoto accepts raw photo bytes and persists them in the media
// store. The frontend attaches the returned reference to task events.
func (handler *Handler) UploadPhoto(c *fiber.Ctx) error {
	data := c.Body()
	if len(data) == 0 {
		return apiError(c, fiber.StatusBadRequest, "empty photo body")
	}

	fileID, filePath, err := handler.media.Save(data)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to store photo")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"file_id":   fileID,
		"file_path": filePath,
	})
}

func (handler *Handler) FetchPhoto(c *fiber.Ctx) error {
	fileID := c.Params("id")
	data, found, err := handler.media.Fetch(fileID)
	if err != nil {
		return apiError(c, fiber.StatusInternalServerError, "failed to read photo")
	}
	if !found {
		return apiError(c, fiber.StatusNotFound, "photo not found")
	}
	c.Type("jpg")
	return c.Send(data)
}
