package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/overtq/blesk/internal/models"
	"github.com/overtq/blesk/internal/services"
)

type photoPayload struct {
	FileID   string `json:"file_id"`
	FilePath string `json:"file_path"`
}

func photoRefs(payloads []photoPayload) []services.PhotoRef {
	refs := make([]services.PhotoRef, 0, len(payloads))
	for _, payload := range payloads {
		refs = append(refs, services.PhotoRef{
			FileID:   payload.FileID,
			FilePath: payload.FilePath,
		})
	}
	return refs
}

type createTaskRequest struct {
	Actor    int64          `json:"actor"`
	Category string         `json:"category"`
	Comment  string         `json:"comment"`
	Photos   []photoPayload `json:"photos"`
}

func (handler *Handler) CreateTask(c *fiber.Ctx) error {
	var request createTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	taskID, err := handler.workflow.CreateTask(request.Actor, request.Category, request.Comment, photoRefs(request.Photos))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task_id": taskID})
}

func (handler *Handler) ListTasks(c *fiber.Ctx) error {
	status := c.Query("status")
	category := c.Query("category")
	if status != "" && !models.ValidStatus(status) {
		return apiError(c, fiber.StatusBadRequest, "unknown status")
	}

	tasks, err := handler.workflow.ListTasks(status, category)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

func (handler *Handler) GetTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}

	task, photos, err := handler.workflow.Task(taskID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"task": task, "photos": photos})
}

func (handler *Handler) OpenCounts(c *fiber.Ctx) error {
	counts, err := handler.workflow.OpenCounts()
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"counts": counts})
}

type completeTaskRequest struct {
	Actor  int64          `json:"actor"`
	Photos []photoPayload `json:"photos"`
}

func (handler *Handler) CompleteTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request completeTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.workflow.CompleteTask(request.Actor, taskID, photoRefs(request.Photos)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type actorRequest struct {
	Actor int64 `json:"actor"`
}

func (handler *Handler) ApproveTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request actorRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.workflow.Approve(request.Actor, taskID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type redoTaskRequest struct {
	Actor int64  `json:"actor"`
	Note  string `json:"note"`
}

func (handler *Handler) RedoTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request redoTaskRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.workflow.RequestRedo(request.Actor, taskID, request.Note); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type editCommentRequest struct {
	Actor   int64  `json:"actor"`
	Comment string `json:"comment"`
}

func (handler *Handler) EditComment(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request editCommentRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.workflow.EditComment(request.Actor, taskID, request.Comment); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type editPhotoRequest struct {
	Actor int64        `json:"actor"`
	Photo photoPayload `json:"photo"`
}

func (handler *Handler) EditBeforePhoto(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request editPhotoRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	photo := services.PhotoRef{FileID: request.Photo.FileID, FilePath: request.Photo.FilePath}
	if err := handler.workflow.EditBeforePhoto(request.Actor, taskID, photo); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) DeleteTask(c *fiber.Ctx) error {
	taskID, err := c.ParamsInt("id")
	if err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid task id")
	}
	var request actorRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	if err := handler.workflow.Delete(request.Actor, taskID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

type broadcastRequest struct {
	Actor int64  `json:"actor"`
	Text  string `json:"text"`
}

func (handler *Handler) Broadcast(c *fiber.Ctx) error {
	var request broadcastRequest
	if err := c.BodyParser(&request); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	sent, err := handler.workflow.Broadcast(request.Actor, request.Text)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"sent": sent})
}
