package api

import "github.com/gofiber/fiber/v2"

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	auth := app.Group("/api/auth")
	auth.Post("/login", handler.Login)

	api := app.Group("/api", handler.AuthRequired)

	users := api.Group("/users")
	users.Post("/restart", handler.Restart)
	users.Post("/category", handler.SelectCategory)
	users.Post("/promote", handler.PromoteToManager)
	users.Post("/deactivate", handler.DeactivateUser)
	users.Get("/:id/role", handler.GetUserRole)

	tasks := api.Group("/tasks")
	tasks.Get("", handler.ListTasks)
	tasks.Get("/counts", handler.OpenCounts)
	tasks.Get("/:id", handler.GetTask)
	tasks.Post("", handler.CreateTask)
	tasks.Post("/:id/complete", handler.CompleteTask)
	tasks.Post("/:id/approve", handler.ApproveTask)
	tasks.Post("/:id/redo", handler.RedoTask)
	tasks.Patch("/:id/comment", handler.EditComment)
	tasks.Patch("/:id/photo", handler.EditBeforePhoto)
	tasks.Delete("/:id", handler.DeleteTask)

	photos := api.Group("/photos")
	photos.Post("", handler.UploadPhoto)
	photos.Get("/:id", handler.FetchPhoto)

	api.Post("/broadcast", handler.Broadcast)
}
