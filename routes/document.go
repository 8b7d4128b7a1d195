package routes

import (
	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/handlers"
)

func RegisterDocumentRoutes(app *fiber.App, handler *handlers.DocHandler) {
	app.Post("/generate-form", handler.GenerateForm)
	documents := app.Group("/documents")
	documents.Get("/", handler.History)
	documents.Get("/:id/download", handler.DownloadURL)
}

// RegisterAdminRoutes is only called when an admin token is configured.
func RegisterAdminRoutes(app *fiber.App, handler *handlers.AdminHandler) {
	admin := app.Group("/admin", handler.RequireToken)
	admin.Post("/ingest", handler.EnqueueIngest)
	admin.Get("/chats", handler.ListChats)
}
