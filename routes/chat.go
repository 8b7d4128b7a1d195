package routes

import (
	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/handlers"
)

func RegisterChatRoutes(app *fiber.App, chatHandler *handlers.ChatHandler) {
	app.Get("/", handlers.Health)
	app.Post("/chat", chatHandler.Chat)
	app.Get("/forms", chatHandler.ListForms)
}

func RegisterHealthRoutes(app *fiber.App, healthHandler *handlers.HealthHandler) {
	app.Get("/ready", healthHandler.Ready)
}
