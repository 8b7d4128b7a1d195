package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/handlers"
)

func SetupWebSocketRoutes(app *fiber.App, wsHandler *handlers.WSHandler) {
	ws := app.Group("/ws")

	ws.Use("/forms", wsHandler.WebSocketUpgrade)
	ws.Get("/forms", websocket.New(wsHandler.HandleFormEvents))
}
