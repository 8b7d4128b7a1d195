package handlers

import (
	"context"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/events"
)

type WSHandler struct {
	eventPublisher *events.EventPublisher
}

func NewWSHandler(eventPublisher *events.EventPublisher) *WSHandler {
	return &WSHandler{eventPublisher: eventPublisher}
}

func (h *WSHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.NewError(fiber.StatusUpgradeRequired, "Not a websocket request")
}

// HandleFormEvents streams form.generated events, optionally only those
// for ?student_id=.
func (h *WSHandler) HandleFormEvents(c *websocket.Conn) {
	studentID := c.Query("student_id")
	logging.Logger.Info("WebSocket connected", "studentID", studentID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// the read loop notices the client going away
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	eventChan, err := h.eventPublisher.SubscribeFormEvents(ctx)
	if err != nil {
		logging.Logger.Error("Failed to subscribe to events", "error", err)
		_ = c.WriteJSON(fiber.Map{"error": "Failed to subscribe"})
		return
	}
	if err := c.WriteJSON(fiber.Map{"type": "connected", "student_id": studentID}); err != nil {
		return
	}

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return
			}
			if studentID != "" && event.StudentID != studentID {
				continue
			}
			if err := c.WriteJSON(event); err != nil {
				logging.Logger.Error("Failed to send WebSocket message", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
