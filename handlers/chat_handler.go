package handlers

import (
	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/services"
)

// GenericFailureReply is sent with HTTP 200 when a chat turn fails.
const GenericFailureReply = "เกิดข้อผิดพลาดในระบบ"

type ChatHandler struct {
	chatService *services.ChatService
	registry    *services.FormRegistry
}

func NewChatHandler(chatService *services.ChatService, registry *services.FormRegistry) *ChatHandler {
	return &ChatHandler{chatService: chatService, registry: registry}
}

func Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "Server is running 🚀"})
}

func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	resp, err := h.chatService.Chat(c.UserContext(), req)
	if err != nil {
		logging.Logger.Error("fail Chat", "error", err)
		return c.JSON(models.ChatResponse{Reply: GenericFailureReply, Sources: []models.Source{}})
	}
	if resp.Sources == nil {
		resp.Sources = []models.Source{}
	}
	return c.JSON(resp)
}

func (h *ChatHandler) ListForms(c *fiber.Ctx) error {
	return c.JSON(h.registry.Summaries())
}
