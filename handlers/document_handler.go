package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/repository"
	"regis_chat_backend/services"
)

type DocHandler struct {
	docService *services.DocumentService
}

func NewDocHandler(docService *services.DocumentService) *DocHandler {
	return &DocHandler{docService: docService}
}

// GenerateForm renders the requested template and returns it as an attachment.
func (h *DocHandler) GenerateForm(c *fiber.Ctx) error {
	var fields map[string]any
	if err := c.BodyParser(&fields); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	doc, err := h.docService.Generate(c.UserContext(), fields)
	if err != nil {
		logging.Logger.Error("fail GenerateForm", "error", err)
		switch {
		case errors.Is(err, services.ErrUnknownFormType):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
	}

	c.Attachment(doc.Filename)
	c.Set(fiber.HeaderContentType, doc.MediaType)
	c.Set("X-Document-Id", doc.ID)
	return c.Send(doc.Content)
}

func (h *DocHandler) DownloadURL(c *fiber.Ctx) error {
	id := c.Params("id")
	url, err := h.docService.DownloadURL(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, services.ErrArchiveDisabled) {
			return fiber.NewError(fiber.StatusNotFound, "document not found")
		}
		logging.Logger.Error("fail DownloadURL", "id", id, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"url": url})
}

// History lists documents generated for ?student_id=.
func (h *DocHandler) History(c *fiber.Ctx) error {
	studentID := c.Query("student_id")
	if studentID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "student_id is required")
	}
	limit, err := strconv.Atoi(c.Query("limit", "20"))
	if err != nil || limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
	}
	docs, err := h.docService.History(c.UserContext(), studentID, limit)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(docs)
}
