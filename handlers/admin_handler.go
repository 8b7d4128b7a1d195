package handlers

import (
	"crypto/subtle"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"regis_chat_backend/models"
	"regis_chat_backend/pkg/logging"
	"regis_chat_backend/platform/queue"
	"regis_chat_backend/repository"
	"regis_chat_backend/services"
)

const AdminTokenHeader = "X-Admin-Token"

type AdminHandler struct {
	token     string
	jobs      *queue.MessageQueueService
	publisher services.FormEventPublisher
	chatLogs  repository.ChatLogRepository
}

// NewAdminHandler builds the admin endpoints. jobs, publisher and chatLogs
// may each be nil.
func NewAdminHandler(token string, jobs *queue.MessageQueueService, publisher services.FormEventPublisher, chatLogs repository.ChatLogRepository) *AdminHandler {
	return &AdminHandler{token: token, jobs: jobs, publisher: publisher, chatLogs: chatLogs}
}

// RequireToken rejects requests whose admin header does not match.
func (h *AdminHandler) RequireToken(c *fiber.Ctx) error {
	got := c.Get(AdminTokenHeader)
	if h.token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) != 1 {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid admin token")
	}
	return c.Next()
}

func (h *AdminHandler) EnqueueIngest(c *fiber.Ctx) error {
	if h.jobs == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "ingest queue is not configured")
	}
	var req struct {
		URLs     []string `json:"urls"`
		Recreate bool     `json:"recreate"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
	}

	job := &models.IngestJob{
		ID:         uuid.New().String(),
		URLs:       req.URLs,
		Recreate:   req.Recreate,
		EnqueuedAt: time.Now(),
	}
	if err := h.jobs.EnqueueIngest(c.UserContext(), job); err != nil {
		logging.Logger.Error("fail EnqueueIngest", "error", err)
		return fiber.NewError(fiber.StatusServiceUnavailable, "could not queue ingest job")
	}
	if h.publisher != nil {
		_ = h.publisher.PublishFormEvent(c.UserContext(), &models.FormEvent{
			Type:    models.EventIngestQueued,
			Message: job.ID,
		})
	}
	logging.Logger.Info("ingest job queued", "job_id", job.ID, "urls", len(job.URLs))
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": job.ID})
}

// ListChats returns the most recent audited chat turns, newest first.
func (h *AdminHandler) ListChats(c *fiber.Ctx) error {
	limit, err := strconv.Atoi(c.Query("limit", "50"))
	if err != nil || limit < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be a non-negative integer")
	}
	if limit == 0 || limit > 500 {
		limit = 50
	}
	if h.chatLogs == nil {
		return c.JSON([]*models.ChatLog{})
	}
	logs, err := h.chatLogs.ListRecent(c.UserContext(), limit)
	if err != nil {
		logging.Logger.Error("fail ListRecent", "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	return c.JSON(logs)
}
