package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/metrics"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/ratelimit"
	"github.com/sardorismatullaev707-collab/suprt/internal/respond"
	"github.com/sardorismatullaev707-collab/suprt/internal/storage/sqlite"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// InteractionLister reads back the logged message history for one
// conversation.
type InteractionLister interface {
	RecentInteractions(ctx context.Context, conversationID string, limit int) ([]sqlite.Interaction, error)
}

type MessageHandler struct {
	engine  *respond.Engine
	limiter *ratelimit.Limiter
	log     InteractionLister
}

func NewMessageHandler(engine *respond.Engine, limiter *ratelimit.Limiter, log InteractionLister) *MessageHandler {
	return &MessageHandler{
		engine:  engine,
		limiter: limiter,
		log:     log,
	}
}

func (h *MessageHandler) HandleMessage(c *fiber.Ctx) error {
	var req struct {
		ConversationID string `json:"conversation_id"`
		Text           string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if strings.TrimSpace(req.ConversationID) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "conversation_id is required",
		})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "text is required",
		})
	}

	if !h.limiter.Allow(req.ConversationID) {
		metrics.RateLimited.Inc()
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Please wait a moment before sending another message",
		})
	}

	reply, err := h.engine.Handle(c.Context(), req.ConversationID, req.Text)
	if err != nil {
		logger.Error("Failed to handle message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to handle message",
		})
	}

	return c.JSON(fiber.Map{
		"conversation_id": req.ConversationID,
		"reply":           reply.Text,
		"branch":          reply.Branch,
		"booking":         reply.Booking,
	})
}

func (h *MessageHandler) GetHistory(c *fiber.Ctx) error {
	conversationID := c.Query("conversation_id")
	if conversationID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "conversation_id is required",
		})
	}

	limit := c.QueryInt("limit", 20)

	recs, err := h.log.RecentInteractions(c.Context(), conversationID, limit)
	if err != nil {
		logger.Error("Failed to load interactions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	items := make([]fiber.Map, 0, len(recs))
	for _, r := range recs {
		items = append(items, fiber.Map{
			"direction": r.Direction,
			"text":      r.Text,
			"branch":    r.Branch,
			"time":      r.CreatedAt.Unix(),
		})
	}

	return c.JSON(fiber.Map{
		"conversation_id": conversationID,
		"history":         items,
	})
}
