package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/metrics"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/ratelimit"
	"github.com/sardorismatullaev707-collab/suprt/internal/respond"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// TelegramHandler serves the bot webhook. Replies ride the webhook response
// itself (the "method":"sendMessage" form), so no outbound Telegram call is
// needed.
type TelegramHandler struct {
	engine  *respond.Engine
	limiter *ratelimit.Limiter
}

func NewTelegramHandler(engine *respond.Engine, limiter *ratelimit.Limiter) *TelegramHandler {
	return &TelegramHandler{
		engine:  engine,
		limiter: limiter,
	}
}

func (h *TelegramHandler) HandleUpdate(c *fiber.Ctx) error {
	var update struct {
		UpdateID int64 `json:"update_id"`
		Message  struct {
			MessageID int64 `json:"message_id"`
			Chat      struct {
				ID int64 `json:"id"`
			} `json:"chat"`
			Text string `json:"text"`
		} `json:"message"`
	}

	if err := c.BodyParser(&update); err != nil {
		logger.Error("Failed to parse telegram update", zap.Error(err))
		// Telegram retries non-200 responses; a broken update is not worth
		// retrying.
		return c.SendStatus(fiber.StatusOK)
	}

	text := strings.TrimSpace(update.Message.Text)
	if update.Message.Chat.ID == 0 || text == "" {
		return c.SendStatus(fiber.StatusOK)
	}

	conversationID := fmt.Sprintf("tg:%d", update.Message.Chat.ID)
	if !h.limiter.Allow(conversationID) {
		metrics.RateLimited.Inc()
		return c.SendStatus(fiber.StatusOK)
	}

	reply, err := h.engine.Handle(c.Context(), conversationID, text)
	if err != nil {
		logger.Error("Failed to handle telegram message", zap.Error(err))
		return c.SendStatus(fiber.StatusOK)
	}

	return c.JSON(fiber.Map{
		"method":  "sendMessage",
		"chat_id": update.Message.Chat.ID,
		"text":    reply.Text,
	})
}
