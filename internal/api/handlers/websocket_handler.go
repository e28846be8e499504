package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/metrics"
	"github.com/sardorismatullaev707-collab/suprt/internal/middleware/ratelimit"
	"github.com/sardorismatullaev707-collab/suprt/internal/respond"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// WebSocketHandler serves the live chat widget. Replies are streamed word by
// word so the widget can render them progressively.
type WebSocketHandler struct {
	engine  *respond.Engine
	limiter *ratelimit.Limiter
}

func NewWebSocketHandler(engine *respond.Engine, limiter *ratelimit.Limiter) *WebSocketHandler {
	return &WebSocketHandler{
		engine:  engine,
		limiter: limiter,
	}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			ConversationID string `json:"conversation_id"`
			Text           string `json:"text"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("WebSocket read ended", zap.Error(err))
			break
		}

		if strings.TrimSpace(msg.ConversationID) == "" || strings.TrimSpace(msg.Text) == "" {
			h.sendError(c, "conversation_id and text are required")
			continue
		}

		if !h.limiter.Allow(msg.ConversationID) {
			metrics.RateLimited.Inc()
			h.sendError(c, "Please wait a moment before sending another message")
			continue
		}

		if err := h.streamReply(c, msg.ConversationID, msg.Text); err != nil {
			logger.Error("Failed to stream reply", zap.Error(err))
			h.sendError(c, "Failed to handle message")
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, conversationID, text string) error {
	reply, err := h.engine.Handle(context.Background(), conversationID, text)
	if err != nil {
		return err
	}

	words := strings.Fields(reply.Text)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := c.WriteJSON(map[string]interface{}{
			"type":    "chunk",
			"content": chunk,
		}); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type":    "complete",
		"text":    reply.Text,
		"branch":  reply.Branch,
		"booking": reply.Booking,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}
