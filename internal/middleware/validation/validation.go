// Package validation screens inbound message bodies before they reach the
// reply pipeline.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxMessageLength    int
	AllowedContentTypes []string
	Logger              *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxMessageLength == 0 {
		cfg.MaxMessageLength = 500
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() == "POST" || c.Method() == "PUT" {
			contentType := c.Get("Content-Type")
			if contentType != "" {
				allowed := false
				for _, allowedType := range cfg.AllowedContentTypes {
					if strings.Contains(contentType, allowedType) {
						allowed = true
						break
					}
				}
				if !allowed {
					return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
						"error": "Unsupported content type",
					})
				}
			}
		}

		if strings.HasSuffix(c.Path(), "/messages") && c.Method() == "POST" {
			var req map[string]interface{}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid JSON format",
				})
			}

			conversationID, ok := req["conversation_id"].(string)
			if !ok || strings.TrimSpace(conversationID) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "conversation_id is required and must be a string",
				})
			}

			text, ok := req["text"].(string)
			if !ok || strings.TrimSpace(text) == "" {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "text is required and must be a string",
				})
			}

			if utf8.RuneCountInString(text) > cfg.MaxMessageLength {
				cfg.Logger.Warn("Message rejected for length",
					zap.String("conversation_id", conversationID),
					zap.Int("length", utf8.RuneCountInString(text)),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "text exceeds maximum length",
				})
			}
		}

		return c.Next()
	}
}
