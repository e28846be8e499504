package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// SlotAdder is the optional admin side of a slot store. The workbook store
// does not implement it; slots there are edited in the workbook directly.
type SlotAdder interface {
	AddSlot(ctx context.Context, date, timeOfDay string) error
}

type ScheduleHandler struct {
	store schedule.SlotStore
	adder SlotAdder
	kb    []knowledge.Entry
}

func NewScheduleHandler(store schedule.SlotStore, adder SlotAdder, kb []knowledge.Entry) *ScheduleHandler {
	return &ScheduleHandler{
		store: store,
		adder: adder,
		kb:    kb,
	}
}

func (h *ScheduleHandler) ListSlots(c *fiber.Ctx) error {
	date := c.Query("date")

	slots, err := h.store.ListAvailable(c.Context(), date)
	if err != nil {
		logger.Error("Failed to list slots", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list slots",
		})
	}

	items := make([]fiber.Map, 0, len(slots))
	for _, s := range slots {
		items = append(items, fiber.Map{
			"date": s.Date,
			"time": s.Time,
		})
	}

	return c.JSON(fiber.Map{
		"slots": items,
		"count": len(items),
	})
}

func (h *ScheduleHandler) AddSlot(c *fiber.Ctx) error {
	if h.adder == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Slot management is not available for this store",
		})
	}

	var req struct {
		Date string `json:"date"`
		Time string `json:"time"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "date and time are required",
		})
	}

	if err := h.adder.AddSlot(c.Context(), req.Date, req.Time); err != nil {
		logger.Error("Failed to add slot", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add slot",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"date": req.Date,
		"time": req.Time,
	})
}

func (h *ScheduleHandler) ListKnowledge(c *fiber.Ctx) error {
	items := make([]fiber.Map, 0, len(h.kb))
	for _, e := range h.kb {
		items = append(items, fiber.Map{
			"question": e.Question,
			"answer":   e.Answer,
		})
	}

	return c.JSON(fiber.Map{
		"entries": items,
		"count":   len(items),
	})
}
