// Package workbook backs the schedule and knowledge base with an .xlsx file
// laid out like the original spreadsheet: a "schedule" sheet with Date, Time,
// Customer_Name and Contact_Info columns, and a "knowledge" sheet with
// Question and Answer columns.
package workbook

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

const (
	scheduleSheet  = "schedule"
	knowledgeSheet = "knowledge"
)

// Store satisfies schedule.SlotStore over a shared workbook file. The file
// is reopened on every call so edits made by the schedule owner show up
// within one response cycle. The mutex only serializes writers inside this
// process; the file itself gives no cross-process guarantee.
type Store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func Open(path string) (*Store, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if _, err := f.GetRows(scheduleSheet); err != nil {
		return nil, fmt.Errorf("workbook has no %q sheet: %w", scheduleSheet, err)
	}

	logger.Info("Workbook store initialized", zap.String("path", path))
	return &Store{path: path, now: time.Now}, nil
}

// Knowledge loads all Question/Answer rows, skipping the header and rows
// with either cell empty.
func (s *Store) Knowledge(ctx context.Context) ([]knowledge.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(knowledgeSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q sheet: %w", knowledgeSheet, err)
	}

	var entries []knowledge.Entry
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		e := knowledge.Entry{Question: cell(row, 0), Answer: cell(row, 1)}
		if e.Question == "" || e.Answer == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *Store) ListAvailable(ctx context.Context, date string) ([]schedule.Slot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(scheduleSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q sheet: %w", scheduleSheet, err)
	}

	now := s.now()
	var slots []schedule.Slot
	for i, row := range rows {
		if i == 0 {
			continue
		}
		slot := slotFromRow(row)
		if slot.Date == "" || slot.Time == "" || slot.Booked() {
			continue
		}
		if schedule.IsPast(slot.Date, now) {
			continue
		}
		if date != "" && slot.Date != date {
			continue
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

// Reserve re-reads the target row and writes the occupant cells back in one
// open-check-save pass under the store mutex.
func (s *Store) Reserve(ctx context.Context, date, timeOfDay, name, contact string) (schedule.BookingResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(scheduleSheet)
	if err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to read %q sheet: %w", scheduleSheet, err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		slot := slotFromRow(row)
		if slot.Date != date || slot.Time != timeOfDay {
			continue
		}

		if slot.Booked() {
			occupant := slot.Name
			if occupant == "" {
				occupant = "someone"
			}
			return schedule.BookingResult{
				Success: false,
				Message: fmt.Sprintf("This slot is already booked by %s", occupant),
			}, nil
		}

		// Sheet rows are 1-indexed and row 1 is the header.
		rowNum := i + 1
		if err := f.SetCellValue(scheduleSheet, fmt.Sprintf("C%d", rowNum), name); err != nil {
			return schedule.BookingResult{}, fmt.Errorf("failed to set customer cell: %w", err)
		}
		if err := f.SetCellValue(scheduleSheet, fmt.Sprintf("D%d", rowNum), contact); err != nil {
			return schedule.BookingResult{}, fmt.Errorf("failed to set contact cell: %w", err)
		}
		if err := f.Save(); err != nil {
			return schedule.BookingResult{}, fmt.Errorf("failed to save workbook: %w", err)
		}

		logger.Info("Slot booked",
			zap.String("date", date),
			zap.String("time", timeOfDay),
			zap.String("customer", name),
		)
		return schedule.BookingResult{
			Success: true,
			Message: fmt.Sprintf("Successfully booked on %s at %s", date, timeOfDay),
		}, nil
	}

	return schedule.BookingResult{Success: false, Message: "Slot not found or not available"}, nil
}

func slotFromRow(row []string) schedule.Slot {
	return schedule.Slot{
		Date:    cell(row, 0),
		Time:    cell(row, 1),
		Name:    cell(row, 2),
		Contact: cell(row, 3),
	}
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
