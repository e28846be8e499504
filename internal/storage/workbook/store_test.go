package workbook

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "suprt.xlsx")

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", "schedule"); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	scheduleRows := [][]interface{}{
		{"Date", "Time", "Customer_Name", "Contact_Info"},
		{"2026-01-29", "10:00", "", ""}, // past
		{"2026-01-31", "15:00", "", ""},
		{"2026-01-31", "16:00", "Anna", "anna@mail.com"},
		{"2026-02-01", "10:00", "", ""},
	}
	for i, row := range scheduleRows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("schedule", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	if _, err := f.NewSheet("knowledge"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	knowledgeRows := [][]interface{}{
		{"Question", "Answer"},
		{"refund policy", "refunds within 30 days"},
		{"incomplete", ""},
	}
	for i, row := range knowledgeRows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue("knowledge", cell, v); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}
	return path
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(writeTestWorkbook(t))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	s.now = func() time.Time { return time.Date(2026, 1, 30, 12, 0, 0, 0, time.UTC) }
	return s
}

func TestKnowledge(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Knowledge(context.Background())
	if err != nil {
		t.Fatalf("knowledge: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry (header and incomplete row skipped), got %+v", entries)
	}
	if entries[0].Answer != "refunds within 30 days" {
		t.Fatalf("unexpected entry: %+v", entries[0])
	}
}

func TestListAvailable(t *testing.T) {
	s := openTestStore(t)

	slots, err := s.ListAvailable(context.Background(), "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// past and booked rows are excluded
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %+v", slots)
	}
	if slots[0].Date != "2026-01-31" || slots[0].Time != "15:00" {
		t.Fatalf("unexpected first slot: %+v", slots[0])
	}

	filtered, err := s.ListAvailable(context.Background(), "2026-02-01")
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Time != "10:00" {
		t.Fatalf("unexpected filtered slots: %+v", filtered)
	}
}

func TestReserve_PersistsAcrossReopen(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.Reserve(ctx, "2026-01-31", "15:00", "Ivan", "ivan@mail.ru")
	if err != nil || !res.Success {
		t.Fatalf("reserve failed: %+v, %v", res, err)
	}

	// The slot must be gone even through a fresh read of the file.
	slots, err := s.ListAvailable(ctx, "2026-01-31")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("booked slot still available: %+v", slots)
	}
}

func TestReserve_ConflictAndMissing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	res, err := s.Reserve(ctx, "2026-01-31", "16:00", "Ivan", "ivan@mail.ru")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.Success || res.Message != "This slot is already booked by Anna" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = s.Reserve(ctx, "2026-03-01", "09:00", "Ivan", "ivan@mail.ru")
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if res.Success || res.Message != "Slot not found or not available" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

var _ schedule.SlotStore = (*Store)(nil)
