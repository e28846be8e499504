package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// Client is the SQLite-backed row store for the schedule, the knowledge base
// and the interaction log. It satisfies schedule.SlotStore.
type Client struct {
	db  *sql.DB
	now func() time.Time
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db, now: time.Now}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schedule (
		date TEXT NOT NULL,
		time TEXT NOT NULL,
		customer_name TEXT NOT NULL DEFAULT '',
		contact_info TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (date, time)
	);
	CREATE INDEX IF NOT EXISTS idx_schedule_date ON schedule(date);

	CREATE TABLE IF NOT EXISTS knowledge (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		question TEXT NOT NULL,
		answer TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		direction TEXT NOT NULL,
		text TEXT NOT NULL,
		branch TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_conversation ON interactions(conversation_id);
	CREATE INDEX IF NOT EXISTS idx_interactions_created ON interactions(created_at);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// LoadKnowledge reads the whole knowledge base. Rows with an empty question
// or answer are skipped, matching how the source sheet is curated.
func (c *Client) LoadKnowledge(ctx context.Context) ([]knowledge.Entry, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT TRIM(question), TRIM(answer) FROM knowledge ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge: %w", err)
	}
	defer rows.Close()

	var entries []knowledge.Entry
	for rows.Next() {
		var e knowledge.Entry
		if err := rows.Scan(&e.Question, &e.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if e.Question == "" || e.Answer == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (c *Client) AddKnowledgeEntry(ctx context.Context, question, answer string) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO knowledge (question, answer) VALUES (?, ?)`, question, answer)
	if err != nil {
		return fmt.Errorf("failed to insert knowledge entry: %w", err)
	}
	return nil
}

func (c *Client) AddSlot(ctx context.Context, date, timeOfDay string) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO schedule (date, time) VALUES (?, ?)`, date, timeOfDay)
	if err != nil {
		return fmt.Errorf("failed to insert slot: %w", err)
	}
	return nil
}

// ListAvailable returns unbooked slots with a date of today or later,
// ordered by date then time.
func (c *Client) ListAvailable(ctx context.Context, date string) ([]schedule.Slot, error) {
	query := `
		SELECT date, time, customer_name, contact_info
		FROM schedule
		WHERE customer_name = '' AND contact_info = ''
		ORDER BY date, time
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list slots: %w", err)
	}
	defer rows.Close()

	now := c.now()
	var slots []schedule.Slot
	for rows.Next() {
		var s schedule.Slot
		if err := rows.Scan(&s.Date, &s.Time, &s.Name, &s.Contact); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if schedule.IsPast(s.Date, now) {
			continue
		}
		if date != "" && s.Date != date {
			continue
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Reserve writes the occupant into the single matching row. The existing
// occupant is re-checked inside the transaction so a booked slot is never
// silently overwritten.
func (c *Client) Reserve(ctx context.Context, date, timeOfDay, name, contact string) (schedule.BookingResult, error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingName, existingContact string
	err = tx.QueryRowContext(ctx,
		`SELECT customer_name, contact_info FROM schedule WHERE date = ? AND time = ?`,
		date, timeOfDay,
	).Scan(&existingName, &existingContact)
	if errors.Is(err, sql.ErrNoRows) {
		return schedule.BookingResult{Success: false, Message: "Slot not found or not available"}, nil
	}
	if err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to read slot: %w", err)
	}

	if existingName != "" || existingContact != "" {
		occupant := existingName
		if occupant == "" {
			occupant = "someone"
		}
		return schedule.BookingResult{
			Success: false,
			Message: fmt.Sprintf("This slot is already booked by %s", occupant),
		}, nil
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE schedule SET customer_name = ?, contact_info = ? WHERE date = ? AND time = ?`,
		name, contact, date, timeOfDay,
	); err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to book slot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return schedule.BookingResult{}, fmt.Errorf("failed to commit booking: %w", err)
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

// Interaction is one logged inbound or outbound message.
type Interaction struct {
	ID             string
	ConversationID string
	Direction      string
	Text           string
	Branch         string
	CreatedAt      time.Time
}

func (c *Client) RecordInteraction(ctx context.Context, rec Interaction) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO interactions (id, conversation_id, direction, text, branch, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ConversationID, rec.Direction, rec.Text, rec.Branch, rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record interaction: %w", err)
	}
	return nil
}

func (c *Client) RecentInteractions(ctx context.Context, conversationID string, limit int) ([]Interaction, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, conversation_id, direction, text, branch, created_at
		FROM interactions
		WHERE conversation_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load interactions: %w", err)
	}
	defer rows.Close()

	var recs []Interaction
	for rows.Next() {
		var r Interaction
		var createdAt int64
		if err := rows.Scan(&r.ID, &r.ConversationID, &r.Direction, &r.Text, &r.Branch, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0)
		recs = append(recs, r)
	}
	return recs, rows.Err()
}
