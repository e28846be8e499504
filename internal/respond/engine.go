// Package respond composes the matcher, the intent detector, the command
// parser and the slot store into the per-message reply pipeline. Every
// inbound message resolves to exactly one delivered text reply; no error in
// this package is fatal.
package respond

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sardorismatullaev707-collab/suprt/internal/command"
	"github.com/sardorismatullaev707-collab/suprt/internal/intent"
	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/llm"
	"github.com/sardorismatullaev707-collab/suprt/internal/metrics"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/internal/session"
	"github.com/sardorismatullaev707-collab/suprt/internal/storage/sqlite"
	"github.com/sardorismatullaev707-collab/suprt/pkg/logger"
)

// Reply branches.
const (
	BranchKnowledge = "knowledge"
	BranchSchedule  = "schedule"
	BranchLLM       = "llm"
	BranchFallback  = "fallback"
	BranchRejected  = "rejected"
)

// Completer is the LLM boundary: one ordered message list in, one text
// completion out.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
}

// Recorder persists the interaction log. Optional; logging failures never
// block a reply.
type Recorder interface {
	RecordInteraction(ctx context.Context, rec sqlite.Interaction) error
}

type Config struct {
	// HistoryTurns bounds the per-session history, prompt history included.
	HistoryTurns     int
	SlotListLimit    int
	MaxMessageLength int
}

type Reply struct {
	Text    string
	Branch  string
	Booking *schedule.BookingResult
}

type Engine struct {
	kb        []knowledge.Entry
	slots     schedule.SlotStore
	sessions  session.Store
	completer Completer
	recorder  Recorder
	cfg       Config
	now       func() time.Time
}

func NewEngine(kb []knowledge.Entry, slots schedule.SlotStore, sessions session.Store, completer Completer, recorder Recorder, cfg Config) *Engine {
	if cfg.HistoryTurns <= 0 {
		cfg.HistoryTurns = 8
	}
	if cfg.SlotListLimit <= 0 {
		cfg.SlotListLimit = 15
	}
	if cfg.MaxMessageLength <= 0 {
		cfg.MaxMessageLength = 500
	}
	return &Engine{
		kb:        kb,
		slots:     slots,
		sessions:  sessions,
		completer: completer,
		recorder:  recorder,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Handle answers one inbound message. The decision order implements the
// booking-context-aware policy: a knowledge-base hit only short-circuits the
// LLM when neither the message nor the session carries booking intent, so a
// contact-bearing follow-up stays in the booking exchange.
func (e *Engine) Handle(ctx context.Context, conversationID, text string) (Reply, error) {
	start := time.Now()
	text = strings.TrimSpace(text)

	if text == "" || utf8.RuneCountInString(text) > e.cfg.MaxMessageLength {
		reply := Reply{Text: rejectedMessage(text), Branch: BranchRejected}
		e.finish(ctx, conversationID, text, reply, start)
		return reply, nil
	}

	st, err := e.sessions.Get(ctx, conversationID)
	if err != nil {
		logger.Warn("Failed to load session, starting fresh",
			zap.String("conversation_id", conversationID), zap.Error(err))
		st = session.State{}
	}

	wants := intent.WantsScheduling(text) || st.BookingContext

	var reply Reply
	if wants {
		reply = e.scheduleBranch(ctx, st, text)
	} else if m := knowledge.BestMatch(text, e.kb); m != nil {
		reply = Reply{Text: m.Answer, Branch: BranchKnowledge}
	} else {
		reply = e.plainBranch(ctx, st, text)
	}

	st.Turns = session.TrimTurns(append(st.Turns,
		session.Turn{Role: session.RoleUser, Content: text},
		session.Turn{Role: session.RoleAssistant, Content: reply.Text},
	), e.cfg.HistoryTurns)
	bookingDone := reply.Booking != nil && reply.Booking.Success
	st.BookingContext = wants && !bookingDone
	if err := e.sessions.Put(ctx, conversationID, st); err != nil {
		logger.Warn("Failed to store session",
			zap.String("conversation_id", conversationID), zap.Error(err))
	}

	e.finish(ctx, conversationID, text, reply, start)
	return reply, nil
}

func (e *Engine) scheduleBranch(ctx context.Context, st session.State, text string) Reply {
	slots, err := e.slots.ListAvailable(ctx, "")
	if err != nil {
		logger.Error("Failed to list slots", zap.Error(err))
		return e.fallback(text, err)
	}

	rendered := schedule.FormatSlots(slots, e.cfg.SlotListLimit)
	msgs := e.messages(schedulePrompt(e.now(), rendered, e.kb), st, text)

	comp, err := e.completer.Complete(ctx, msgs)
	if err != nil {
		logger.Error("LLM completion failed", zap.Error(err))
		return e.fallback(text, err)
	}
	countTokens(comp)

	res := command.Parse(comp.Content)
	switch res.Status {
	case command.Malformed:
		logger.Warn("LLM emitted malformed booking command", zap.Error(res.Err))
		metrics.BookingAttempts.WithLabelValues("malformed").Inc()
		return Reply{
			Text:   command.ReplaceToken(comp.Content, malformedMessage(text)),
			Branch: BranchSchedule,
		}
	case command.Ok:
		return e.executeBooking(ctx, comp.Content, res.Booking)
	default:
		return Reply{Text: strings.TrimSpace(comp.Content), Branch: BranchSchedule}
	}
}

// executeBooking attempts the reservation exactly once and substitutes the
// command token with the human-readable outcome.
func (e *Engine) executeBooking(ctx context.Context, llmText string, b command.Booking) Reply {
	result, err := e.slots.Reserve(ctx, b.Date, b.Time, b.Name, b.Contact)
	if err != nil {
		logger.Error("Reservation failed", zap.Error(err),
			zap.String("date", b.Date), zap.String("time", b.Time))
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		result = schedule.BookingResult{Success: false, Message: bookingErrorMessage(llmText)}
	} else if result.Success {
		metrics.BookingAttempts.WithLabelValues("success").Inc()
	} else {
		metrics.BookingAttempts.WithLabelValues("conflict").Inc()
	}

	return Reply{
		Text:    command.ReplaceToken(llmText, result.Message),
		Branch:  BranchSchedule,
		Booking: &result,
	}
}

func (e *Engine) plainBranch(ctx context.Context, st session.State, text string) Reply {
	msgs := e.messages(plainPrompt(e.kb), st, text)

	comp, err := e.completer.Complete(ctx, msgs)
	if err != nil {
		logger.Error("LLM completion failed", zap.Error(err))
		return e.fallback(text, err)
	}
	countTokens(comp)

	return Reply{Text: strings.TrimSpace(comp.Content), Branch: BranchLLM}
}

// fallback resolves a failed LLM or store call to a static reply: first a
// last-resort partial knowledge-base match, then a fixed message in the
// user's apparent language.
func (e *Engine) fallback(text string, cause error) Reply {
	if m := knowledge.PartialMatch(text, e.kb); m != nil {
		return Reply{Text: m.Answer, Branch: BranchFallback}
	}
	return Reply{Text: fallbackMessage(text, cause), Branch: BranchFallback}
}

// messages assembles system prompt + trimmed prior history + the newest
// message.
func (e *Engine) messages(system string, st session.State, text string) []llm.Message {
	msgs := make([]llm.Message, 0, e.cfg.HistoryTurns+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: system})
	for _, t := range session.TrimTurns(st.Turns, e.cfg.HistoryTurns-1) {
		msgs = append(msgs, llm.Message{Role: string(t.Role), Content: t.Content})
	}
	return append(msgs, llm.Message{Role: llm.RoleUser, Content: text})
}

func (e *Engine) finish(ctx context.Context, conversationID, text string, reply Reply, start time.Time) {
	metrics.MessagesTotal.WithLabelValues(reply.Branch).Inc()
	metrics.ReplyDuration.Observe(time.Since(start).Seconds())

	e.record(ctx, conversationID, "inbound", text, reply.Branch)
	e.record(ctx, conversationID, "outbound", reply.Text, reply.Branch)
}

func (e *Engine) record(ctx context.Context, conversationID, direction, text, branch string) {
	if e.recorder == nil {
		return
	}
	err := e.recorder.RecordInteraction(ctx, sqlite.Interaction{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Direction:      direction,
		Text:           text,
		Branch:         branch,
		CreatedAt:      time.Now(),
	})
	if err != nil {
		logger.Warn("Failed to record interaction", zap.Error(err))
	}
}

func countTokens(comp *llm.Completion) {
	metrics.LLMTokensUsed.WithLabelValues("prompt").Add(float64(comp.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues("completion").Add(float64(comp.CompletionTokens))
}
