package respond

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sardorismatullaev707-collab/suprt/internal/knowledge"
	"github.com/sardorismatullaev707-collab/suprt/internal/llm"
	"github.com/sardorismatullaev707-collab/suprt/internal/schedule"
	"github.com/sardorismatullaev707-collab/suprt/internal/session"
)

type stubCompleter struct {
	replies []string
	err     error
	calls   [][]llm.Message
}

func (s *stubCompleter) Complete(_ context.Context, msgs []llm.Message) (*llm.Completion, error) {
	s.calls = append(s.calls, msgs)
	if s.err != nil {
		return nil, s.err
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return &llm.Completion{Content: reply}, nil
}

type reserveCall struct {
	date, timeOfDay, name, contact string
}

type stubSlotStore struct {
	slots      []schedule.Slot
	listErr    error
	result     schedule.BookingResult
	reserveErr error
	reserved   []reserveCall
}

func (s *stubSlotStore) ListAvailable(_ context.Context, _ string) ([]schedule.Slot, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.slots, nil
}

func (s *stubSlotStore) Reserve(_ context.Context, date, timeOfDay, name, contact string) (schedule.BookingResult, error) {
	s.reserved = append(s.reserved, reserveCall{date, timeOfDay, name, contact})
	if s.reserveErr != nil {
		return schedule.BookingResult{}, s.reserveErr
	}
	return s.result, nil
}

func newTestEngine(kb []knowledge.Entry, slots *stubSlotStore, completer *stubCompleter) (*Engine, *session.Memory) {
	sessions := session.NewMemory(time.Hour, 100)
	e := NewEngine(kb, slots, sessions, completer, nil, Config{})
	e.now = func() time.Time {
		return time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	}
	return e, sessions
}

func refundKB() []knowledge.Entry {
	return []knowledge.Entry{
		{Question: "What's your refund policy?", Answer: "You can request a refund within 30 days of purchase."},
		{Question: "When can I visit you?", Answer: "We're open weekdays 9 to 6."},
	}
}

func TestHandle_KnowledgeHitSkipsLLM(t *testing.T) {
	completer := &stubCompleter{replies: []string{"should not be called"}}
	e, _ := newTestEngine(refundKB(), &stubSlotStore{}, completer)

	reply, err := e.Handle(context.Background(), "c1", "what's your refund policy?")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Branch != BranchKnowledge {
		t.Fatalf("expected knowledge branch, got %q", reply.Branch)
	}
	if reply.Text != "You can request a refund within 30 days of purchase." {
		t.Fatalf("unexpected answer: %q", reply.Text)
	}
	if len(completer.calls) != 0 {
		t.Fatalf("LLM must not be consulted on a knowledge hit, got %d calls", len(completer.calls))
	}
}

func TestHandle_BookingFlowAcrossTurns(t *testing.T) {
	slots := &stubSlotStore{
		slots: []schedule.Slot{{Date: "2026-01-31", Time: "15:00"}},
		result: schedule.BookingResult{
			Success: true,
			Message: "Successfully booked on 2026-01-31 at 15:00",
		},
	}
	completer := &stubCompleter{replies: []string{
		"Отлично! Подскажите, пожалуйста, ваше имя и контакт для записи.",
		"Спасибо! BOOK:2026-01-31|15:00|Иван|ivan@mail.ru",
	}}
	e, sessions := newTestEngine(refundKB(), slots, completer)
	ctx := context.Background()

	reply, err := e.Handle(ctx, "c1", "Здравствуйте! Можно записаться на 31 января в 15:00?")
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if reply.Branch != BranchSchedule {
		t.Fatalf("expected schedule branch, got %q", reply.Branch)
	}
	if len(slots.reserved) != 0 {
		t.Fatal("no reservation expected before the command is emitted")
	}
	if st, _ := sessions.Get(ctx, "c1"); !st.BookingContext {
		t.Fatal("booking context must be set after the first scheduling turn")
	}

	// A bare name+contact turn carries no scheduling keywords; only the
	// session context routes it back into the booking flow.
	reply, err = e.Handle(ctx, "c1", "Иван, ivan@mail.ru")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}

	if len(slots.reserved) != 1 {
		t.Fatalf("expected exactly one reservation, got %d", len(slots.reserved))
	}
	got := slots.reserved[0]
	want := reserveCall{"2026-01-31", "15:00", "Иван", "ivan@mail.ru"}
	if got != want {
		t.Fatalf("reservation args: got %+v, want %+v", got, want)
	}

	if strings.Contains(reply.Text, "BOOK:") {
		t.Fatalf("command token leaked to the user: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, "Спасибо!") ||
		!strings.Contains(reply.Text, "Successfully booked on 2026-01-31 at 15:00") {
		t.Fatalf("unexpected reply: %q", reply.Text)
	}
	if reply.Booking == nil || !reply.Booking.Success {
		t.Fatalf("expected successful booking result, got %+v", reply.Booking)
	}

	if st, _ := sessions.Get(ctx, "c1"); st.BookingContext {
		t.Fatal("booking context must clear after a successful reservation")
	}

	// Second LLM call must carry the first exchange as history.
	if len(completer.calls) != 2 {
		t.Fatalf("expected 2 LLM calls, got %d", len(completer.calls))
	}
	second := completer.calls[1]
	if len(second) != 4 {
		t.Fatalf("expected system + 2 history + current, got %d messages", len(second))
	}
	if second[0].Role != llm.RoleSystem || !strings.Contains(second[0].Content, "BOOK:YYYY-MM-DD|HH:MM|name|contact") {
		t.Fatalf("system prompt missing command protocol: %q", second[0].Content)
	}
	if second[1].Content != "Здравствуйте! Можно записаться на 31 января в 15:00?" {
		t.Fatalf("history not carried: %q", second[1].Content)
	}
}

func TestHandle_ContactFollowUpIgnoresKnowledgeBase(t *testing.T) {
	// An entry that would keyword-match the follow-up must not hijack the
	// booking exchange once the session carries booking context.
	kb := []knowledge.Entry{
		{Question: "Иван", Answer: "Иван is our manager."},
	}
	slots := &stubSlotStore{result: schedule.BookingResult{Success: true, Message: "done"}}
	completer := &stubCompleter{replies: []string{"Уточните контакт.", "BOOK:2026-01-31|15:00|Иван|+7 999 123 45 67"}}
	e, _ := newTestEngine(kb, slots, completer)
	ctx := context.Background()

	if _, err := e.Handle(ctx, "c1", "хочу записаться на завтра"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	reply, err := e.Handle(ctx, "c1", "Иван")
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if reply.Branch != BranchSchedule {
		t.Fatalf("follow-up must stay in the booking flow, got branch %q", reply.Branch)
	}
}

func TestHandle_MalformedCommandReplaced(t *testing.T) {
	slots := &stubSlotStore{}
	completer := &stubCompleter{replies: []string{"Готово! BOOK:2026-01-31||Иван|ivan@mail.ru"}}
	e, _ := newTestEngine(nil, slots, completer)

	reply, err := e.Handle(context.Background(), "c1", "запишите меня, пожалуйста")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}

	if len(slots.reserved) != 0 {
		t.Fatal("malformed command must not reach the store")
	}
	if strings.Contains(reply.Text, "BOOK:") {
		t.Fatalf("command token leaked: %q", reply.Text)
	}
	if !strings.HasPrefix(reply.Text, "Готово!") {
		t.Fatalf("surrounding text lost: %q", reply.Text)
	}
	if !strings.Contains(reply.Text, malformedRU) {
		t.Fatalf("expected visible booking error, got %q", reply.Text)
	}
}

func TestHandle_ConflictKeepsBookingContext(t *testing.T) {
	slots := &stubSlotStore{
		result: schedule.BookingResult{Success: false, Message: "This slot is already booked by Anna"},
	}
	completer := &stubCompleter{replies: []string{"BOOK:2026-01-31|15:00|Ivan|ivan@mail.com"}}
	e, sessions := newTestEngine(nil, slots, completer)
	ctx := context.Background()

	reply, err := e.Handle(ctx, "c1", "book me for tomorrow 15:00, Ivan ivan@mail.com")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.Contains(reply.Text, "already booked by Anna") {
		t.Fatalf("conflict message not surfaced: %q", reply.Text)
	}
	if st, _ := sessions.Get(ctx, "c1"); !st.BookingContext {
		t.Fatal("booking context must survive a failed reservation")
	}
}

func TestHandle_LLMFailurePartialMatch(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream down")}
	e, _ := newTestEngine(refundKB(), &stubSlotStore{}, completer)

	reply, err := e.Handle(context.Background(), "c1", "book a visit please")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if reply.Branch != BranchFallback {
		t.Fatalf("expected fallback branch, got %q", reply.Branch)
	}
	if reply.Text != "We're open weekdays 9 to 6." {
		t.Fatalf("expected last-resort partial match, got %q", reply.Text)
	}
}

func TestHandle_LLMFailureApology(t *testing.T) {
	completer := &stubCompleter{err: errors.New("upstream down")}
	e, _ := newTestEngine(nil, &stubSlotStore{}, completer)
	ctx := context.Background()

	reply, _ := e.Handle(ctx, "c1", "tell me something interesting")
	if reply.Text != apologyEN {
		t.Fatalf("expected English apology, got %q", reply.Text)
	}

	reply, _ = e.Handle(ctx, "c2", "расскажи что-нибудь интересное")
	if reply.Text != apologyRU {
		t.Fatalf("expected Russian apology, got %q", reply.Text)
	}
}

func TestHandle_NotConfigured(t *testing.T) {
	completer := &stubCompleter{err: llm.ErrNotConfigured}
	e, _ := newTestEngine(nil, &stubSlotStore{}, completer)

	reply, _ := e.Handle(context.Background(), "c1", "tell me something interesting")
	if reply.Branch != BranchFallback || reply.Text != notConfiguredEN {
		t.Fatalf("expected not-configured fallback, got %q / %q", reply.Branch, reply.Text)
	}
}

func TestHandle_SlotListErrorFallsBack(t *testing.T) {
	slots := &stubSlotStore{listErr: errors.New("sheet unreachable")}
	completer := &stubCompleter{replies: []string{"unused"}}
	e, _ := newTestEngine(nil, slots, completer)

	reply, _ := e.Handle(context.Background(), "c1", "I want to book a meeting tomorrow")
	if reply.Branch != BranchFallback {
		t.Fatalf("expected fallback branch, got %q", reply.Branch)
	}
	if len(completer.calls) != 0 {
		t.Fatal("LLM must not be consulted when the slot list is unavailable")
	}
}

func TestHandle_RejectsEmptyAndOverlong(t *testing.T) {
	completer := &stubCompleter{replies: []string{"unused"}}
	e, _ := newTestEngine(nil, &stubSlotStore{}, completer)
	ctx := context.Background()

	reply, _ := e.Handle(ctx, "c1", "   ")
	if reply.Branch != BranchRejected {
		t.Fatalf("expected rejected branch for empty text, got %q", reply.Branch)
	}

	reply, _ = e.Handle(ctx, "c1", strings.Repeat("a", 501))
	if reply.Branch != BranchRejected {
		t.Fatalf("expected rejected branch for overlong text, got %q", reply.Branch)
	}
	if len(completer.calls) != 0 {
		t.Fatal("rejected messages must not reach the LLM")
	}
}

func TestHandle_HistoryTrimmed(t *testing.T) {
	completer := &stubCompleter{replies: []string{"ok"}}
	sessions := session.NewMemory(time.Hour, 100)
	e := NewEngine(nil, &stubSlotStore{}, sessions, completer, nil, Config{HistoryTurns: 2})
	ctx := context.Background()

	for _, msg := range []string{"first question", "second question", "third question"} {
		if _, err := e.Handle(ctx, "c1", msg); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}

	st, _ := sessions.Get(ctx, "c1")
	if len(st.Turns) != 2 {
		t.Fatalf("expected history trimmed to 2 turns, got %d", len(st.Turns))
	}
	if st.Turns[0].Content != "third question" {
		t.Fatalf("expected newest turns kept, got %+v", st.Turns)
	}
}
