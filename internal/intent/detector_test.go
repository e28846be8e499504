package intent

import "testing"

func TestWantsScheduling(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"booking vocabulary", "I want to book a meeting tomorrow", true},
		{"plain question", "What are your office hours?", false},
		{"unrelated text", "Tell me more regarding the refunds", false},
		{"email address", "Иван ivan@mail.ru", true},
		{"phone number", "call me at 8 912 345-67-89", true},
		{"short digit run", "order 1234 arrived", false},
		{"clock time", "подходит в 15:00", true},
		{"dotted clock time", "maybe 9.30 works", true},
		{"iso date", "how about 2026-01-31", true},
		{"russian day plus month", "да, мне подходит 31 января", true},
		{"english day plus month", "what about 31 January", true},
		{"bare affirmative", "Да!", true},
		{"affirmative inside word is ignored", "мне нравится ваша продажа", false},
		{"russian vocabulary", "хочу записаться на приём", true},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WantsScheduling(tt.query); got != tt.want {
				t.Fatalf("WantsScheduling(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestHasContactInfo(t *testing.T) {
	if !HasContactInfo("reach me: ivan@mail.ru") {
		t.Fatal("email not detected")
	}
	if !HasContactInfo("+7 999-123-45-67") {
		t.Fatal("phone not detected")
	}
	if HasContactInfo("meet at house 12") {
		t.Fatal("short digit run must not count as contact info")
	}
}
