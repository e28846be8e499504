package command

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_EmbeddedToken(t *testing.T) {
	res := Parse("Sure! BOOK:2026-01-31|15:00|Ivan|ivan@mail.com")
	if res.Status != Ok {
		t.Fatalf("status = %v, err = %v", res.Status, res.Err)
	}
	want := Booking{Date: "2026-01-31", Time: "15:00", Name: "Ivan", Contact: "ivan@mail.com"}
	if res.Booking != want {
		t.Fatalf("booking = %+v, want %+v", res.Booking, want)
	}
}

func TestParse_ContactCutAtNewline(t *testing.T) {
	res := Parse("BOOK:2026-01-31|15:00|Ivan|ivan@mail.com\nSee you soon!")
	if res.Status != Ok {
		t.Fatalf("status = %v, err = %v", res.Status, res.Err)
	}
	if res.Booking.Contact != "ivan@mail.com" {
		t.Fatalf("contact = %q", res.Booking.Contact)
	}
}

func TestParse_EmptyField(t *testing.T) {
	res := Parse("BOOK:2026-01-31||Ivan|ivan@mail.com")
	if res.Status != Malformed {
		t.Fatalf("status = %v, want Malformed", res.Status)
	}
	var verr *ValidationError
	if !errors.As(res.Err, &verr) || verr.Field != "time" {
		t.Fatalf("err = %v, want empty time field", res.Err)
	}
}

func TestParse_TooFewFields(t *testing.T) {
	res := Parse("BOOK:2026-01-31|15:00")
	if res.Status != Malformed {
		t.Fatalf("status = %v, want Malformed", res.Status)
	}
}

func TestParse_Absent(t *testing.T) {
	res := Parse("We have slots on Friday, pick one.")
	if res.Status != Absent {
		t.Fatalf("status = %v, want Absent", res.Status)
	}
}

func TestParse_CyrillicFields(t *testing.T) {
	res := Parse("Отлично!\nBOOK:2026-01-31|15:00|Иван|ivan@mail.ru\nЖдём вас.")
	if res.Status != Ok {
		t.Fatalf("status = %v, err = %v", res.Status, res.Err)
	}
	if res.Booking.Name != "Иван" || res.Booking.Contact != "ivan@mail.ru" {
		t.Fatalf("booking = %+v", res.Booking)
	}
}

func TestReplaceToken(t *testing.T) {
	in := "Отлично!\nBOOK:2026-01-31|15:00|Иван|ivan@mail.ru\nЖдём вас."
	out := ReplaceToken(in, "Вы записаны на 2026-01-31 15:00.")

	if strings.Contains(out, "BOOK:") {
		t.Fatalf("token leaked into reply: %q", out)
	}
	if !strings.Contains(out, "Вы записаны") || !strings.Contains(out, "Ждём вас.") {
		t.Fatalf("surrounding text lost: %q", out)
	}
}

func TestReplaceToken_NoToken(t *testing.T) {
	if got := ReplaceToken("plain reply", "x"); got != "plain reply" {
		t.Fatalf("got %q", got)
	}
}
