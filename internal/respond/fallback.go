package respond

import (
	"errors"
	"unicode"

	"github.com/sardorismatullaev707-collab/suprt/internal/llm"
)

// Static replies for the paths where no generated text is available. The
// language is picked from the inbound message: any Cyrillic rune selects the
// Russian variant.

const (
	apologyEN = "Sorry, I'm having trouble answering right now. Please try again in a minute or call us directly."
	apologyRU = "Извините, сейчас не получается ответить. Попробуйте, пожалуйста, через минуту или позвоните нам."

	notConfiguredEN = "I can only answer common questions at the moment. Please call us and we'll be happy to help."
	notConfiguredRU = "Сейчас я могу отвечать только на типовые вопросы. Пожалуйста, позвоните нам, и мы с радостью поможем."

	rejectedEN = "Sorry, I didn't understand that. Please send a shorter text message."
	rejectedRU = "Извините, я не понял сообщение. Пожалуйста, отправьте более короткий текст."

	malformedEN = "I couldn't complete the booking. Please give me the date, time, your name and contact info once more."
	malformedRU = "Не получилось оформить запись. Уточните, пожалуйста, дату, время, ваше имя и контакт ещё раз."

	bookingErrorEN = "Something went wrong while booking. Please try again in a minute."
	bookingErrorRU = "При записи произошла ошибка. Попробуйте, пожалуйста, ещё раз через минуту."
)

func fallbackMessage(text string, cause error) string {
	if errors.Is(cause, llm.ErrNotConfigured) {
		return pick(text, notConfiguredEN, notConfiguredRU)
	}
	return pick(text, apologyEN, apologyRU)
}

func rejectedMessage(text string) string {
	return pick(text, rejectedEN, rejectedRU)
}

func malformedMessage(text string) string {
	return pick(text, malformedEN, malformedRU)
}

func bookingErrorMessage(text string) string {
	return pick(text, bookingErrorEN, bookingErrorRU)
}

func pick(text, en, ru string) string {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return ru
		}
	}
	return en
}
