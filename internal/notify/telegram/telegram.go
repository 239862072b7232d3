package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender delivers notification texts to a Telegram chat. The destination is
// the decimal chat ID the watch was registered from.
type Sender struct {
	api *tgbotapi.BotAPI
}

func New(api *tgbotapi.BotAPI) *Sender {
	return &Sender{api: api}
}

func (s *Sender) Send(_ context.Context, destination, text string) error {
	const op = "notify.telegram.Send"

	chatID, err := strconv.ParseInt(destination, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: bad chat id %q: %w", op, destination, err)
	}

	if _, err := s.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
