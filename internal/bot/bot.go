// Package bot is the Telegram command surface. It translates commands into
// registry calls and picks the reply text; all domain rules live elsewhere.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	sl "github.com/NiklasMM/ebk-bot/internal/lib/logger"
	"github.com/NiklasMM/ebk-bot/internal/models"
	"github.com/NiklasMM/ebk-bot/internal/source"
	"github.com/NiklasMM/ebk-bot/internal/storage"
	"github.com/NiklasMM/ebk-bot/internal/watches"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Registry interface {
	StartWatch(ctx context.Context, searchTerm, destination string) error
	StopWatch(ctx context.Context, searchTerm string) error
	Watches(ctx context.Context) ([]models.Watch, error)
}

type Bot struct {
	log      *slog.Logger
	api      *tgbotapi.BotAPI
	registry Registry
}

func New(log *slog.Logger, api *tgbotapi.BotAPI, registry Registry) *Bot {
	return &Bot{
		log:      log,
		api:      api,
		registry: registry,
	}
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.handleMessage"

	log := b.log.With(
		slog.String("op", op),
		slog.Int64("chat_id", msg.Chat.ID),
	)

	if !msg.IsCommand() {
		if msg.Text != "" {
			b.reply(log, msg.Chat.ID, msg.Text)
		}
		return
	}

	switch msg.Command() {
	case "start":
		b.reply(log, msg.Chat.ID, "I'm a bot, please talk to me!")
	case "start_watching":
		b.reply(log, msg.Chat.ID, b.startWatching(ctx, msg.CommandArguments(), msg.Chat.ID))
	case "stop_watching":
		b.reply(log, msg.Chat.ID, b.stopWatching(ctx, msg.CommandArguments()))
	case "status":
		b.reply(log, msg.Chat.ID, b.status(ctx))
	}
}

func (b *Bot) startWatching(ctx context.Context, args string, chatID int64) string {
	term := strings.TrimSpace(args)
	destination := strconv.FormatInt(chatID, 10)

	err := b.registry.StartWatch(ctx, term, destination)
	switch {
	case err == nil:
		return fmt.Sprintf("Ok, I'll start watching '%s'", term)
	case errors.Is(err, watches.ErrEmptySearchTerm):
		return "Tell me what to watch, e.g. /start_watching sofa"
	case errors.Is(err, storage.ErrWatchExists):
		return "Hm, looks like I'm watching that already."
	case errors.Is(err, source.ErrUnavailable):
		return "I couldn't reach the site just now, please try again in a bit."
	default:
		b.log.Error("start watch failed", sl.Err(err))
		return "Something went wrong, sorry."
	}
}

func (b *Bot) stopWatching(ctx context.Context, args string) string {
	term := strings.TrimSpace(args)

	err := b.registry.StopWatch(ctx, term)
	switch {
	case err == nil:
		return "Ok. I'll no longer watch " + term
	case errors.Is(err, watches.ErrEmptySearchTerm):
		return "Tell me what to stop watching, e.g. /stop_watching sofa"
	case errors.Is(err, storage.ErrWatchNotFound):
		return "I don't think I am watching that."
	default:
		b.log.Error("stop watch failed", sl.Err(err))
		return "Something went wrong, sorry."
	}
}

func (b *Bot) status(ctx context.Context) string {
	watchList, err := b.registry.Watches(ctx)
	if err != nil {
		b.log.Error("failed to list watches", sl.Err(err))
		return "Something went wrong, sorry."
	}

	var sb strings.Builder
	sb.WriteString("I'm currently watching: \n")
	for _, w := range watchList {
		sb.WriteString("- " + w.SearchTerm + "\n")
	}

	return sb.String()
}

func (b *Bot) reply(log *slog.Logger, chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Error("failed to send reply", sl.Err(err))
	}
}
