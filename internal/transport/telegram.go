// Package transport subscribes to the payment-notification bot. The bot is
// an external event source: all this package does is long-poll Telegram and
// hand raw text messages to the router.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/johnrak/payrelay/internal/relay"
)

// Handler consumes one inbound text message.
type Handler func(ctx context.Context, msg relay.Message)

// Options configures the Telegram listener.
type Options struct {
	BotToken    string
	PollTimeout time.Duration
	// DropPending discards updates that accumulated while the listener was
	// down, so a restart does not replay stale notifications.
	DropPending bool
}

// TelegramListener long-polls the Telegram bot API for new messages.
type TelegramListener struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
	opts   Options
}

// NewTelegramListener authenticates against the bot API.
func NewTelegramListener(opts Options, logger *slog.Logger) (*TelegramListener, error) {
	bot, err := tgbotapi.NewBotAPI(opts.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 60 * time.Second
	}
	return &TelegramListener{bot: bot, logger: logger, opts: opts}, nil
}

// Listen delivers every text message to handler until ctx is cancelled.
// Non-text updates (photos, stickers, service messages) are skipped.
func (l *TelegramListener) Listen(ctx context.Context, handler Handler) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = int(l.opts.PollTimeout.Seconds())

	if l.opts.DropPending {
		offset, err := l.pendingOffset()
		if err != nil {
			l.logger.Warn("could not drop pending updates", "error", err)
		} else {
			cfg.Offset = offset
		}
	}

	l.logger.Info("telegram listener started", "bot", l.bot.Self.UserName)

	updates := l.bot.GetUpdatesChan(cfg)
	for {
		select {
		case <-ctx.Done():
			l.bot.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			handler(ctx, relay.Message{
				ID:     update.Message.MessageID,
				ChatID: update.Message.Chat.ID,
				Text:   update.Message.Text,
			})
		}
	}
}

// pendingOffset fetches the current backlog head so polling starts after it.
func (l *TelegramListener) pendingOffset() (int, error) {
	pending, err := l.bot.GetUpdates(tgbotapi.UpdateConfig{Offset: -1, Limit: 1})
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}
	return pending[len(pending)-1].UpdateID + 1, nil
}
