package telegram

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/licensegate/licensegate/internal/domain/notification"
	sharedConfig "github.com/licensegate/licensegate/internal/shared/config"
)

const maxRetryAfter = 5 * time.Second

// Notifier delivers notification messages to the configured owner chat.
type Notifier struct {
	bot    *BotService
	config sharedConfig.TelegramConfig
}

func NewNotifier(config sharedConfig.TelegramConfig) *Notifier {
	return &Notifier{bot: NewBotService(config), config: config}
}

func (n *Notifier) Name() string { return "telegram" }

func (n *Notifier) Enabled() bool {
	return n.config.Enabled()
}

func (n *Notifier) Send(ctx context.Context, msg notification.Message) error {
	if !n.Enabled() {
		return nil
	}
	text := fmt.Sprintf("<b>%s</b>\n\n%s", html.EscapeString(msg.Subject), html.EscapeString(msg.Body))
	for _, chunk := range splitMessage(text, maxMessageLength) {
		if err := n.send(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// send posts one chunk, honouring a single 429 retry_after when it is short.
func (n *Notifier) send(ctx context.Context, text string) error {
	err := n.bot.SendMessage(ctx, n.config.ChatID, text)
	if wait, ok := RetryAfter(err); ok {
		if wait > maxRetryAfter {
			return err
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		err = n.bot.SendMessage(ctx, n.config.ChatID, text)
	}
	if IsBotBlocked(err) {
		return fmt.Errorf("bot cannot post to chat %d: %w", n.config.ChatID, err)
	}
	return err
}

var _ notification.Notifier = (*Notifier)(nil)
