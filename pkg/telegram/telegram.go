package telegram

import (
	"fmt"
	"time"

	"golang-backtest/config"
	"golang-backtest/pkg/logger"

	"gopkg.in/telebot.v3"
)

// Notifier pushes run and sweep summaries to a Telegram chat. It is an
// optional collaborator: a nil Notifier is safe to call.
type Notifier struct {
	bot    *telebot.Bot
	chatID int64
	log    *logger.Logger
}

// NewNotifier connects the bot. Returns nil (not an error) when the
// feature is disabled in config.
func NewNotifier(cfg *config.TelegramConfig, log *logger.Logger) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	bot, err := telebot.NewBot(telebot.Settings{
		Token:  cfg.BotToken,
		Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c telebot.Context) {
			log.Error("Telegram bot error", logger.ErrorField(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &Notifier{bot: bot, chatID: cfg.ChatID, log: log}, nil
}

// SendMessage sends a plain text message to the configured chat.
func (n *Notifier) SendMessage(text string) error {
	if n == nil {
		return nil
	}
	_, err := n.bot.Send(telebot.ChatID(n.chatID), text)
	if err != nil {
		n.log.Error("Failed to send telegram message", logger.ErrorField(err))
	}
	return err
}
