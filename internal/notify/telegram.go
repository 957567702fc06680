package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts messages to a single chat
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender initializes the bot API with the given token
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// NewTelegramSenderWithEndpoint is NewTelegramSender against a custom Bot API
// endpoint such as a local bot server. The endpoint is a format string taking
// the token and the method.
func NewTelegramSenderWithEndpoint(token, endpoint string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Send posts text to the configured chat
func (s *TelegramSender) Send(text string) error {
	msg := tgbotapi.NewMessage(s.chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
