package chatbot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// LogProvider is used when no bot token is configured: it logs outgoing
// messages instead of sending them.
type LogProvider struct {
	logger *zap.Logger
}

func NewLogProvider(logger *zap.Logger) *LogProvider {
	return &LogProvider{logger: logger}
}

func (p *LogProvider) SendMessage(chatID int64, text string) error {
	p.logger.Info("Bot disabled, dropping message", zap.Int64("chatID", chatID), zap.String("text", text))
	return nil
}

func (p *LogProvider) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	p.logger.Info("Bot disabled, dropping message",
		zap.Int64("chatID", chatID),
		zap.String("text", text),
		zap.Int("keyboardRows", len(keyboard.InlineKeyboard)))
	return nil
}

func (p *LogProvider) SetWebhook(string) error { return nil }

func (p *LogProvider) DeleteWebhook() error { return nil }

func (p *LogProvider) GetMe() (*tgbotapi.User, error) {
	return &tgbotapi.User{UserName: "disabled", IsBot: true}, nil
}
