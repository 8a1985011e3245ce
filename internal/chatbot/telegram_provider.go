package chatbot

import (
	"fmt"

	"furniture-miniapp/internal/config"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramProvider implements TelegramProvider with the telegram-bot-api
// client.
type telegramProvider struct {
	bot    *tgbotapi.BotAPI
	logger *zap.Logger
}

// NewTelegramProvider connects to the Bot API and validates the token.
func NewTelegramProvider(cfg config.TelegramConfig, logger *zap.Logger) (TelegramProvider, error) {
	if cfg.BotToken == "" {
		return nil, NewConfigurationError("telegram.bot_token", "telegram bot token is required", "")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	logger.Info("Telegram bot initialized successfully", zap.String("username", bot.Self.UserName))

	return &telegramProvider{bot: bot, logger: logger}, nil
}

func (p *telegramProvider) SendMessage(chatID int64, text string) error {
	return p.send(tgbotapi.NewMessage(chatID, text), "send_message")
}

func (p *telegramProvider) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return p.send(msg, "send_message_with_keyboard")
}

func (p *telegramProvider) send(msg tgbotapi.MessageConfig, operation string) error {
	msg.ParseMode = tgbotapi.ModeHTML

	p.logger.Debug("Sending message",
		zap.String("operation", operation),
		zap.Int64("chatID", msg.ChatID),
		zap.Int("textLength", len(msg.Text)))

	if _, err := p.bot.Send(msg); err != nil {
		p.logger.Error("Failed to send message",
			zap.String("operation", operation),
			zap.Int64("chatID", msg.ChatID),
			zap.Error(err))
		return WrapTelegramError(err, operation)
	}
	return nil
}

func (p *telegramProvider) SetWebhook(webhookURL string) error {
	p.logger.Info("Setting webhook", zap.String("webhookURL", webhookURL))

	webhookConfig, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return NewConfigurationError("telegram.webhook_url", err.Error(), webhookURL)
	}

	if _, err := p.bot.Request(webhookConfig); err != nil {
		p.logger.Error("Failed to set webhook", zap.String("webhookURL", webhookURL), zap.Error(err))
		return WrapTelegramError(err, "set_webhook")
	}
	return nil
}

func (p *telegramProvider) DeleteWebhook() error {
	p.logger.Info("Deleting webhook")

	if _, err := p.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		p.logger.Error("Failed to delete webhook", zap.Error(err))
		return WrapTelegramError(err, "delete_webhook")
	}
	return nil
}

func (p *telegramProvider) GetMe() (*tgbotapi.User, error) {
	me, err := p.bot.GetMe()
	if err != nil {
		return nil, WrapTelegramError(err, "get_me")
	}
	return &me, nil
}
