package chatbot

import (
	"fmt"

	"furniture-miniapp/internal/config"

	"go.uber.org/zap"
)

// ChatbotService answers bot updates with links into the storefront.
type ChatbotService interface {
	HandleWebhook(webhookData []byte) error
	SendStorefrontLink(chatID int64, text string) error
	// RegisterWebhook points Telegram at the configured webhook URL, if any.
	RegisterWebhook() error
}

type chatbotService struct {
	logger          *zap.Logger
	provider        TelegramProvider
	parser          *WebhookParser
	keyboardBuilder *KeyboardBuilder
	config          config.TelegramConfig
}

// NewChatbotService creates the bot service on top of provider.
func NewChatbotService(provider TelegramProvider, cfg config.TelegramConfig, logger *zap.Logger) ChatbotService {
	return &chatbotService{
		logger:          logger,
		provider:        provider,
		parser:          NewWebhookParser(),
		keyboardBuilder: NewKeyboardBuilder(cfg.WebAppURL),
		config:          cfg,
	}
}

func (s *chatbotService) RegisterWebhook() error {
	if s.config.WebhookURL == "" {
		return nil
	}
	return s.provider.SetWebhook(s.config.WebhookURL)
}

// HandleWebhook processes one update. Updates that carry nothing to answer
// are ignored.
func (s *chatbotService) HandleWebhook(webhookData []byte) error {
	update, err := s.parser.ParseUpdate(webhookData)
	if err != nil {
		s.logger.Error("Failed to parse webhook update", zap.Error(err))
		return WrapParsingError(err, "telegram_update")
	}

	messageType := s.parser.DetermineMessageType(update)
	logger := s.logger.With(
		zap.Int("updateID", update.UpdateID),
		zap.String("messageType", string(messageType)))

	if messageType == MessageTypeOther || messageType == MessageTypeCallback {
		logger.Debug("Ignoring update")
		return nil
	}

	chatID, err := s.parser.GetChatID(update)
	if err != nil {
		logger.Error("Failed to extract chat ID", zap.Error(err))
		return WrapParsingError(err, "chat_id")
	}

	var reply Reply
	switch messageType {
	case MessageTypeCommand:
		command, err := s.parser.ExtractCommand(update.Message)
		if err != nil {
			return WrapParsingError(err, "command")
		}
		logger.Info("Processing command", zap.String("command", string(command)), zap.Int64("chatID", chatID))
		reply = replyFor(command, update.Message.From)
	default:
		reply = Reply{Text: hintText}
	}

	return s.send(chatID, reply)
}

func (s *chatbotService) SendStorefrontLink(chatID int64, text string) error {
	return s.send(chatID, Reply{Text: text, WithStorefront: true})
}

func (s *chatbotService) send(chatID int64, reply Reply) error {
	var err error
	switch {
	case reply.WithStorefront && s.keyboardBuilder.Enabled():
		err = s.provider.SendMessageWithKeyboard(chatID, reply.Text, s.keyboardBuilder.BuildStorefrontKeyboard())
	case reply.WithStorefront:
		s.logger.Warn("telegram.webapp_url is not set, sending storefront reply without a button")
		err = s.provider.SendMessage(chatID, reply.Text)
	default:
		err = s.provider.SendMessage(chatID, reply.Text)
	}
	if err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}
