package chatbot

import (
	"encoding/json"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// WebhookParser provides utilities for parsing Telegram webhook updates
type WebhookParser struct{}

// NewWebhookParser creates a new WebhookParser instance
func NewWebhookParser() *WebhookParser {
	return &WebhookParser{}
}

// ParseUpdate unmarshals webhook data into a Telegram Update struct
func (p *WebhookParser) ParseUpdate(updateData []byte) (*tgbotapi.Update, error) {
	if len(updateData) == 0 {
		return nil, fmt.Errorf("empty update data")
	}

	var update tgbotapi.Update
	if err := json.Unmarshal(updateData, &update); err != nil {
		return nil, fmt.Errorf("failed to unmarshal update data: %w", err)
	}

	if update.UpdateID == 0 {
		return nil, fmt.Errorf("invalid update: missing update ID")
	}

	return &update, nil
}

// DetermineMessageType classifies the update
func (p *WebhookParser) DetermineMessageType(update *tgbotapi.Update) MessageType {
	switch {
	case update.CallbackQuery != nil:
		return MessageTypeCallback
	case update.Message == nil:
		return MessageTypeOther
	case update.Message.IsCommand():
		return MessageTypeCommand
	default:
		return MessageTypeText
	}
}

// ExtractCommand parses bot commands from messages. Unknown commands are
// returned as-is so the caller can answer with a hint.
func (p *WebhookParser) ExtractCommand(message *tgbotapi.Message) (Command, error) {
	if message == nil {
		return "", fmt.Errorf("message is nil")
	}
	if !message.IsCommand() {
		return "", fmt.Errorf("message is not a command")
	}
	return Command("/" + strings.ToLower(message.Command())), nil
}

// GetChatID extracts the chat to answer in
func (p *WebhookParser) GetChatID(update *tgbotapi.Update) (int64, error) {
	if update == nil {
		return 0, fmt.Errorf("update is nil")
	}
	if update.Message == nil && update.CallbackQuery != nil && update.CallbackQuery.Message == nil {
		return 0, fmt.Errorf("callback query has no message")
	}
	if chat := update.FromChat(); chat != nil {
		return chat.ID, nil
	}
	return 0, fmt.Errorf("no chat information found in update")
}

// GetSender extracts the user that triggered the update
func (p *WebhookParser) GetSender(update *tgbotapi.Update) (*tgbotapi.User, error) {
	if update == nil {
		return nil, fmt.Errorf("update is nil")
	}
	if user := update.SentFrom(); user != nil {
		return user, nil
	}
	return nil, fmt.Errorf("no user information found in update")
}
