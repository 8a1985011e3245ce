package chatbot

import (
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ChatbotError defines the interface for chatbot-specific errors
type ChatbotError interface {
	error
	Code() string
	Message() string
	Temporary() bool
}

// TelegramAPIError represents errors from Telegram Bot API
type TelegramAPIError struct {
	Operation   string
	StatusCode  int
	Description string
	RetryAfter  int
	Cause       error
}

func (e TelegramAPIError) Error() string {
	return fmt.Sprintf("telegram API error during %s: %s (status: %d)", e.Operation, e.Description, e.StatusCode)
}

func (e TelegramAPIError) Code() string { return "TELEGRAM_API_ERROR" }

func (e TelegramAPIError) Message() string { return e.Description }

func (e TelegramAPIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode >= http.StatusInternalServerError ||
		e.RetryAfter > 0
}

func (e TelegramAPIError) Unwrap() error { return e.Cause }

// WebhookParsingError represents errors when parsing webhook data
type WebhookParsingError struct {
	UpdateType string
	Details    string
	Cause      error
}

func (e WebhookParsingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("webhook parsing error for %s: %s (caused by: %v)", e.UpdateType, e.Details, e.Cause)
	}
	return fmt.Sprintf("webhook parsing error for %s: %s", e.UpdateType, e.Details)
}

func (e WebhookParsingError) Code() string { return "WEBHOOK_PARSING_ERROR" }

func (e WebhookParsingError) Message() string { return e.Details }

func (e WebhookParsingError) Temporary() bool { return false }

func (e WebhookParsingError) Unwrap() error { return e.Cause }

// ConfigurationError represents invalid bot configuration
type ConfigurationError struct {
	Field  string
	Reason string
	Value  string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for field %s: %s (value: %s)", e.Field, e.Reason, e.Value)
}

func (e ConfigurationError) Code() string { return "CONFIGURATION_ERROR" }

func (e ConfigurationError) Message() string { return e.Reason }

func (e ConfigurationError) Temporary() bool { return false }

// WrapTelegramError wraps an error as a TelegramAPIError. Bot API errors
// keep their code and retry hint.
func WrapTelegramError(err error, operation string) error {
	if err == nil {
		return nil
	}

	apiErr := TelegramAPIError{
		Operation:   operation,
		StatusCode:  http.StatusInternalServerError,
		Description: err.Error(),
		Cause:       err,
	}
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		apiErr.StatusCode = tgErr.Code
		apiErr.Description = tgErr.Message
		apiErr.RetryAfter = tgErr.RetryAfter
	}
	return apiErr
}

// WrapParsingError wraps an error as a WebhookParsingError
func WrapParsingError(err error, updateType string) error {
	if err == nil {
		return nil
	}
	return WebhookParsingError{
		UpdateType: updateType,
		Details:    "failed to parse webhook data",
		Cause:      err,
	}
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(field, reason, value string) error {
	return ConfigurationError{Field: field, Reason: reason, Value: value}
}

// IsTemporaryError determines if an error is temporary
func IsTemporaryError(err error) bool {
	var chatbotErr ChatbotError
	if errors.As(err, &chatbotErr) {
		return chatbotErr.Temporary()
	}
	return false
}

// IsWebhookParsingError determines if an error is from webhook parsing
func IsWebhookParsingError(err error) bool {
	var parsingErr WebhookParsingError
	return errors.As(err, &parsingErr)
}
