package handlers

import (
	"io"
	"net/http"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/chatbot"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// WebhookHandler handles Telegram bot webhook requests
type WebhookHandler struct {
	chatbotService chatbot.ChatbotService
	logger         *logger.Logger
}

func NewWebhookHandler(chatbotService chatbot.ChatbotService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		chatbotService: chatbotService,
		logger:         logger,
	}
}

// HandleTelegramWebhook processes an incoming update. Telegram retries
// anything but 200, so failures are logged and acknowledged.
func (h *WebhookHandler) HandleTelegramWebhook(c *gin.Context) {
	log := middleware.LoggerFrom(c, h.logger)

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Errorw("Failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}
	if len(body) == 0 {
		log.Warnw("Received empty webhook body")
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	if contentType := c.ContentType(); contentType != "application/json" {
		log.Warnw("Unexpected content type", "content_type", contentType)
	}

	if err := h.chatbotService.HandleWebhook(body); err != nil {
		log.Errorw("Failed to process webhook",
			"error", err,
			"body_size", len(body),
			"temporary", chatbot.IsTemporaryError(err))
		c.JSON(http.StatusOK, gin.H{"ok": true})
		return
	}

	log.Debugw("Webhook processed", "body_size", len(body))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// SetupWebhook re-registers the configured webhook URL with Telegram.
func (h *WebhookHandler) SetupWebhook(c *gin.Context) {
	log := middleware.LoggerFrom(c, h.logger)

	if err := h.chatbotService.RegisterWebhook(); err != nil {
		log.Errorw("Webhook registration failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	log.Infow("Webhook registered")
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
