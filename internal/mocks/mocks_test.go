package mocks

import (
	"errors"
	"testing"

	"furniture-miniapp/internal/chatbot"
	"furniture-miniapp/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

var (
	_ chatbot.TelegramProvider = (*MockTelegramProvider)(nil)
	_ chatbot.ChatbotService   = (*MockChatbotService)(nil)
	_ storage.Bucket           = (*MockBucket)(nil)
)

func TestMockChatbotService(t *testing.T) {
	m := &MockChatbotService{}
	m.On("HandleWebhook", mock.Anything).Return(errors.New("boom")).Once()
	m.On("SendStorefrontLink", int64(1), "hi").Return(nil)

	assert.Error(t, m.HandleWebhook([]byte("{}")))
	assert.NoError(t, m.SendStorefrontLink(1, "hi"))
	m.AssertExpectations(t)
}
