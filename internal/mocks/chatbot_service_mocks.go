package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockChatbotService is a testify mock of chatbot.ChatbotService.
type MockChatbotService struct {
	mock.Mock
}

func (m *MockChatbotService) HandleWebhook(webhookData []byte) error {
	args := m.Called(webhookData)
	return args.Error(0)
}

func (m *MockChatbotService) SendStorefrontLink(chatID int64, text string) error {
	args := m.Called(chatID, text)
	return args.Error(0)
}

func (m *MockChatbotService) RegisterWebhook() error {
	args := m.Called()
	return args.Error(0)
}
