package webapp

import (
	"time"

	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
)

// MockUser is the identity served by MockHost.
var MockUser = common.TelegramUser{
	ID:        12345,
	FirstName: "Test",
	LastName:  "User",
	Username:  "testuser",
}

// MockHost serves every request as MockUser. Development only.
type MockHost struct {
	logger *zap.Logger
}

func NewMockHost(logger *zap.Logger) *MockHost {
	return &MockHost{logger: logger}
}

func (h *MockHost) Name() string { return ModeMock }

// Effects are logged and dropped.
func (h *MockHost) Effects() *Effects { return newEffects(false, h.logger) }

// Resolve ignores the init data and the client hints.
func (h *MockHost) Resolve(string, ClientHints) (*Launch, error) {
	return &Launch{
		User:        MockUser,
		AuthDate:    time.Now().UTC(),
		Platform:    "unknown",
		Version:     "7.0",
		ColorScheme: "light",
		Theme:       DefaultTheme,
	}, nil
}
