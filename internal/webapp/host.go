// Package webapp is the bridge to the Telegram Mini-App host: it resolves
// who is calling and collects the host directives a screen action wants
// the client to perform.
package webapp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"

	"go.uber.org/zap"
)

const (
	ModeTelegram = "telegram"
	ModeMock     = "mock"
	ModeAuto     = "auto"
)

var (
	ErrInitDataMissing = errors.New("telegram init data is missing")
	ErrInitDataInvalid = errors.New("telegram init data signature is invalid")
	ErrInitDataExpired = errors.New("telegram init data has expired")
	ErrNoUser          = errors.New("telegram init data carries no user")
)

// ThemeParams are the host colors exposed to screens.
type ThemeParams struct {
	BgColor         string `json:"bg_color"`
	TextColor       string `json:"text_color"`
	HintColor       string `json:"hint_color"`
	LinkColor       string `json:"link_color"`
	ButtonColor     string `json:"button_color"`
	ButtonTextColor string `json:"button_text_color"`
}

// DefaultTheme is the light theme used when the client reports none.
var DefaultTheme = ThemeParams{
	BgColor:         "#ffffff",
	TextColor:       "#000000",
	HintColor:       "#999999",
	LinkColor:       "#3390ec",
	ButtonColor:     "#3390ec",
	ButtonTextColor: "#ffffff",
}

// ClientHints are what the client reports about its host alongside the
// init data.
type ClientHints struct {
	Platform    string
	Version     string
	ColorScheme string
}

// Launch describes the host a request comes from.
type Launch struct {
	User        common.TelegramUser `json:"user"`
	AuthDate    time.Time           `json:"auth_date"`
	QueryID     string              `json:"query_id,omitempty"`
	StartParam  string              `json:"start_param,omitempty"`
	Platform    string              `json:"platform"`
	Version     string              `json:"version"`
	ColorScheme string              `json:"color_scheme"`
	Theme       ThemeParams         `json:"theme_params"`
}

// Host is the capability screens use to learn the caller's identity and
// to direct the client. Callers never branch on the implementation.
type Host interface {
	Name() string
	// Resolve authenticates the raw init data sent by the client.
	Resolve(initData string, hints ClientHints) (*Launch, error)
	// Effects returns a fresh recorder for one screen action.
	Effects() *Effects
}

// NewHost picks the host implementation for cfg. "auto" chooses the real
// host when a bot token is configured.
func NewHost(cfg config.TelegramConfig, clock common.Clock, logger *zap.Logger) (Host, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeTelegram:
		if cfg.BotToken == "" {
			return nil, fmt.Errorf("telegram mode requires telegram.bot_token")
		}
	case ModeAuto:
		if cfg.BotToken == "" {
			mode = ModeMock
		} else {
			mode = ModeTelegram
		}
	case ModeMock:
	default:
		return nil, fmt.Errorf("unknown telegram mode %q", cfg.Mode)
	}

	if mode == ModeMock {
		logger.Warn("Telegram host is MOCKED: every request is served as the fixed development user. Do not run this in production.",
			zap.Int64("telegramID", MockUser.ID))
		return NewMockHost(logger), nil
	}

	maxAge := time.Duration(cfg.InitDataMaxAge) * time.Second
	logger.Info("Telegram host enabled", zap.Duration("initDataMaxAge", maxAge))
	return NewRealHost(cfg.BotToken, maxAge, clock, logger), nil
}

func withDefaults(l *Launch, hints ClientHints) {
	l.Platform = hints.Platform
	if l.Platform == "" {
		l.Platform = "unknown"
	}
	l.Version = hints.Version
	l.ColorScheme = hints.ColorScheme
	if l.ColorScheme == "" {
		l.ColorScheme = "light"
	}
	l.Theme = DefaultTheme
}
