package chatbot

import (
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Storefront sections reachable from the bot.
const (
	SectionCatalog   = "/catalog"
	SectionFavorites = "/favorites"
	SectionProfile   = "/profile"
)

// KeyboardBuilder creates the inline keyboards that open the Mini-App.
type KeyboardBuilder struct {
	webAppURL string
}

func NewKeyboardBuilder(webAppURL string) *KeyboardBuilder {
	return &KeyboardBuilder{webAppURL: strings.TrimRight(webAppURL, "/")}
}

// Enabled reports whether a storefront URL is configured.
func (kb *KeyboardBuilder) Enabled() bool {
	return kb.webAppURL != ""
}

// BuildStorefrontKeyboard returns the "open shop" button plus shortcuts to
// the catalog, favorites and profile.
func (kb *KeyboardBuilder) BuildStorefrontKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🛋 Открыть магазин", kb.SectionURL("")),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("📦 Каталог", kb.SectionURL(SectionCatalog)),
			tgbotapi.NewInlineKeyboardButtonURL("❤️ Избранное", kb.SectionURL(SectionFavorites)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("👤 Профиль", kb.SectionURL(SectionProfile)),
		),
	)
}

// SectionURL joins a Mini-App path onto the storefront URL.
func (kb *KeyboardBuilder) SectionURL(path string) string {
	if path == "" {
		return kb.webAppURL
	}
	u, err := url.Parse(kb.webAppURL)
	if err != nil {
		return kb.webAppURL + path
	}
	return u.JoinPath(path).String()
}
