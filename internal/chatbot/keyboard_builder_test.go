package chatbot

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyboardBuilder_SectionURL(t *testing.T) {
	tests := []struct {
		base string
		path string
		want string
	}{
		{"https://shop.example.com", "", "https://shop.example.com"},
		{"https://shop.example.com/", SectionCatalog, "https://shop.example.com/catalog"},
		{"https://shop.example.com/app", SectionFavorites, "https://shop.example.com/app/favorites"},
	}
	for _, tt := range tests {
		t.Run(tt.base+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, NewKeyboardBuilder(tt.base).SectionURL(tt.path))
		})
	}
}

func TestKeyboardBuilder_Storefront(t *testing.T) {
	assert.False(t, NewKeyboardBuilder("").Enabled())

	kb := NewKeyboardBuilder("https://shop.example.com")
	require.True(t, kb.Enabled())

	markup := kb.BuildStorefrontKeyboard()
	require.Len(t, markup.InlineKeyboard, 3)
	assert.Len(t, markup.InlineKeyboard[1], 2)
	assert.Equal(t, "https://shop.example.com/profile", *markup.InlineKeyboard[2][0].URL)
}

func TestWebhookParser(t *testing.T) {
	p := NewWebhookParser()

	_, err := p.ParseUpdate(nil)
	assert.Error(t, err)

	update, err := p.ParseUpdate([]byte(`{"update_id":7,"callback_query":{"id":"1","from":{"id":9}}}`))
	require.NoError(t, err)
	assert.Equal(t, MessageTypeCallback, p.DetermineMessageType(update))

	_, err = p.GetChatID(update)
	assert.Error(t, err)

	sender, err := p.GetSender(update)
	require.NoError(t, err)
	assert.Equal(t, int64(9), sender.ID)

	cmd, err := p.ExtractCommand(&tgbotapi.Message{
		Text:     "/START@furniture_bot",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, CommandStart, cmd)

	_, err = p.ExtractCommand(&tgbotapi.Message{Text: "hello"})
	assert.Error(t, err)
}
