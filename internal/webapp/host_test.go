package webapp

import (
	"net/url"
	"strconv"
	"testing"
	"time"

	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const testToken = "123456:TEST-TOKEN"

func initData(authDate time.Time, user string) url.Values {
	v := url.Values{}
	v.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	if user != "" {
		v.Set("user", user)
	}
	return v
}

func TestRealHost_Resolve(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := common.NewMockClock(now)
	host := NewRealHost(testToken, 24*time.Hour, clock, zaptest.NewLogger(t))

	raw := SignInitData(initData(now.Add(-time.Minute), `{"id":555,"first_name":"Иван","username":"ivan","language_code":"ru"}`), testToken)

	launch, err := host.Resolve(raw, ClientHints{Platform: "ios", Version: "7.2"})
	require.NoError(t, err)
	assert.Equal(t, int64(555), launch.User.ID)
	assert.Equal(t, "Иван", launch.User.FirstName)
	assert.Equal(t, "ru", launch.User.LanguageCode)
	assert.Equal(t, "ios", launch.Platform)
	assert.Equal(t, "7.2", launch.Version)
	assert.Equal(t, "light", launch.ColorScheme)
	assert.Equal(t, DefaultTheme, launch.Theme)
	assert.Equal(t, "AAHdF6IQAAAAAN0XohDhrOrc", launch.QueryID)
}

func TestRealHost_Rejects(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	host := NewRealHost(testToken, time.Hour, common.NewMockClock(now), zaptest.NewLogger(t))
	user := `{"id":1,"first_name":"A"}`

	tampered, err := url.ParseQuery(SignInitData(initData(now, user), testToken))
	require.NoError(t, err)
	tampered.Set("user", `{"id":2,"first_name":"B"}`)

	tests := []struct {
		name     string
		initData string
		want     error
	}{
		{name: "empty", initData: "", want: ErrInitDataMissing},
		{name: "no hash", initData: initData(now, user).Encode(), want: ErrInitDataInvalid},
		{name: "wrong token", initData: SignInitData(initData(now, user), "other:token"), want: ErrInitDataInvalid},
		{name: "tampered", initData: tampered.Encode(), want: ErrInitDataInvalid},
		{name: "expired", initData: SignInitData(initData(now.Add(-2*time.Hour), user), testToken), want: ErrInitDataExpired},
		{name: "no user", initData: SignInitData(initData(now, ""), testToken), want: ErrNoUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := host.Resolve(tt.initData, ClientHints{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMockHost(t *testing.T) {
	host := NewMockHost(zaptest.NewLogger(t))

	launch, err := host.Resolve("ignored", ClientHints{Platform: "android"})
	require.NoError(t, err)
	assert.Equal(t, int64(12345), launch.User.ID)
	assert.Equal(t, "Test", launch.User.FirstName)
	assert.Equal(t, "User", launch.User.LastName)
	assert.Equal(t, "testuser", launch.User.Username)
	assert.Equal(t, "unknown", launch.Platform)
	assert.Equal(t, "7.0", launch.Version)
	assert.Equal(t, "light", launch.ColorScheme)

	fx := host.Effects()
	fx.ImpactOccurred(ImpactMedium)
	fx.Navigate("/home")
	assert.Empty(t, fx.List())
}

func TestRealHost_EffectsRecorded(t *testing.T) {
	host := NewRealHost(testToken, 0, nil, zaptest.NewLogger(t))

	fx := host.Effects()
	fx.ShowBackButton()
	fx.ImpactOccurred("")
	fx.NotificationOccurred(NotificationWarning)
	fx.ShowMainButton("Купить")

	assert.Equal(t, []Effect{
		{Type: EffectBackButtonShow},
		{Type: EffectHapticImpact, Value: ImpactLight},
		{Type: EffectHapticNotification, Value: NotificationWarning},
		{Type: EffectMainButtonText, Value: "Купить"},
		{Type: EffectMainButtonShow},
	}, fx.List())

	assert.NotSame(t, fx, host.Effects())
	assert.Empty(t, host.Effects().List())
}

func TestNewHost_Selection(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.TelegramConfig
		want    string
		wantErr bool
	}{
		{name: "auto without token", cfg: config.TelegramConfig{Mode: "auto"}, want: ModeMock},
		{name: "auto with token", cfg: config.TelegramConfig{Mode: "auto", BotToken: testToken}, want: ModeTelegram},
		{name: "empty mode", cfg: config.TelegramConfig{}, want: ModeMock},
		{name: "forced mock", cfg: config.TelegramConfig{Mode: "mock", BotToken: testToken}, want: ModeMock},
		{name: "telegram", cfg: config.TelegramConfig{Mode: "telegram", BotToken: testToken}, want: ModeTelegram},
		{name: "telegram without token", cfg: config.TelegramConfig{Mode: "telegram"}, wantErr: true},
		{name: "unknown", cfg: config.TelegramConfig{Mode: "web"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, err := NewHost(tt.cfg, nil, zaptest.NewLogger(t))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, host.Name())
		})
	}
}
