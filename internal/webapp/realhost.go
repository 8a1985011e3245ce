package webapp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"furniture-miniapp/internal/common"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
)

// RealHost authenticates Telegram init data signed with the bot token.
type RealHost struct {
	token  string
	maxAge time.Duration
	clock  common.Clock
	logger *zap.Logger
}

func NewRealHost(botToken string, maxAge time.Duration, clock common.Clock, logger *zap.Logger) *RealHost {
	if clock == nil {
		clock = common.NewRealClock()
	}
	return &RealHost{
		token:  botToken,
		maxAge: maxAge,
		clock:  clock,
		logger: logger,
	}
}

func (h *RealHost) Name() string { return ModeTelegram }

func (h *RealHost) Effects() *Effects { return newEffects(true, h.logger) }

func (h *RealHost) Resolve(initData string, hints ClientHints) (*Launch, error) {
	if strings.TrimSpace(initData) == "" {
		return nil, ErrInitDataMissing
	}

	// Expiry is checked below against the host clock, not the library's.
	if err := initdata.Validate(initData, h.token, 0); err != nil {
		h.logger.Debug("Init data rejected", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInitDataInvalid, err)
	}

	data, err := initdata.Parse(initData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitDataInvalid, err)
	}

	authDate := data.AuthDate().UTC()
	if authDate.Unix() <= 0 {
		return nil, fmt.Errorf("%w: bad auth_date", ErrInitDataInvalid)
	}
	if h.maxAge > 0 && h.clock.Now().Sub(authDate) > h.maxAge {
		return nil, ErrInitDataExpired
	}

	if data.User.ID == 0 {
		return nil, ErrNoUser
	}

	launch := &Launch{
		User: common.TelegramUser{
			ID:           data.User.ID,
			FirstName:    data.User.FirstName,
			LastName:     data.User.LastName,
			Username:     data.User.Username,
			PhotoURL:     data.User.PhotoURL,
			LanguageCode: data.User.LanguageCode,
			IsPremium:    data.User.IsPremium,
		},
		AuthDate:   authDate,
		QueryID:    data.QueryID,
		StartParam: data.StartParam,
	}
	withDefaults(launch, hints)
	return launch, nil
}

// SignInitData adds a valid hash to values for botToken and returns the
// encoded init data string.
func SignInitData(values url.Values, botToken string) string {
	payload := make(map[string]string, len(values))
	signed := url.Values{}
	for k := range values {
		if k == "hash" {
			continue
		}
		payload[k] = values.Get(k)
		signed.Set(k, values.Get(k))
	}

	authUnix, _ := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	signed.Set("auth_date", strconv.FormatInt(authUnix, 10))
	signed.Set("hash", initdata.Sign(payload, botToken, time.Unix(authUnix, 0)))
	return signed.Encode()
}
