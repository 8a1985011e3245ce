package middleware

import (
	"errors"
	"net/http"
	"strings"

	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Headers the Mini-App client sends with every screen request.
const (
	HeaderInitData    = "X-Telegram-Init-Data"
	HeaderPlatform    = "X-Telegram-Platform"
	HeaderVersion     = "X-Telegram-Version"
	HeaderColorScheme = "X-Telegram-Color-Scheme"

	authScheme = "tma "

	keySession = "session"
	keyLaunch  = "launch"
	keyEffects = "effects"
)

// InitData extracts the raw init data from the dedicated header or from
// "Authorization: tma <initData>".
func InitData(r *http.Request) string {
	if v := r.Header.Get(HeaderInitData); v != "" {
		return v
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > len(authScheme) && strings.EqualFold(auth[:len(authScheme)], authScheme) {
		return strings.TrimSpace(auth[len(authScheme):])
	}
	return ""
}

// Identity resolves the caller through host and attaches the caller's
// session, launch parameters and a fresh effect recorder to the context.
func Identity(host webapp.Host, registry *state.Registry, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLogger := LoggerFrom(c, log)

		launch, err := host.Resolve(InitData(c.Request), webapp.ClientHints{
			Platform:    c.GetHeader(HeaderPlatform),
			Version:     c.GetHeader(HeaderVersion),
			ColorScheme: c.GetHeader(HeaderColorScheme),
		})
		if err != nil {
			reqLogger.Warnw("Rejected Mini-App request", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": identityMessage(err)})
			return
		}

		session, err := registry.Session(c.Request.Context(), launch.User)
		if err != nil {
			reqLogger.Errorw("Failed to open session", "telegram_id", launch.User.ID, "error", err)
			if common.IsValidation(err) {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			msg := "Failed to initialize user"
			if session != nil {
				if snap := session.User.Snapshot(); snap.Error != "" {
					msg = snap.Error
				}
			}
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": msg})
			return
		}

		c.Set(keyLogger, reqLogger.WithTelegramID(launch.User.ID))
		c.Set(keyLaunch, launch)
		c.Set(keySession, session)
		c.Set(keyEffects, host.Effects())
		c.Next()
	}
}

func identityMessage(err error) string {
	switch {
	case errors.Is(err, webapp.ErrInitDataMissing):
		return "Откройте магазин через Telegram"
	case errors.Is(err, webapp.ErrInitDataExpired):
		return "Сессия устарела, перезапустите приложение"
	default:
		return "Ошибка аутентификации"
	}
}

// SessionFrom returns the caller's session set by Identity.
func SessionFrom(c *gin.Context) *state.Session {
	if v, ok := c.Get(keySession); ok {
		if s, ok := v.(*state.Session); ok {
			return s
		}
	}
	return nil
}

func LaunchFrom(c *gin.Context) *webapp.Launch {
	if v, ok := c.Get(keyLaunch); ok {
		if l, ok := v.(*webapp.Launch); ok {
			return l
		}
	}
	return nil
}

// EffectsFrom returns the effect recorder of the current request. A nil
// recorder is safe to use and records nothing.
func EffectsFrom(c *gin.Context) *webapp.Effects {
	if v, ok := c.Get(keyEffects); ok {
		if e, ok := v.(*webapp.Effects); ok {
			return e
		}
	}
	return nil
}
