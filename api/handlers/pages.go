package handlers

import (
	"net/http"

	"furniture-miniapp/api/middleware"

	"github.com/gin-gonic/gin"
)

// ComingSoonPages maps the placeholder screens to their titles.
var ComingSoonPages = map[string]string{
	"/orders":                "Мои заказы",
	"/help":                  "Помощь",
	"/profile/edit":          "Редактирование профиля",
	"/profile/notifications": "Настройки уведомлений",
	"/profile/privacy":       "Приватность",
	"/settings":              "Настройки",
	"/about":                 "О приложении",
}

// ComingSoon renders the placeholder screen titled title.
func ComingSoon(title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.EffectsFrom(c).ShowBackButton()
		render(c, http.StatusOK, "coming_soon", Notice{
			Icon:   "🚧",
			Title:  title,
			Text:   "Эта функция скоро появится!",
			Action: &Link{Label: "Назад", Back: true},
		})
	}
}

func NotFound(c *gin.Context) {
	render(c, http.StatusNotFound, "not_found", Notice{
		Icon:   "404",
		Title:  "Страница не найдена",
		Text:   "Запрашиваемая страница не существует.",
		Action: &Link{Label: "На главную", Path: "/home"},
	})
}

// RedirectNotFound sends unmatched routes to /404.
func RedirectNotFound(c *gin.Context) {
	c.Redirect(http.StatusFound, "/404")
}
