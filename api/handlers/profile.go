package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/state"
	users "furniture-miniapp/internal/user"

	"github.com/gin-gonic/gin"
)

// RecentActivityLimit is the number of activity entries on the profile.
const RecentActivityLimit = 5

// RecentlyViewedLimit is the number of product views on the profile.
const RecentlyViewedLimit = 3

var profileMenu = []Link{
	{ID: "edit", Label: "Редактировать профиль", Icon: "✏️", Path: "/profile/edit"},
	{ID: "orders", Label: "Мои заказы", Icon: "📦", Path: "/orders"},
	{ID: "notifications", Label: "Уведомления", Icon: "🔔", Path: "/profile/notifications"},
	{ID: "privacy", Label: "Приватность", Icon: "🔒", Path: "/profile/privacy"},
	{ID: "help", Label: "Помощь", Icon: "❓", Path: "/help"},
	{ID: "about", Label: "О приложении", Icon: "ℹ️", Path: "/about"},
}

var monthsRu = [...]string{
	"январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
}

// StatRow is one line of the profile statistics block.
type StatRow struct {
	Label     string `json:"label"`
	Value     string `json:"value"`
	Highlight bool   `json:"highlight,omitempty"`
}

type profileView struct {
	DisplayName    string           `json:"display_name"`
	Username       string           `json:"username,omitempty"`
	PhotoURL       string           `json:"photo_url,omitempty"`
	AvatarInitial  string           `json:"avatar_initial"`
	Level          string           `json:"level,omitempty"`
	User           *users.User      `json:"user"`
	Stats          *users.Stats     `json:"stats"`
	StatRows       []StatRow        `json:"stat_rows"`
	FavoritesCount int              `json:"favorites_count"`
	RecentActivity []activity.Entry `json:"recent_activity"`
	RecentlyViewed []activity.Entry `json:"recently_viewed"`
	Menu           []Link           `json:"menu"`
	Logout         Notice           `json:"logout"`
	Status         state.Status     `json:"status"`
	Error          string           `json:"error,omitempty"`
}

// Profile renders the caller's profile, stats and recent activity. Stats
// and activity are best effort.
func (h *ScreenHandler) Profile(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := s.User.RefreshStatsBestEffort(ctx); err != nil {
		h.log(c).Warnw("Profile stats not refreshed", "error", err)
	}

	recent, viewed := []activity.Entry{}, []activity.Entry{}
	if h.activity != nil && s.User.ID() != 0 {
		entries, err := h.activity.ListForUser(ctx, s.User.ID(), RecentActivityLimit, 0)
		if err != nil {
			h.log(c).Warnw("Recent activity not loaded", "error", err)
		} else {
			recent = entries
		}

		views, err := h.activity.ListByType(ctx, s.User.ID(), activity.TypeView, RecentlyViewedLimit)
		if err != nil {
			h.log(c).Warnw("Recently viewed not loaded", "error", err)
		} else {
			viewed = views
		}
	}

	snap := s.User.Snapshot()
	tg := s.Identity
	firstName := tg.FirstName
	if snap.User != nil && snap.User.FirstName != "" {
		firstName = snap.User.FirstName
	}

	view := profileView{
		DisplayName:    strings.TrimSpace(firstNonEmpty(firstName, "User") + " " + tg.LastName),
		Username:       tg.Username,
		PhotoURL:       tg.PhotoURL,
		AvatarInitial:  avatarInitial(firstName),
		User:           snap.User,
		Stats:          snap.Stats,
		StatRows:       statRows(snap.User, snap.Stats),
		FavoritesCount: s.Favorites.Count(),
		RecentActivity: recent,
		RecentlyViewed: viewed,
		Menu:           profileMenu,
		Logout:         Notice{Icon: "🚪", Title: "Выход", Text: "Функция выхода скоро будет доступна!"},
		Status:         snap.Status,
		Error:          snap.Error,
	}
	if snap.Stats != nil {
		view.Level = snap.Stats.Level
	}
	render(c, http.StatusOK, "profile", view)
}

func avatarInitial(firstName string) string {
	for _, r := range firstName {
		return string(r)
	}
	return "U"
}

func statRows(u *users.User, stats *users.Stats) []StatRow {
	since := "—"
	if u != nil && !u.CreatedAt.IsZero() {
		since = MemberSince(u.CreatedAt)
	}
	var items, likes, reviews int
	if stats != nil {
		items, likes, reviews = stats.TotalItems, stats.TotalLikes, stats.TotalReviews
	}

	rows := []StatRow{
		{Label: "С нами с", Value: since},
		{Label: "Всего заказов", Value: strconv.Itoa(items)},
		{Label: "Отметок \"нравится\"", Value: strconv.Itoa(likes)},
		{Label: "Отзывов написано", Value: strconv.Itoa(reviews)},
	}
	if stats != nil {
		rows = append(rows, StatRow{Label: "Баллы", Value: strconv.Itoa(stats.Points) + " б", Highlight: true})
	}
	return rows
}

// MemberSince renders t as a Russian "month year" label.
func MemberSince(t time.Time) string {
	return monthsRu[t.Month()-1] + " " + strconv.Itoa(t.Year()) + " г."
}
