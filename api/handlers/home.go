package handlers

import (
	"net/http"
	"strconv"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/webapp"

	"github.com/gin-gonic/gin"
)

// HomePageSize is the number of products per home page.
const HomePageSize = 6

var homeLinks = []Link{
	{ID: "profile", Label: "Профиль", Icon: "👤", Path: "/profile"},
	{ID: "favorites", Label: "Избранное", Icon: "⭐", Path: "/favorites"},
	{ID: "settings", Label: "Настройки", Icon: "⚙️", Path: "/settings"},
}

type splashView struct {
	Title       string         `json:"title"`
	LoadingText string         `json:"loading_text"`
	Ready       bool           `json:"ready"`
	Redirect    string         `json:"redirect"`
	Host        *webapp.Launch `json:"host"`
}

type homeView struct {
	Greeting          string              `json:"greeting"`
	SearchPlaceholder string              `json:"search_placeholder"`
	SearchQuery       string              `json:"search_query"`
	Categories        []state.CategoryTab `json:"categories"`
	ActiveCategory    string              `json:"active_category"`
	Products          []ProductView       `json:"products"`
	Page              int                 `json:"page"`
	PageSize          int                 `json:"page_size"`
	Total             int                 `json:"total"`
	HasMore           bool                `json:"has_more"`
	Status            state.Status        `json:"status"`
	LoadingText       string              `json:"loading_text,omitempty"`
	Error             string              `json:"error,omitempty"`
	Empty             *Notice             `json:"empty,omitempty"`
	QuickLinks        []Link              `json:"quick_links"`
}

// Splash answers the launch screen: the host is readied and the client is
// sent on to /home.
func (h *ScreenHandler) Splash(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	effects := middleware.EffectsFrom(c)
	effects.Ready()
	effects.Expand()
	effects.EnableClosingConfirmation()
	effects.Navigate("/home")

	render(c, http.StatusOK, "splash", splashView{
		Title:       "Мебель AR",
		LoadingText: "Загрузка...",
		Ready:       s.Ready(),
		Redirect:    "/home",
		Host:        middleware.LaunchFrom(c),
	})
}

// Home renders the storefront: category tabs, a locally filtered product
// grid paged by HomePageSize and quick links.
func (h *ScreenHandler) Home(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if category, set := c.GetQuery("category"); set && category != s.Products.Snapshot().ActiveCategory {
		middleware.EffectsFrom(c).SelectionChanged()
		if err := s.Products.SetCategory(ctx, category); err != nil && common.IsValidation(err) {
			renderError(c, http.StatusBadRequest, "home", err.Error())
			return
		}
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	if q, set := c.GetQuery("q"); set {
		s.Products.SetSearchQuery(q)
	}
	snap := s.Products.Snapshot()
	query := snap.SearchQuery
	filtered := s.Products.FilteredProducts(query)

	start := (page - 1) * HomePageSize
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + HomePageSize
	if end > len(filtered) {
		end = len(filtered)
	}

	view := homeView{
		Greeting:          "👋 Привет, " + firstNonEmpty(s.Identity.FirstName, "Гость") + "!",
		SearchPlaceholder: "Поиск мебели...",
		SearchQuery:       query,
		Categories:        activeTabs(snap.Categories),
		ActiveCategory:    snap.ActiveCategory,
		Products:          productViews(filtered[start:end], s.Favorites),
		Page:              page,
		PageSize:          HomePageSize,
		Total:             len(filtered),
		HasMore:           end < len(filtered),
		Status:            snap.Status,
		Error:             snap.Error,
		QuickLinks:        homeLinks,
	}
	if snap.Loading() {
		view.LoadingText = "Загрузка товаров..."
	}
	if !snap.Loading() && len(filtered) == 0 {
		view.Empty = &Notice{Icon: "🔍", Title: "Ничего не найдено", Text: "Попробуйте изменить поисковый запрос"}
	}

	render(c, http.StatusOK, "home", view)
}

func activeTabs(tabs []state.CategoryTab) []state.CategoryTab {
	out := make([]state.CategoryTab, 0, len(tabs))
	for _, t := range tabs {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}
