package handlers

import (
	"errors"
	"net/http"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/webapp"

	"github.com/gin-gonic/gin"
)

type favoritesView struct {
	Title       string        `json:"title"`
	Items       []ProductView `json:"items"`
	Count       int           `json:"count"`
	Status      state.Status  `json:"status"`
	LoadingText string        `json:"loading_text,omitempty"`
	Error       string        `json:"error,omitempty"`
	Empty       *Notice       `json:"empty,omitempty"`
}

var favoritesEmpty = Notice{
	Icon:   "⭐",
	Title:  "Пока пусто",
	Text:   "Добавленные в избранное товары появятся здесь",
	Action: &Link{Label: "Перейти в каталог", Path: "/catalog"},
}

// Favorites reloads and renders the caller's favorites.
func (h *ScreenHandler) Favorites(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	if err := s.Favorites.Load(c.Request.Context()); err != nil {
		h.log(c).Warnw("Favorites reload failed", "error", err)
	}
	render(c, http.StatusOK, "favorites", favoritesScreen(s.Favorites))
}

// RemoveFavorite drops one product from the favorites screen.
func (h *ScreenHandler) RemoveFavorite(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	middleware.EffectsFrom(c).NotificationOccurred(webapp.NotificationWarning)

	id, valid := productID(c)
	if !valid {
		renderError(c, http.StatusBadRequest, "favorites", "invalid product id")
		return
	}

	title := ""
	for _, item := range s.Favorites.Snapshot().Items {
		if item.ID == id {
			title = item.Title
			break
		}
	}

	if _, err := s.Favorites.Remove(c.Request.Context(), id, title); err != nil {
		favoritesFailure(c, s, err)
		return
	}
	render(c, http.StatusOK, "favorites", favoritesScreen(s.Favorites))
}

// ClearFavorites removes every favorite of the caller.
func (h *ScreenHandler) ClearFavorites(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	middleware.EffectsFrom(c).NotificationOccurred(webapp.NotificationWarning)

	if _, err := s.Favorites.Clear(c.Request.Context()); err != nil {
		favoritesFailure(c, s, err)
		return
	}
	render(c, http.StatusOK, "favorites", favoritesScreen(s.Favorites))
}

func favoritesFailure(c *gin.Context, s *state.Session, err error) {
	status := http.StatusServiceUnavailable
	if errors.Is(err, state.ErrUserNotInitialized) {
		status = http.StatusConflict
	}
	renderError(c, status, "favorites", s.Favorites.Snapshot().Error)
}

func favoritesScreen(f *state.Favorites) favoritesView {
	snap := f.Snapshot()
	items := make([]ProductView, 0, len(snap.Items))
	for _, card := range snap.Items {
		items = append(items, productView(card, true))
	}

	view := favoritesView{
		Title:  "⭐ Избранное",
		Items:  items,
		Count:  len(items),
		Status: snap.Status,
		Error:  snap.Error,
	}
	switch {
	case snap.Status == state.StatusLoading:
		view.LoadingText = "Загрузка избранного..."
	case len(items) == 0:
		empty := favoritesEmpty
		view.Empty = &empty
	}
	return view
}
