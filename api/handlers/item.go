package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/webapp"

	"github.com/gin-gonic/gin"
)

type itemView struct {
	ProductView
	Quantity     int    `json:"quantity"`
	StockLabel   string `json:"stock_label"`
	CartLabel    string `json:"cart_label"`
	CanAddToCart bool   `json:"can_add_to_cart"`
}

type favoriteToggleView struct {
	ProductID  int64 `json:"product_id"`
	IsFavorite bool  `json:"is_favorite"`
	Count      int   `json:"count"`
}

var productNotFound = Notice{
	Icon:   "😕",
	Title:  "Товар не найден",
	Text:   "Возможно, он был удален или больше не продается.",
	Action: &Link{Label: "Вернуться в каталог", Path: "/catalog"},
}

func productID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// Item renders the product detail screen and records the view.
func (h *ScreenHandler) Item(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	middleware.EffectsFrom(c).ShowBackButton()

	id, valid := productID(c)
	if !valid {
		render(c, http.StatusNotFound, "not_found", productNotFound)
		return
	}

	card, err := s.Products.ProductByID(c.Request.Context(), id)
	if err != nil {
		if common.IsNotFound(err) {
			render(c, http.StatusNotFound, "not_found", productNotFound)
			return
		}
		renderError(c, http.StatusServiceUnavailable, "item", s.Products.Snapshot().Error)
		return
	}

	h.recordView(c, s, card.ID, card.Title)

	quantity, err := strconv.Atoi(c.DefaultQuery("quantity", "1"))
	if err != nil || quantity < 1 {
		quantity = 1
	}

	view := itemView{
		ProductView:  productView(*card, s.Favorites.IsFavorite(card.ID)),
		Quantity:     quantity,
		CanAddToCart: card.InStock,
		StockLabel:   "Нет в наличии",
		CartLabel:    "Нет в наличии",
	}
	if card.InStock {
		view.StockLabel = "В наличии"
		view.CartLabel = "В корзину • " + FormatPrice(card.Price*float64(quantity))
	}
	render(c, http.StatusOK, "item", view)
}

// recordView publishes the product view for the activity log. Failures
// only cost the log entry.
func (h *ScreenHandler) recordView(c *gin.Context, s *state.Session, productID int64, title string) {
	userID := s.User.ID()
	if h.bus == nil || userID == 0 {
		return
	}
	err := h.bus.Publish(events.TopicProductViewed, events.ProductViewed{
		Event:        events.NewEvent(),
		UserID:       userID,
		ProductID:    productID,
		ProductTitle: title,
	})
	if err != nil {
		h.log(c).Warnw("Failed to record product view", "product_id", productID, "error", err)
	}
}

// ToggleFavorite flips the product's favorite flag.
func (h *ScreenHandler) ToggleFavorite(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	middleware.EffectsFrom(c).ImpactOccurred(webapp.ImpactMedium)

	id, valid := productID(c)
	if !valid {
		render(c, http.StatusNotFound, "not_found", productNotFound)
		return
	}

	ctx := c.Request.Context()
	card, err := s.Products.ProductByID(ctx, id)
	if err != nil {
		if common.IsNotFound(err) {
			render(c, http.StatusNotFound, "not_found", productNotFound)
			return
		}
		renderError(c, http.StatusServiceUnavailable, "favorite", s.Products.Snapshot().Error)
		return
	}

	favorite, err := s.Favorites.Toggle(ctx, card.ID, card.Title)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, state.ErrUserNotInitialized) {
			status = http.StatusConflict
		}
		renderError(c, status, "favorite", s.Favorites.Snapshot().Error)
		return
	}

	render(c, http.StatusOK, "favorite", favoriteToggleView{
		ProductID:  card.ID,
		IsFavorite: favorite,
		Count:      s.Favorites.Count(),
	})
}
