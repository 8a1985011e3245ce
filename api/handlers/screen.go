package handlers

import (
	"math"
	"net/http"
	"strings"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Screen is the envelope of every screen response: the view model plus
// the host directives the client should perform.
type Screen struct {
	Screen  string          `json:"screen"`
	Data    interface{}     `json:"data"`
	Effects []webapp.Effect `json:"effects"`
}

// Link is a navigation target rendered as a button.
type Link struct {
	ID    string `json:"id,omitempty"`
	Label string `json:"label"`
	Icon  string `json:"icon,omitempty"`
	Path  string `json:"path,omitempty"`
	Back  bool   `json:"back,omitempty"`
}

// Notice is the content of empty, not-found and placeholder states.
type Notice struct {
	Icon   string `json:"icon"`
	Title  string `json:"title"`
	Text   string `json:"text"`
	Action *Link  `json:"action,omitempty"`
}

// ProductView is a product card as listed on a screen.
type ProductView struct {
	catalog.ProductCard
	IsFavorite      bool   `json:"is_favorite"`
	PriceLabel      string `json:"price_label"`
	OriginalLabel   string `json:"original_price_label,omitempty"`
	DiscountPercent int    `json:"discount_percent,omitempty"`
}

// ScreenHandler renders the Mini-App screens.
type ScreenHandler struct {
	activity activity.Service
	bus      events.EventBus
	logger   *logger.Logger
}

func NewScreenHandler(activitySvc activity.Service, bus events.EventBus, logger *logger.Logger) *ScreenHandler {
	return &ScreenHandler{
		activity: activitySvc,
		bus:      bus,
		logger:   logger,
	}
}

func (h *ScreenHandler) log(c *gin.Context) *logger.Logger {
	return middleware.LoggerFrom(c, h.logger)
}

func render(c *gin.Context, status int, screen string, data interface{}) {
	c.JSON(status, Screen{
		Screen:  screen,
		Data:    data,
		Effects: middleware.EffectsFrom(c).List(),
	})
}

func renderError(c *gin.Context, status int, screen, message string) {
	render(c, status, screen, gin.H{"error": message})
}

// session returns the caller's session or answers 401 when the identity
// middleware did not run.
func session(c *gin.Context) (*state.Session, bool) {
	s := middleware.SessionFrom(c)
	if s == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Ошибка аутентификации"})
		return nil, false
	}
	return s, true
}

func productViews(cards []catalog.ProductCard, favorites *state.Favorites) []ProductView {
	views := make([]ProductView, 0, len(cards))
	for _, card := range cards {
		views = append(views, productView(card, favorites.IsFavorite(card.ID)))
	}
	return views
}

func productView(card catalog.ProductCard, favorite bool) ProductView {
	v := ProductView{
		ProductCard: card,
		IsFavorite:  favorite,
		PriceLabel:  FormatPrice(card.Price),
	}
	if card.OriginalPrice != nil && *card.OriginalPrice > 0 {
		v.OriginalLabel = FormatPrice(*card.OriginalPrice)
		v.DiscountPercent = discountPercent(card.Price, *card.OriginalPrice)
	}
	return v
}

func discountPercent(price, original float64) int {
	if original <= 0 || price >= original {
		return 0
	}
	return int(math.Round((1 - price/original) * 100))
}

var ruPrinter = message.NewPrinter(language.Russian)

// FormatPrice renders a ruble amount the way ru-RU locales do: digit
// groups separated by a no-break space, comma decimals only when needed.
func FormatPrice(amount float64) string {
	rounded := math.Round(amount*100) / 100
	return ruPrinter.Sprintf("%v\u00a0₽", number.Decimal(rounded, number.MaxFractionDigits(2)))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
