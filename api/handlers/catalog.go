package handlers

import (
	"net/http"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/state"

	"github.com/gin-gonic/gin"
)

// FilterTab is one entry of the catalog filter strip.
type FilterTab struct {
	ID     catalog.Filter `json:"id"`
	Label  string         `json:"label"`
	Active bool           `json:"active"`
}

var catalogFilters = []FilterTab{
	{ID: catalog.FilterAll, Label: "Все"},
	{ID: catalog.FilterNew, Label: "Новинки"},
	{ID: catalog.FilterSale, Label: "Скидки"},
	{ID: catalog.FilterPopular, Label: "Популярное"},
}

type catalogView struct {
	SearchPlaceholder string         `json:"search_placeholder"`
	SearchQuery       string         `json:"search_query"`
	Filters           []FilterTab    `json:"filters"`
	ActiveFilter      catalog.Filter `json:"active_filter"`
	ActiveCategory    string         `json:"active_category"`
	Products          []ProductView  `json:"products"`
	Status            state.Status   `json:"status"`
	LoadingText       string         `json:"loading_text,omitempty"`
	Error             string         `json:"error,omitempty"`
	Empty             *Notice        `json:"empty,omitempty"`
}

type searchRequest struct {
	Query string `json:"query"`
}

// Catalog renders the filtered catalog. Changing filter or category
// reloads from the backend; q filters the loaded list locally.
func (h *ScreenHandler) Catalog(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	effects := middleware.EffectsFrom(c)

	if raw, set := c.GetQuery("filter"); set {
		filter, err := catalog.ParseFilter(raw)
		if err != nil {
			renderError(c, http.StatusBadRequest, "catalog", err.Error())
			return
		}
		if filter != s.Products.Snapshot().ActiveFilter {
			effects.SelectionChanged()
			if err := s.Products.SetFilter(ctx, filter); err != nil {
				h.log(c).Warnw("Catalog reload failed", "filter", filter, "error", err)
			}
		}
	}
	if category, set := c.GetQuery("category"); set && category != s.Products.Snapshot().ActiveCategory {
		effects.SelectionChanged()
		if err := s.Products.SetCategory(ctx, category); err != nil && common.IsValidation(err) {
			renderError(c, http.StatusBadRequest, "catalog", err.Error())
			return
		}
	}

	if q, set := c.GetQuery("q"); set {
		s.Products.SetSearchQuery(q)
	}
	query := s.Products.Snapshot().SearchQuery
	render(c, http.StatusOK, "catalog", h.catalogView(s, query, s.Products.FilteredProducts(query)))
}

// Search runs a server-side search and renders its results.
func (h *ScreenHandler) Search(c *gin.Context) {
	s, ok := session(c)
	if !ok {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		renderError(c, http.StatusBadRequest, "catalog", "Invalid request body")
		return
	}

	if err := s.Products.Search(c.Request.Context(), req.Query); err != nil {
		h.log(c).Warnw("Catalog search failed", "query", req.Query, "error", err)
	}
	render(c, http.StatusOK, "catalog", h.catalogView(s, req.Query, s.Products.Snapshot().Products))
}

func (h *ScreenHandler) catalogView(s *state.Session, query string, products []catalog.ProductCard) catalogView {
	snap := s.Products.Snapshot()

	filters := make([]FilterTab, len(catalogFilters))
	for i, f := range catalogFilters {
		f.Active = f.ID == snap.ActiveFilter
		filters[i] = f
	}

	view := catalogView{
		SearchPlaceholder: "Поиск мебели...",
		SearchQuery:       query,
		Filters:           filters,
		ActiveFilter:      snap.ActiveFilter,
		ActiveCategory:    snap.ActiveCategory,
		Products:          productViews(products, s.Favorites),
		Status:            snap.Status,
		Error:             snap.Error,
	}
	if snap.Loading() {
		view.LoadingText = "Загрузка товаров..."
	}
	if !snap.Loading() && len(products) == 0 {
		view.Empty = &Notice{
			Icon:   "🔍",
			Title:  "Ничего не найдено",
			Text:   "Попробуйте изменить поиск или фильтры",
			Action: &Link{Label: "Сбросить фильтры", Path: "/catalog?filter=all&category=all"},
		}
	}
	return view
}
