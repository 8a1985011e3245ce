package state

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
)

// AllCategory is the id of the synthetic "every category" tab.
const AllCategory = "all"

// SearchLimit caps server-side search results.
const SearchLimit = 50

// CategoryTab is a category as shown in the tab strip. ID is the
// category id in decimal, or AllCategory.
type CategoryTab struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

var allTab = CategoryTab{ID: AllCategory, Code: AllCategory, Name: "Все", Icon: "🏠", IsActive: true, SortOrder: -1}

// CategoryTabs prefixes the backend categories with the "all" tab.
func CategoryTabs(categories []catalog.Category) []CategoryTab {
	tabs := make([]CategoryTab, 0, len(categories)+1)
	tabs = append(tabs, allTab)
	for _, c := range categories {
		tabs = append(tabs, CategoryTab{
			ID:        strconv.FormatInt(c.ID, 10),
			Code:      c.Code,
			Name:      c.Name,
			Icon:      c.Icon,
			IsActive:  c.IsActive,
			SortOrder: c.SortOrder,
		})
	}
	return tabs
}

// ProductsSnapshot is a copy of the product holder's state.
type ProductsSnapshot struct {
	Products       []catalog.ProductCard `json:"products"`
	Categories     []CategoryTab         `json:"categories"`
	ActiveCategory string                `json:"active_category"`
	ActiveFilter   catalog.Filter        `json:"active_filter"`
	SearchQuery    string                `json:"search_query"`
	Status         Status                `json:"status"`
	Error          string                `json:"error,omitempty"`
}

// Loading reports whether a load is in flight.
func (s ProductsSnapshot) Loading() bool { return s.Status == StatusLoading }

// Products tracks the product list for the active category, filter and
// search query. Each load takes a sequence number and only the latest
// load may commit its result.
type Products struct {
	catalog catalog.Service
	logger  *zap.Logger

	mu               sync.RWMutex
	products         []catalog.ProductCard
	categories       []CategoryTab
	categoriesLoaded bool
	activeCategory   string
	activeFilter     catalog.Filter
	searchQuery      string
	status           Status
	errMsg           string
	seq              uint64
}

func NewProducts(svc catalog.Service, logger *zap.Logger) *Products {
	return &Products{
		catalog:        svc,
		logger:         logger,
		categories:     []CategoryTab{allTab},
		activeCategory: AllCategory,
		activeFilter:   catalog.FilterAll,
		status:         StatusIdle,
	}
}

// Init loads the product list and, once, the categories.
func (p *Products) Init(ctx context.Context) error {
	err := p.LoadProducts(ctx)

	p.mu.RLock()
	loaded := p.categoriesLoaded
	p.mu.RUnlock()
	if !loaded {
		if catErr := p.LoadCategories(ctx); catErr != nil && err == nil {
			err = catErr
		}
	}
	return err
}

func (p *Products) LoadCategories(ctx context.Context) error {
	categories, err := p.catalog.GetCategories(ctx)
	if err != nil {
		p.logger.Error("Error loading categories", zap.Error(err))
		p.mu.Lock()
		p.errMsg = msgLoadCategories
		p.mu.Unlock()
		return err
	}

	p.mu.Lock()
	p.categories = CategoryTabs(categories)
	p.categoriesLoaded = true
	p.mu.Unlock()
	return nil
}

// begin marks a new load in flight and returns its sequence number.
func (p *Products) begin() uint64 {
	p.seq++
	p.status = StatusLoading
	p.errMsg = ""
	return p.seq
}

// commit stores the result of load seq unless a newer load has started.
func (p *Products) commit(seq uint64, products []catalog.ProductCard, err error, msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if seq != p.seq {
		p.logger.Debug("Dropping stale product load",
			zap.Uint64("seq", seq),
			zap.Uint64("latest", p.seq))
		return false
	}
	if err != nil {
		p.products = []catalog.ProductCard{}
		p.status = StatusError
		p.errMsg = msg
		return true
	}
	if products == nil {
		products = []catalog.ProductCard{}
	}
	p.products = products
	p.status = StatusSuccess
	return true
}

func (p *Products) listOptions() (catalog.ListOptions, error) {
	opts := catalog.ListOptions{Filter: p.activeFilter, Limit: catalog.DefaultListLimit}
	if p.activeCategory != AllCategory {
		id, err := strconv.ParseInt(p.activeCategory, 10, 64)
		if err != nil {
			return opts, common.ValidationError{Field: "category", Message: "invalid category id"}
		}
		opts.CategoryID = &id
	}
	return opts, nil
}

// LoadProducts reloads the list for the active category and filter.
func (p *Products) LoadProducts(ctx context.Context) error {
	p.mu.Lock()
	seq := p.begin()
	opts, err := p.listOptions()
	p.mu.Unlock()

	var products []catalog.ProductCard
	switch {
	case err != nil:
	case opts.CategoryID != nil:
		products, err = p.catalog.ProductsByCategory(ctx, *opts.CategoryID, opts)
	default:
		products, err = p.catalog.ListProducts(ctx, opts)
	}
	if err != nil {
		p.logger.Error("Error loading products", zap.Error(err))
	}
	p.commit(seq, products, err, msgLoadProducts)
	return err
}

// SetCategory switches the active category and reloads. key is "all", a
// category id or a category code. The search query is cleared.
func (p *Products) SetCategory(ctx context.Context, key string) error {
	id, err := p.resolveCategory(ctx, key)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.activeCategory = id
	p.searchQuery = ""
	p.mu.Unlock()
	return p.LoadProducts(ctx)
}

// resolveCategory maps a category key to the tab id used as the active
// category.
func (p *Products) resolveCategory(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == AllCategory {
		return AllCategory, nil
	}
	if _, err := strconv.ParseInt(key, 10, 64); err == nil {
		return key, nil
	}

	category, err := p.catalog.GetCategoryByCode(ctx, key)
	if err != nil {
		if common.IsNotFound(err) {
			return "", common.ValidationError{Field: "category", Message: "unknown category " + key}
		}
		p.logger.Error("Error resolving category", zap.String("code", key), zap.Error(err))
		p.mu.Lock()
		p.errMsg = msgLoadCategories
		p.mu.Unlock()
		return "", err
	}
	return strconv.FormatInt(category.ID, 10), nil
}

// SetFilter switches the active filter and reloads. The search query is
// cleared.
func (p *Products) SetFilter(ctx context.Context, filter catalog.Filter) error {
	if filter == "" {
		filter = catalog.FilterAll
	}
	p.mu.Lock()
	p.activeFilter = filter
	p.searchQuery = ""
	p.mu.Unlock()
	return p.LoadProducts(ctx)
}

// Search runs a backend search. A blank query restores the normal list.
func (p *Products) Search(ctx context.Context, query string) error {
	p.mu.Lock()
	p.searchQuery = query
	p.mu.Unlock()

	if strings.TrimSpace(query) == "" {
		return p.LoadProducts(ctx)
	}

	p.mu.Lock()
	seq := p.begin()
	p.mu.Unlock()

	products, err := p.catalog.SearchProducts(ctx, query, SearchLimit)
	if err != nil {
		p.logger.Error("Error searching products", zap.String("query", query), zap.Error(err))
	}
	p.commit(seq, products, err, msgSearchProducts)
	return err
}

// SetSearchQuery records the query used to filter the loaded list locally.
// Nothing is reloaded.
func (p *Products) SetSearchQuery(query string) {
	p.mu.Lock()
	p.searchQuery = query
	p.mu.Unlock()
}

// FilteredProducts filters the loaded list locally by title or
// description. A blank query returns the whole list.
func (p *Products) FilteredProducts(query string) []catalog.ProductCard {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]catalog.ProductCard, 0, len(p.products))
	for _, card := range p.products {
		if catalog.MatchesQuery(card.Product, query) {
			out = append(out, card)
		}
	}
	return out
}

// ProductByID fetches one product. The loaded list is left untouched.
func (p *Products) ProductByID(ctx context.Context, id int64) (*catalog.ProductCard, error) {
	card, err := p.catalog.GetProductByID(ctx, id)
	if err != nil {
		p.logger.Error("Error fetching product by ID", zap.Int64("productID", id), zap.Error(err))
		p.mu.Lock()
		p.errMsg = msgLoadProduct
		p.mu.Unlock()
		return nil, err
	}
	return card, nil
}

func (p *Products) Snapshot() ProductsSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProductsSnapshot{
		Products:       append([]catalog.ProductCard{}, p.products...),
		Categories:     append([]CategoryTab{}, p.categories...),
		ActiveCategory: p.activeCategory,
		ActiveFilter:   p.activeFilter,
		SearchQuery:    p.searchQuery,
		Status:         p.status,
		Error:          p.errMsg,
	}
}

func (p *Products) ClearError() {
	p.mu.Lock()
	p.errMsg = ""
	if p.status == StatusError {
		p.status = StatusIdle
	}
	p.mu.Unlock()
}
