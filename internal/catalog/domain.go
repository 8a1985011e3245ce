package catalog

import (
	"strings"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"
)

// Table names in the hosted backend.
const (
	TableCategories    = "categories"
	TableProducts      = "products"
	TableProductImages = "product_images"
)

// ListColumns are the product columns fetched for list views.
const ListColumns = "id, title, description, category_id, price, original_price, is_new, on_sale, rating, reviews_count, in_stock, delivery_time"

// Category groups products on the home and catalog screens.
type Category struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	Code      string `json:"code" gorm:"uniqueIndex"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	IsActive  bool   `json:"is_active"`
	SortOrder int    `json:"sort_order"`
}

func (Category) TableName() string { return TableCategories }

// Product is a row of the products table.
type Product struct {
	ID            int64    `json:"id" gorm:"primaryKey"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	CategoryID    int64    `json:"category_id" gorm:"index"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"original_price"`
	IsNew         bool     `json:"is_new"`
	OnSale        bool     `json:"on_sale"`
	Rating        float64  `json:"rating"`
	ReviewsCount  int      `json:"reviews_count"`
	InStock       bool     `json:"in_stock"`
	DeliveryTime  string   `json:"delivery_time"`
}

func (Product) TableName() string { return TableProducts }

// ProductImage is one photo of a product.
type ProductImage struct {
	ID        int64  `json:"id" gorm:"primaryKey"`
	ProductID int64  `json:"product_id" gorm:"index"`
	ImageURL  string `json:"image_url"`
	SortOrder int    `json:"sort_order"`
	IsPrimary bool   `json:"is_primary"`
}

func (ProductImage) TableName() string { return TableProductImages }

// ProductCard is a product denormalized with its images, the record every
// screen renders.
type ProductCard struct {
	Product
	Image  *string  `json:"image"`
	Images []string `json:"images"`
}

// Filter narrows the product list.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterNew     Filter = "new"
	FilterSale    Filter = "sale"
	FilterPopular Filter = "popular"
)

// ParseFilter accepts the filter names used in URLs; empty means all.
func ParseFilter(s string) (Filter, error) {
	switch f := Filter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterNew, FilterSale, FilterPopular:
		return f, nil
	default:
		return "", common.ValidationError{Field: "filter", Message: "must be one of all, new, sale, popular"}
	}
}

// ListOptions parameterizes ListProducts.
type ListOptions struct {
	Filter     Filter
	CategoryID *int64
	Search     string
	Limit      int
	Offset     int
}

// MatchesQuery reports whether p matches a search query: a
// case-insensitive substring of the title or the description. A blank
// query matches everything.
func MatchesQuery(p Product, query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return true
	}
	return backend.ContainsFold(p.Title, q) || backend.ContainsFold(p.Description, q)
}
