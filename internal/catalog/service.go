package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultListLimit   = 100
	DefaultSearchLimit = 20
	DefaultShelfLimit  = 10
)

// Service reads categories and products from the backend.
type Service interface {
	ListProducts(ctx context.Context, opts ListOptions) ([]ProductCard, error)
	GetProductByID(ctx context.Context, id int64) (*ProductCard, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]ProductCard, error)
	GetProductImages(ctx context.Context, productID int64) ([]ProductImage, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]ProductCard, error)
	ProductsByCategory(ctx context.Context, categoryID int64, opts ListOptions) ([]ProductCard, error)
	NewProducts(ctx context.Context, limit int) ([]ProductCard, error)
	SaleProducts(ctx context.Context, limit int) ([]ProductCard, error)
	PopularProducts(ctx context.Context, limit int) ([]ProductCard, error)

	GetCategories(ctx context.Context) ([]Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*Category, error)
	GetCategoryByCode(ctx context.Context, code string) (*Category, error)
}

type service struct {
	db               backend.Driver
	logger           *zap.Logger
	imageConcurrency int
}

// NewService creates a catalog service. imageConcurrency bounds the
// parallel image lookups per list; zero or less means unbounded.
func NewService(db backend.Driver, logger *zap.Logger, imageConcurrency int) Service {
	return &service{
		db:               db,
		logger:           logger,
		imageConcurrency: imageConcurrency,
	}
}

func (s *service) ListProducts(ctx context.Context, opts ListOptions) ([]ProductCard, error) {
	if opts.Filter == "" {
		opts.Filter = FilterAll
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultListLimit
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	s.logger.Debug("Listing products",
		zap.String("filter", string(opts.Filter)),
		zap.Any("categoryID", opts.CategoryID),
		zap.String("search", opts.Search),
		zap.Int("limit", opts.Limit),
		zap.Int("offset", opts.Offset))

	q := backend.From(TableProducts).Select(ListColumns)
	switch opts.Filter {
	case FilterNew:
		q.Eq("is_new", true)
	case FilterSale:
		q.Eq("on_sale", true)
	case FilterPopular:
		q.Order("reviews_count", false)
	case FilterAll:
	default:
		return nil, common.ValidationError{Field: "filter", Message: fmt.Sprintf("unknown filter %q", opts.Filter)}
	}
	if opts.CategoryID != nil {
		q.Eq("category_id", *opts.CategoryID)
	}
	if search := strings.TrimSpace(opts.Search); search != "" {
		q.ILikeAny(strings.ToLower(search), "title", "description")
	}
	q.Order("id", true).Range(opts.Offset, opts.Limit)

	var products []Product
	if err := s.db.Select(ctx, q, &products); err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return s.withImages(ctx, products)
}

func (s *service) GetProductByID(ctx context.Context, id int64) (*ProductCard, error) {
	s.logger.Debug("Getting product by ID", zap.Int64("productID", id))

	var product Product
	err := s.db.SelectOne(ctx, backend.From(TableProducts).Eq("id", id), &product)
	if err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "Product", ID: strconv.FormatInt(id, 10)}
		}
		s.logger.Error("Failed to get product", zap.Int64("productID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product %d: %w", id, err)
	}

	images, err := s.GetProductImages(ctx, id)
	if err != nil {
		return nil, err
	}
	image, urls := ResolveImages(images)
	return &ProductCard{Product: product, Image: image, Images: urls}, nil
}

// GetProductsByIDs returns the cards for ids that exist, in id order.
func (s *service) GetProductsByIDs(ctx context.Context, ids []int64) ([]ProductCard, error) {
	if len(ids) == 0 {
		return []ProductCard{}, nil
	}
	s.logger.Debug("Getting products by IDs", zap.Int64s("productIDs", ids))

	var products []Product
	q := backend.From(TableProducts).Select(ListColumns).In("id", ids).Order("id", true)
	if err := s.db.Select(ctx, q, &products); err != nil {
		s.logger.Error("Failed to get products by IDs", zap.Error(err))
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	return s.withImages(ctx, products)
}

func (s *service) GetProductImages(ctx context.Context, productID int64) ([]ProductImage, error) {
	var images []ProductImage
	q := backend.From(TableProductImages).
		Select("id, product_id, image_url, sort_order, is_primary").
		Eq("product_id", productID).
		Order("sort_order", true)
	if err := s.db.Select(ctx, q, &images); err != nil {
		s.logger.Error("Failed to get product images", zap.Int64("productID", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to get images for product %d: %w", productID, err)
	}
	return images, nil
}

func (s *service) SearchProducts(ctx context.Context, query string, limit int) ([]ProductCard, error) {
	term := strings.TrimSpace(query)
	if term == "" {
		return []ProductCard{}, nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	s.logger.Debug("Searching products", zap.String("query", term), zap.Int("limit", limit))

	var products []Product
	q := backend.From(TableProducts).
		Select(ListColumns).
		ILikeAny(strings.ToLower(term), "title", "description").
		Order("id", true).
		Range(0, limit)
	if err := s.db.Select(ctx, q, &products); err != nil {
		s.logger.Error("Failed to search products", zap.String("query", term), zap.Error(err))
		return nil, fmt.Errorf("failed to search products: %w", err)
	}

	return s.withImages(ctx, products)
}

func (s *service) ProductsByCategory(ctx context.Context, categoryID int64, opts ListOptions) ([]ProductCard, error) {
	opts.CategoryID = &categoryID
	return s.ListProducts(ctx, opts)
}

func (s *service) NewProducts(ctx context.Context, limit int) ([]ProductCard, error) {
	return s.ListProducts(ctx, ListOptions{Filter: FilterNew, Limit: shelfLimit(limit)})
}

func (s *service) SaleProducts(ctx context.Context, limit int) ([]ProductCard, error) {
	return s.ListProducts(ctx, ListOptions{Filter: FilterSale, Limit: shelfLimit(limit)})
}

func (s *service) PopularProducts(ctx context.Context, limit int) ([]ProductCard, error) {
	return s.ListProducts(ctx, ListOptions{Filter: FilterPopular, Limit: shelfLimit(limit)})
}

func shelfLimit(limit int) int {
	if limit <= 0 {
		return DefaultShelfLimit
	}
	return limit
}

// withImages joins every product with its images. Lookups run
// concurrently and results are placed by index, so the output order is
// the input order.
func (s *service) withImages(ctx context.Context, products []Product) ([]ProductCard, error) {
	cards := make([]ProductCard, len(products))
	if len(products) == 0 {
		return cards, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.imageConcurrency > 0 {
		g.SetLimit(s.imageConcurrency)
	}
	for i := range products {
		i := i
		g.Go(func() error {
			images, err := s.GetProductImages(gctx, products[i].ID)
			if err != nil {
				return err
			}
			image, urls := ResolveImages(images)
			cards[i] = ProductCard{Product: products[i], Image: image, Images: urls}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return cards, nil
}
