// Package favorites stores the products a user has marked as favorite.
package favorites

import (
	"context"
	"fmt"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/catalog"

	"go.uber.org/zap"
)

const TableFavorites = "favorites"

// Favorite links a user to a product.
type Favorite struct {
	ID        int64     `json:"id,omitempty" gorm:"primaryKey"`
	UserID    int64     `json:"user_id" gorm:"index:idx_favorites_user_product,unique"`
	ProductID int64     `json:"product_id" gorm:"index:idx_favorites_user_product,unique"`
	CreatedAt time.Time `json:"created_at"`
}

func (Favorite) TableName() string { return TableFavorites }

// Service manages a user's favorites.
type Service interface {
	Add(ctx context.Context, userID, productID int64) (*Favorite, error)
	Remove(ctx context.Context, userID, productID int64) error
	IsFavorite(ctx context.Context, userID, productID int64) (bool, error)
	// ListForUser returns the favorited products, most recently added
	// first. Each record's ID is the product id.
	ListForUser(ctx context.Context, userID int64) ([]catalog.ProductCard, error)
	Clear(ctx context.Context, userID int64) error
	Count(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	db       backend.Driver
	products catalog.Service
	logger   *zap.Logger
}

// NewService creates a favorites service. Product records for
// ListForUser are loaded through products.
func NewService(db backend.Driver, products catalog.Service, logger *zap.Logger) Service {
	return &service{
		db:       db,
		products: products,
		logger:   logger,
	}
}

func pair(userID, productID int64) *backend.Query {
	return backend.From(TableFavorites).Eq("user_id", userID).Eq("product_id", productID)
}

// Add inserts the pair unless it already exists, in which case the
// existing row is returned unchanged. The check and the insert are two
// separate calls; a concurrent Add for the same pair can still race.
func (s *service) Add(ctx context.Context, userID, productID int64) (*Favorite, error) {
	s.logger.Debug("Adding favorite", zap.Int64("userID", userID), zap.Int64("productID", productID))

	var existing Favorite
	err := s.db.SelectOne(ctx, pair(userID, productID), &existing)
	switch {
	case err == nil:
		s.logger.Debug("Favorite already exists", zap.Int64("favoriteID", existing.ID))
		return &existing, nil
	case !backend.IsNoRows(err):
		s.logger.Error("Failed to check favorite", zap.Error(err))
		return nil, fmt.Errorf("failed to check favorite: %w", err)
	}

	favorite := &Favorite{UserID: userID, ProductID: productID}
	if err := s.db.Insert(ctx, TableFavorites, favorite); err != nil {
		s.logger.Error("Failed to add favorite", zap.Int64("userID", userID), zap.Int64("productID", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to add favorite: %w", err)
	}

	s.logger.Info("Favorite added", zap.Int64("favoriteID", favorite.ID), zap.Int64("userID", userID))
	return favorite, nil
}

func (s *service) Remove(ctx context.Context, userID, productID int64) error {
	s.logger.Debug("Removing favorite", zap.Int64("userID", userID), zap.Int64("productID", productID))

	if _, err := s.db.Delete(ctx, pair(userID, productID)); err != nil {
		s.logger.Error("Failed to remove favorite", zap.Error(err))
		return fmt.Errorf("failed to remove favorite: %w", err)
	}
	return nil
}

func (s *service) IsFavorite(ctx context.Context, userID, productID int64) (bool, error) {
	var favorite Favorite
	err := s.db.SelectOne(ctx, pair(userID, productID).Select("id"), &favorite)
	if err != nil {
		if backend.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}
	return true, nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]catalog.ProductCard, error) {
	s.logger.Debug("Listing favorites", zap.Int64("userID", userID))

	var rows []Favorite
	q := backend.From(TableFavorites).
		Select("id, product_id, created_at").
		Eq("user_id", userID).
		Order("created_at", false)
	if err := s.db.Select(ctx, q, &rows); err != nil {
		s.logger.Error("Failed to list favorites", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}
	if len(rows) == 0 {
		return []catalog.ProductCard{}, nil
	}

	productIDs := make([]int64, len(rows))
	for i, r := range rows {
		productIDs[i] = r.ProductID
	}
	cards, err := s.products.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite products: %w", err)
	}

	byID := make(map[int64]catalog.ProductCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}
	out := make([]catalog.ProductCard, 0, len(rows))
	for _, r := range rows {
		// Favorites whose product was deleted are dropped, as with an
		// inner join.
		if card, ok := byID[r.ProductID]; ok {
			out = append(out, card)
		}
	}
	return out, nil
}

func (s *service) Clear(ctx context.Context, userID int64) error {
	s.logger.Debug("Clearing favorites", zap.Int64("userID", userID))

	removed, err := s.db.Delete(ctx, backend.From(TableFavorites).Eq("user_id", userID))
	if err != nil {
		s.logger.Error("Failed to clear favorites", zap.Int64("userID", userID), zap.Error(err))
		return fmt.Errorf("failed to clear favorites: %w", err)
	}
	s.logger.Info("Favorites cleared", zap.Int64("userID", userID), zap.Int64("removed", removed))
	return nil
}

func (s *service) Count(ctx context.Context, userID int64) (int64, error) {
	n, err := s.db.Count(ctx, backend.From(TableFavorites).Eq("user_id", userID))
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return n, nil
}
