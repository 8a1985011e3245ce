package catalog

import (
	"context"
	"fmt"
	"strconv"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
)

// GetCategories returns the active categories in display order.
func (s *service) GetCategories(ctx context.Context) ([]Category, error) {
	s.logger.Debug("Getting categories")

	var categories []Category
	q := backend.From(TableCategories).Eq("is_active", true).Order("sort_order", true)
	if err := s.db.Select(ctx, q, &categories); err != nil {
		s.logger.Error("Failed to get categories", zap.Error(err))
		return nil, fmt.Errorf("failed to get categories: %w", err)
	}
	if categories == nil {
		categories = []Category{}
	}
	return categories, nil
}

func (s *service) GetCategoryByID(ctx context.Context, id int64) (*Category, error) {
	return s.getCategory(ctx, "id", id, strconv.FormatInt(id, 10))
}

func (s *service) GetCategoryByCode(ctx context.Context, code string) (*Category, error) {
	return s.getCategory(ctx, "code", code, code)
}

func (s *service) getCategory(ctx context.Context, column string, value interface{}, key string) (*Category, error) {
	s.logger.Debug("Getting category", zap.String("by", column), zap.String("key", key))

	var category Category
	if err := s.db.SelectOne(ctx, backend.From(TableCategories).Eq(column, value), &category); err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "Category", ID: key}
		}
		s.logger.Error("Failed to get category", zap.String("by", column), zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("failed to get category %s: %w", key, err)
	}
	return &category, nil
}
