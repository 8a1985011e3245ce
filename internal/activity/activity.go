// Package activity keeps the per-user activity feed shown on the profile
// screen.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
)

const TableActivity = "user_activity"

// DefaultListLimit is used when a non-positive limit is requested.
const DefaultListLimit = 10

// Type classifies an activity entry.
type Type string

const (
	TypeView     Type = "view"
	TypeFavorite Type = "favorite"
	TypeReview   Type = "review"
	TypeOrder    Type = "order"
)

// Entry is a single activity row.
type Entry struct {
	ID           int64     `json:"id,omitempty" gorm:"primaryKey"`
	UserID       int64     `json:"user_id" gorm:"index;not null"`
	ActivityType Type      `json:"activity_type" gorm:"type:varchar(32);not null"`
	Title        string    `json:"title"`
	ProductID    *int64    `json:"product_id"`
	Metadata     *string   `json:"metadata"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
}

func (Entry) TableName() string { return TableActivity }

var listColumns = "id,user_id,activity_type,title,product_id,metadata,created_at"

// Service writes and reads activity entries.
type Service interface {
	Log(ctx context.Context, entry Entry) (*Entry, error)
	LogProductView(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error)
	LogAddFavorite(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error)
	LogRemoveFavorite(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error)
	ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Entry, error)
	ListByType(ctx context.Context, userID int64, activityType Type, limit int) ([]Entry, error)
	// DeleteOlderThan removes one user's entries created before the cutoff.
	DeleteOlderThan(ctx context.Context, userID int64, before time.Time) (int64, error)
	// Purge removes every user's entries created before the cutoff.
	Purge(ctx context.Context, before time.Time) (int64, error)
}

type service struct {
	db     backend.Driver
	logger *zap.Logger
}

func NewService(db backend.Driver, logger *zap.Logger) Service {
	return &service{db: db, logger: logger}
}

func (s *service) Log(ctx context.Context, entry Entry) (*Entry, error) {
	if entry.UserID == 0 {
		return nil, common.ValidationError{Field: "user_id", Message: "user is required"}
	}
	if entry.ActivityType == "" {
		return nil, common.ValidationError{Field: "activity_type", Message: "activity type is required"}
	}
	entry.ID = 0
	entry.CreatedAt = time.Time{}

	if err := s.db.Insert(ctx, TableActivity, &entry); err != nil {
		s.logger.Error("Failed to log activity",
			zap.Int64("userID", entry.UserID),
			zap.String("type", string(entry.ActivityType)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}
	return &entry, nil
}

type productMetadata struct {
	ProductID    int64  `json:"product_id"`
	ProductTitle string `json:"product_title"`
	Action       string `json:"action,omitempty"`
}

func (s *service) logProduct(ctx context.Context, userID int64, t Type, title string, meta productMetadata) (*Entry, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode activity metadata: %w", err)
	}
	metadata := string(raw)
	productID := meta.ProductID
	return s.Log(ctx, Entry{
		UserID:       userID,
		ActivityType: t,
		Title:        title,
		ProductID:    &productID,
		Metadata:     &metadata,
	})
}

func (s *service) LogProductView(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error) {
	return s.logProduct(ctx, userID, TypeView,
		fmt.Sprintf("Просмотрел товар \"%s\"", productTitle),
		productMetadata{ProductID: productID, ProductTitle: productTitle})
}

func (s *service) LogAddFavorite(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error) {
	return s.logProduct(ctx, userID, TypeFavorite,
		fmt.Sprintf("Добавил в избранное \"%s\"", productTitle),
		productMetadata{ProductID: productID, ProductTitle: productTitle, Action: "add"})
}

func (s *service) LogRemoveFavorite(ctx context.Context, userID, productID int64, productTitle string) (*Entry, error) {
	return s.logProduct(ctx, userID, TypeFavorite,
		fmt.Sprintf("Убрал из избранного \"%s\"", productTitle),
		productMetadata{ProductID: productID, ProductTitle: productTitle, Action: "remove"})
}

func (s *service) ListForUser(ctx context.Context, userID int64, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if offset < 0 {
		offset = 0
	}
	q := backend.From(TableActivity).Select(listColumns).
		Eq("user_id", userID).
		Order("created_at", false).
		Range(offset, limit)

	entries := []Entry{}
	if err := s.db.Select(ctx, q, &entries); err != nil {
		s.logger.Error("Failed to list activity", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to list activity for user %d: %w", userID, err)
	}
	return entries, nil
}

func (s *service) ListByType(ctx context.Context, userID int64, activityType Type, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	q := backend.From(TableActivity).Select(listColumns).
		Eq("user_id", userID).
		Eq("activity_type", string(activityType)).
		Order("created_at", false).
		Range(0, limit)

	entries := []Entry{}
	if err := s.db.Select(ctx, q, &entries); err != nil {
		return nil, fmt.Errorf("failed to list %s activity for user %d: %w", activityType, userID, err)
	}
	return entries, nil
}

func (s *service) DeleteOlderThan(ctx context.Context, userID int64, before time.Time) (int64, error) {
	n, err := s.db.Delete(ctx, backend.From(TableActivity).Eq("user_id", userID).Lt("created_at", before.UTC()))
	if err != nil {
		s.logger.Error("Failed to delete old activity", zap.Int64("userID", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to delete activity for user %d: %w", userID, err)
	}
	return n, nil
}

func (s *service) Purge(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.db.Delete(ctx, backend.From(TableActivity).Lt("created_at", before.UTC()))
	if err != nil {
		return 0, fmt.Errorf("failed to purge activity: %w", err)
	}
	if n > 0 {
		s.logger.Info("Purged activity", zap.Int64("rows", n), zap.Time("before", before))
	}
	return n, nil
}
