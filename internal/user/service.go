package user

import (
	"context"
	"fmt"
	"strconv"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"

	"go.uber.org/zap"
)

// Service resolves Telegram identities to users and manages their stats.
type Service interface {
	GetOrCreate(ctx context.Context, tg common.TelegramUser) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	// GetByTelegramID returns nil, nil when no user has that Telegram id.
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	Update(ctx context.Context, id int64, update Update) (*User, error)
	GetStats(ctx context.Context, userID int64) (*Stats, error)
	UpdateStats(ctx context.Context, userID int64, update StatsUpdate) (*Stats, error)
}

type service struct {
	db     backend.Driver
	logger *zap.Logger
}

func NewService(db backend.Driver, logger *zap.Logger) Service {
	return &service{db: db, logger: logger}
}

// GetOrCreate returns the user for tg, creating it (and its stats row) on
// first login. Changed names are written back. User and stats creation are
// not atomic: a crash between them leaves a user without stats.
func (s *service) GetOrCreate(ctx context.Context, tg common.TelegramUser) (*User, error) {
	if tg.ID == 0 {
		return nil, common.ValidationError{Field: "telegram_id", Message: "Telegram user data is required"}
	}
	s.logger.Debug("Resolving user", zap.Int64("telegramID", tg.ID))

	existing, err := s.GetByTelegramID(ctx, tg.ID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.FirstName == tg.FirstName && existing.LastName == tg.LastName && existing.Username == tg.Username {
			return existing, nil
		}
		update := Update{
			FirstName: &tg.FirstName,
			LastName:  &tg.LastName,
			Username:  &tg.Username,
		}
		if tg.PhotoURL != "" {
			update.PhotoURL = &tg.PhotoURL
		}
		if tg.LanguageCode != "" {
			update.LanguageCode = &tg.LanguageCode
		}
		return s.Update(ctx, existing.ID, update)
	}

	language := tg.LanguageCode
	if language == "" {
		language = DefaultLanguage
	}
	user := &User{
		TelegramID:   tg.ID,
		Username:     tg.Username,
		FirstName:    tg.FirstName,
		LastName:     tg.LastName,
		PhotoURL:     tg.PhotoURL,
		LanguageCode: language,
	}
	if err := s.db.Insert(ctx, TableUsers, user); err != nil {
		s.logger.Error("Failed to create user", zap.Int64("telegramID", tg.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	stats := &Stats{UserID: user.ID, Level: StarterLevel}
	if err := s.db.Insert(ctx, TableUserStats, stats); err != nil {
		s.logger.Error("Failed to create user stats", zap.Int64("userID", user.ID), zap.Error(err))
		return nil, fmt.Errorf("failed to create stats for user %d: %w", user.ID, err)
	}

	s.logger.Info("User created", zap.Int64("userID", user.ID), zap.Int64("telegramID", tg.ID))
	return user, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	var user User
	if err := s.db.SelectOne(ctx, backend.From(TableUsers).Eq("id", id), &user); err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "User", ID: strconv.FormatInt(id, 10)}
		}
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

func (s *service) GetByTelegramID(ctx context.Context, telegramID int64) (*User, error) {
	var user User
	if err := s.db.SelectOne(ctx, backend.From(TableUsers).Eq("telegram_id", telegramID), &user); err != nil {
		if backend.IsNoRows(err) {
			return nil, nil
		}
		s.logger.Error("Failed to get user by Telegram ID", zap.Int64("telegramID", telegramID), zap.Error(err))
		return nil, fmt.Errorf("failed to get user by telegram id %d: %w", telegramID, err)
	}
	return &user, nil
}

// Update writes only the provided fields; an empty update re-reads the
// user.
func (s *service) Update(ctx context.Context, id int64, update Update) (*User, error) {
	values := update.values()
	if len(values) == 0 {
		return s.GetByID(ctx, id)
	}
	s.logger.Debug("Updating user", zap.Int64("userID", id), zap.Int("fields", len(values)))

	var user User
	if err := s.db.Update(ctx, backend.From(TableUsers).Eq("id", id), values, &user); err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "User", ID: strconv.FormatInt(id, 10)}
		}
		s.logger.Error("Failed to update user", zap.Int64("userID", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	return &user, nil
}

func (s *service) GetStats(ctx context.Context, userID int64) (*Stats, error) {
	var stats Stats
	if err := s.db.SelectOne(ctx, backend.From(TableUserStats).Eq("user_id", userID), &stats); err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "UserStats", ID: strconv.FormatInt(userID, 10)}
		}
		return nil, fmt.Errorf("failed to get stats for user %d: %w", userID, err)
	}
	return &stats, nil
}

func (s *service) UpdateStats(ctx context.Context, userID int64, update StatsUpdate) (*Stats, error) {
	values := update.values()
	if len(values) == 0 {
		return s.GetStats(ctx, userID)
	}

	var stats Stats
	if err := s.db.Update(ctx, backend.From(TableUserStats).Eq("user_id", userID), values, &stats); err != nil {
		if backend.IsNoRows(err) {
			return nil, common.NotFoundError{Resource: "UserStats", ID: strconv.FormatInt(userID, 10)}
		}
		s.logger.Error("Failed to update user stats", zap.Int64("userID", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to update stats for user %d: %w", userID, err)
	}
	return &stats, nil
}
