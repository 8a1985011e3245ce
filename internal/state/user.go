package state

import (
	"context"
	"sync"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/common"
	users "furniture-miniapp/internal/user"

	"go.uber.org/zap"
)

// UserSnapshot is a copy of the user holder's state.
type UserSnapshot struct {
	User   *users.User  `json:"user"`
	Stats  *users.Stats `json:"stats"`
	Status Status       `json:"status"`
	Error  string       `json:"error,omitempty"`
}

// User resolves the Telegram identity to a backend user and keeps its
// stats.
type User struct {
	service users.Service
	logger  *zap.Logger

	mu     sync.RWMutex
	user   *users.User
	stats  *users.Stats
	status Status
	errMsg string
}

func NewUser(service users.Service, logger *zap.Logger) *User {
	return &User{service: service, logger: logger, status: StatusIdle}
}

// Initialize gets or creates the user for tg. Stats are fetched on a best
// effort basis: a failure there is logged and leaves stats nil.
func (u *User) Initialize(ctx context.Context, tg common.TelegramUser) error {
	u.mu.Lock()
	u.status = StatusLoading
	u.errMsg = ""
	u.mu.Unlock()

	resolved, err := u.service.GetOrCreate(ctx, tg)
	if err != nil {
		u.logger.Error("Error initializing user", zap.Int64("telegramID", tg.ID), zap.Error(err))
		u.mu.Lock()
		u.status = StatusError
		u.errMsg = userMessage(err, msgInitializeUser)
		u.mu.Unlock()
		return err
	}

	stats, statsErr := u.service.GetStats(ctx, resolved.ID)
	if statsErr != nil {
		u.logger.Warn("Error fetching user stats", zap.Int64("userID", resolved.ID), zap.Error(statsErr))
	}

	u.mu.Lock()
	u.user = resolved
	if statsErr == nil {
		u.stats = stats
	}
	u.status = StatusSuccess
	u.mu.Unlock()
	return nil
}

func (u *User) currentID() (int64, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.user == nil {
		u.errMsg = ErrUserNotInitialized.Error()
		return 0, ErrUserNotInitialized
	}
	return u.user.ID, nil
}

func (u *User) Update(ctx context.Context, update users.Update) (*users.User, error) {
	id, err := u.currentID()
	if err != nil {
		return nil, err
	}

	updated, err := u.service.Update(ctx, id, update)
	if err != nil {
		u.logger.Error("Error updating user", zap.Int64("userID", id), zap.Error(err))
		u.setError(userMessage(err, msgUpdateUser))
		return nil, err
	}

	u.mu.Lock()
	u.user = updated
	u.mu.Unlock()
	return updated, nil
}

func (u *User) RefreshStats(ctx context.Context) (*users.Stats, error) {
	id, err := u.currentID()
	if err != nil {
		return nil, err
	}

	stats, err := u.service.GetStats(ctx, id)
	if err != nil {
		u.logger.Error("Error fetching user stats", zap.Int64("userID", id), zap.Error(err))
		u.setError(userMessage(err, msgFetchUserStats))
		return nil, err
	}

	u.mu.Lock()
	u.stats = stats
	u.mu.Unlock()
	return stats, nil
}

// RefreshStatsBestEffort refreshes stats for screens that render without
// them. A failure is logged and returned but not recorded on the holder.
func (u *User) RefreshStatsBestEffort(ctx context.Context) error {
	id := u.ID()
	if id == 0 {
		return ErrUserNotInitialized
	}

	stats, err := u.service.GetStats(ctx, id)
	if err != nil {
		u.logger.Debug("User stats not refreshed", zap.Int64("userID", id), zap.Error(err))
		return err
	}

	u.mu.Lock()
	u.stats = stats
	u.mu.Unlock()
	return nil
}

func (u *User) UpdateStats(ctx context.Context, update users.StatsUpdate) (*users.Stats, error) {
	id, err := u.currentID()
	if err != nil {
		return nil, err
	}

	stats, err := u.service.UpdateStats(ctx, id, update)
	if err != nil {
		u.logger.Error("Error updating user stats", zap.Int64("userID", id), zap.Error(err))
		u.setError(userMessage(err, msgUpdateUserStats))
		return nil, err
	}

	u.mu.Lock()
	u.stats = stats
	u.mu.Unlock()
	return stats, nil
}

func (u *User) IsInitialized() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.user != nil
}

// ID returns the backend user id, zero before initialization.
func (u *User) ID() int64 {
	u.mu.RLock()
	defer u.mu.RUnlock()
	if u.user == nil {
		return 0
	}
	return u.user.ID
}

func (u *User) setError(msg string) {
	u.mu.Lock()
	u.errMsg = msg
	u.mu.Unlock()
}

func (u *User) Snapshot() UserSnapshot {
	u.mu.RLock()
	defer u.mu.RUnlock()

	snap := UserSnapshot{Status: u.status, Error: u.errMsg}
	if u.user != nil {
		copied := *u.user
		snap.User = &copied
	}
	if u.stats != nil {
		copied := *u.stats
		snap.Stats = &copied
	}
	return snap
}

func (u *User) ClearError() {
	u.mu.Lock()
	u.errMsg = ""
	if u.status == StatusError {
		u.status = StatusIdle
	}
	u.mu.Unlock()
}

// userMessage prefers a validation message, then the backend's
// classification, then fallback.
func userMessage(err error, fallback string) string {
	if common.IsValidation(err) {
		return err.Error()
	}
	if backend.Classify(err) != backend.KindUnknown {
		return backend.ErrorMessage(err)
	}
	return fallback
}
