package state

import (
	"context"
	"testing"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"
	"furniture-miniapp/internal/fixtures"
	users "furniture-miniapp/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRegistry(t *testing.T, clock common.Clock) *Registry {
	t.Helper()
	d := memdriver.New(clock)
	require.NoError(t, fixtures.Seed(context.Background(), d))
	logger := zaptest.NewLogger(t)
	products := catalog.NewService(d, logger, 4)
	deps := Dependencies{
		Catalog:   products,
		Favorites: favorites.NewService(d, products, logger),
		Users:     users.NewService(d, logger),
		Bus:       events.NewMockEventBus(),
	}
	return NewRegistry(deps, 30*time.Minute, clock, logger)
}

func TestRegistry_SessionLifecycle(t *testing.T) {
	clock := common.NewMockClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	r := newTestRegistry(t, clock)
	ctx := context.Background()
	tg := common.TelegramUser{ID: 555, FirstName: "Иван", Username: "ivan"}

	s, err := r.Session(ctx, tg)
	require.NoError(t, err)
	assert.True(t, s.Ready())
	assert.True(t, s.User.IsInitialized())
	assert.NotZero(t, s.User.ID())
	assert.Equal(t, s.User.ID(), s.Favorites.UserID())

	snap := s.User.Snapshot()
	require.NotNil(t, snap.Stats)
	assert.Equal(t, 0, snap.Stats.Points)
	assert.Equal(t, users.StarterLevel, snap.Stats.Level)
	assert.Len(t, s.Products.Snapshot().Products, len(fixtures.Products()))

	again, err := r.Session(ctx, tg)
	require.NoError(t, err)
	assert.Same(t, s, again)
	assert.Equal(t, 1, r.Len())

	clock.Advance(20 * time.Minute)
	_, err = r.Session(ctx, common.TelegramUser{ID: 777, FirstName: "Пётр"})
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	clock.Advance(15 * time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.Equal(t, 1, r.Len())
}

func TestRegistry_RejectsMissingIdentity(t *testing.T) {
	r := newTestRegistry(t, nil)

	_, err := r.Session(context.Background(), common.TelegramUser{})
	assert.True(t, common.IsValidation(err))
	assert.Zero(t, r.Len())
}

func TestUser_StatsFailureSwallowed(t *testing.T) {
	d := memdriver.New(nil)
	logger := zaptest.NewLogger(t)
	svc := users.NewService(d, logger)
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, common.TelegramUser{ID: 42, FirstName: "A"})
	require.NoError(t, err)
	_, err = d.Delete(ctx, backendQueryStats(created.ID))
	require.NoError(t, err)

	u := NewUser(svc, logger)
	require.NoError(t, u.Initialize(ctx, common.TelegramUser{ID: 42, FirstName: "A"}))
	snap := u.Snapshot()
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.NotNil(t, snap.User)
	assert.Nil(t, snap.Stats)

	_, err = u.RefreshStats(ctx)
	assert.Error(t, err)
	assert.NotEmpty(t, u.Snapshot().Error)
}

func TestUser_BestEffortStatsLeaveErrorUnset(t *testing.T) {
	d := memdriver.New(nil)
	logger := zaptest.NewLogger(t)
	svc := users.NewService(d, logger)
	ctx := context.Background()

	created, err := svc.GetOrCreate(ctx, common.TelegramUser{ID: 43, FirstName: "B"})
	require.NoError(t, err)
	u := NewUser(svc, logger)
	require.NoError(t, u.Initialize(ctx, common.TelegramUser{ID: 43, FirstName: "B"}))
	require.NotNil(t, u.Snapshot().Stats)

	_, err = d.Delete(ctx, backendQueryStats(created.ID))
	require.NoError(t, err)

	assert.Error(t, u.RefreshStatsBestEffort(ctx))
	snap := u.Snapshot()
	assert.Empty(t, snap.Error)
	assert.Equal(t, StatusSuccess, snap.Status)
	assert.NotNil(t, snap.Stats)

	uninitialized := NewUser(svc, logger)
	assert.ErrorIs(t, uninitialized.RefreshStatsBestEffort(ctx), ErrUserNotInitialized)
	assert.Empty(t, uninitialized.Snapshot().Error)
}

func TestUser_RequiresInitialization(t *testing.T) {
	u := NewUser(users.NewService(memdriver.New(nil), zaptest.NewLogger(t)), zaptest.NewLogger(t))

	_, err := u.RefreshStats(context.Background())
	assert.ErrorIs(t, err, ErrUserNotInitialized)
	assert.False(t, u.IsInitialized())
	assert.Equal(t, "User not initialized", u.Snapshot().Error)
}

func backendQueryStats(userID int64) *backend.Query {
	return backend.From(users.TableUserStats).Eq("user_id", userID)
}
