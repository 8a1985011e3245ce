//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"furniture-miniapp/api/middleware"
	"furniture-miniapp/api/routes"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/bootstrap"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"
	"furniture-miniapp/internal/scheduler"
	"furniture-miniapp/internal/state"
	users "furniture-miniapp/internal/user"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

const botToken = "424242:INTEGRATION"

type stack struct {
	router   *gin.Engine
	activity activity.Service
	registry *state.Registry
	sweeper  scheduler.Scheduler
}

func postgresConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("storefront"),
		postgres.WithUsername("test_user"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	return config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "test_user",
		Password:        "test_password",
		DBName:          "storefront",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 300,
		AutoMigrate:     true,
	}
}

func setupStack(t *testing.T) *stack {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	zl := zaptest.NewLogger(t)

	cfg := &config.Config{
		Backend:   config.BackendConfig{Driver: bootstrap.DriverPostgres, SeedFixtures: true},
		Database:  postgresConfig(t),
		Scheduler: config.SchedulerConfig{PollInterval: 3600, ActivityRetention: 86400, ShutdownTimeout: 5},
	}
	b, err := bootstrap.OpenBackend(ctx, cfg, nil, zl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	bus := events.NewEventBus(zl)
	t.Cleanup(func() { _ = bus.Close() })

	products := catalog.NewService(b.Client, zl, 4)
	activitySvc := activity.NewService(b.Client, zl)
	require.NoError(t, activity.NewRecorder(activitySvc, zl).Subscribe(bus))

	registry := state.NewRegistry(state.Dependencies{
		Catalog:   products,
		Favorites: favorites.NewService(b.Client, products, zl),
		Users:     users.NewService(b.Client, zl),
		Bus:       bus,
	}, 30*time.Minute, nil, zl)

	sweeper, err := scheduler.NewScheduler(cfg.Scheduler, activitySvc, zl)
	require.NoError(t, err)

	router := gin.New()
	routes.SetupRoutes(router, routes.Dependencies{
		Logger:    logger.Wrap(zl),
		Backend:   b.Client,
		Registry:  registry,
		Host:      webapp.NewRealHost(botToken, time.Hour, nil, zl),
		Activity:  activitySvc,
		Bus:       bus,
		Scheduler: sweeper,
	})
	return &stack{router: router, activity: activitySvc, registry: registry, sweeper: sweeper}
}

func (s *stack) call(t *testing.T, method, target string, user common.TelegramUser) (int, map[string]interface{}) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	initData := webapp.SignInitData(url.Values{
		"user":      {string(raw)},
		"auth_date": {strconv.FormatInt(time.Now().Unix(), 10)},
	}, botToken)

	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "tma "+initData)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data, _ := body["data"].(map[string]interface{})
	return w.Code, data
}

func TestStorefrontFlow_BrowseFavoriteAndProfile(t *testing.T) {
	s := setupStack(t)
	user := common.TelegramUser{ID: 9001, FirstName: "Ольга", Username: "olga"}

	code, home := s.call(t, http.MethodGet, "/home", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "👋 Привет, Ольга!", home["greeting"])
	assert.Equal(t, float64(12), home["total"])

	code, item := s.call(t, http.MethodGet, "/item/7", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, `Шкаф-купе "Премиум"`, item["title"])

	code, toggle := s.call(t, http.MethodPost, "/item/7/favorite", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, toggle["is_favorite"])

	session, err := s.registry.Session(context.Background(), user)
	require.NoError(t, err)
	userID := session.User.ID()

	require.Eventually(t, func() bool {
		entries, err := s.activity.ListForUser(context.Background(), userID, 10, 0)
		return err == nil && len(entries) == 2
	}, 5*time.Second, 50*time.Millisecond, "view and favorite are recorded asynchronously")

	code, fav := s.call(t, http.MethodGet, "/favorites", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), fav["count"])

	code, profile := s.call(t, http.MethodGet, "/profile", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), profile["favorites_count"])
	assert.Len(t, profile["recent_activity"], 2)

	code, _ = s.call(t, http.MethodDelete, "/favorites/7", user)
	require.Equal(t, http.StatusOK, code)
	code, fav = s.call(t, http.MethodGet, "/favorites", user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(0), fav["count"])
}

func TestStorefrontFlow_RetentionSweep(t *testing.T) {
	s := setupStack(t)
	user := common.TelegramUser{ID: 9002, FirstName: "Пётр"}

	code, _ := s.call(t, http.MethodGet, "/item/1", user)
	require.Equal(t, http.StatusOK, code)

	session, err := s.registry.Session(context.Background(), user)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		entries, err := s.activity.ListForUser(context.Background(), session.User.ID(), 10, 0)
		return err == nil && len(entries) == 1
	}, 5*time.Second, 50*time.Millisecond)

	purged, err := s.sweeper.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, purged, "fresh entries are kept")

	n, err := s.activity.Purge(context.Background(), time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStorefrontFlow_RejectsForgedInitData(t *testing.T) {
	s := setupStack(t)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.Header.Set(middleware.HeaderInitData, "user=%7B%22id%22%3A1%7D&auth_date=1&hash=deadbeef")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, s.registry.Len())
}
