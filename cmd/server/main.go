package main

import (
	_ "github.com/joho/godotenv/autoload" // Load .env file automatically

	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"furniture-miniapp/api/routes"
	"furniture-miniapp/internal/activity"
	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/bootstrap"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/chatbot"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"
	"furniture-miniapp/internal/events"
	"furniture-miniapp/internal/favorites"
	"furniture-miniapp/internal/metrics"
	"furniture-miniapp/internal/scheduler"
	"furniture-miniapp/internal/state"
	"furniture-miniapp/internal/storage"
	users "furniture-miniapp/internal/user"
	"furniture-miniapp/internal/webapp"
	"furniture-miniapp/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logger.NewForEnvironment(cfg.Server.Environment)
	defer logger.Sync()
	zapLogger := logger.Zap()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clock := common.NewRealClock()

	db, err := bootstrap.OpenBackend(ctx, cfg, clock, zapLogger, backend.WithObserver(metrics.BackendObserver()))
	if err != nil {
		logger.Fatalw("Failed to open backend", "driver", cfg.Backend.Driver, "error", err)
	}
	defer db.Close()
	if db.Client.Degraded() {
		logger.Warnw("Backend is not configured, screens will report connectivity errors")
	}

	bucket, err := bootstrap.OpenBucket(ctx, cfg.Storage, db, zapLogger)
	if err != nil {
		logger.Fatalw("Failed to open storage bucket", "provider", cfg.Storage.Provider, "error", err)
	}

	eventBus := events.NewEventBus(zapLogger)

	catalogService := catalog.NewService(db.Client, zapLogger, cfg.Backend.ImageConcurrency)
	favoritesService := favorites.NewService(db.Client, catalogService, zapLogger)
	userService := users.NewService(db.Client, zapLogger)
	activityService := activity.NewService(db.Client, zapLogger)
	storageService := storage.NewService(bucket, cfg.Storage.CacheControl, clock, zapLogger)

	if err := activity.NewRecorder(activityService, zapLogger).Subscribe(eventBus); err != nil {
		logger.Fatalw("Failed to subscribe activity recorder", "error", err)
	}

	registry := state.NewRegistry(state.Dependencies{
		Catalog:   catalogService,
		Favorites: favoritesService,
		Users:     userService,
		Bus:       eventBus,
	}, time.Duration(cfg.Session.TTL)*time.Second, clock, zapLogger)
	metrics.TrackSessions(registry.Len)

	host, err := webapp.NewHost(cfg.Telegram, clock, zapLogger)
	if err != nil {
		logger.Fatalw("Failed to configure Telegram host", "error", err)
	}

	var provider chatbot.TelegramProvider
	if cfg.Telegram.BotToken != "" {
		provider, err = chatbot.NewTelegramProvider(cfg.Telegram, zapLogger)
		if err != nil {
			logger.Fatalw("Failed to initialize Telegram bot", "error", err)
		}
	} else {
		provider = chatbot.NewLogProvider(zapLogger)
	}
	chatbotService := chatbot.NewChatbotService(provider, cfg.Telegram, zapLogger)
	if err := chatbotService.RegisterWebhook(); err != nil {
		logger.Warnw("Failed to register Telegram webhook", "error", err)
	}

	var sweeper scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sweeper, err = scheduler.NewScheduler(cfg.Scheduler, activityService, zapLogger,
			scheduler.WithObserver(metrics.PurgeObserver{}))
		if err != nil {
			logger.Fatalw("Failed to create scheduler", "error", err)
		}
		if err := sweeper.Start(ctx); err != nil {
			logger.Fatalw("Scheduler failed to start", "error", err)
		}
	} else {
		logger.Infow("Activity retention sweeper disabled")
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	routes.SetupRoutes(router, routes.Dependencies{
		Logger:     logger,
		Backend:    db.Client,
		Registry:   registry,
		Host:       host,
		Activity:   activityService,
		Bus:        eventBus,
		Chatbot:    chatbotService,
		Storage:    storageService,
		Scheduler:  sweeper,
		AdminToken: cfg.Server.AdminToken,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("Starting server", "port", cfg.Server.Port, "host", host.Name(), "backend", db.Client.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		registry.Run(gctx, time.Duration(cfg.Session.SweepInterval)*time.Second)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infow("Shutting down server...")

		if sweeper != nil {
			if err := sweeper.Stop(); err != nil {
				logger.Errorw("Failed to stop scheduler gracefully", "error", err)
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return eventBus.Close()
	})

	if err := g.Wait(); err != nil {
		logger.Errorw("Server exited with error", "error", err)
		return
	}
	logger.Infow("Server exited")
}
