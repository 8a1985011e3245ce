package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/backend/gormdriver"
	"furniture-miniapp/internal/backend/memdriver"
	"furniture-miniapp/internal/backend/postgrest"
	"furniture-miniapp/internal/catalog"
	"furniture-miniapp/internal/common"
	"furniture-miniapp/internal/config"
	"furniture-miniapp/internal/database"
	"furniture-miniapp/internal/fixtures"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Driver names accepted in backend.driver.
const (
	DriverPostgREST = "postgrest"
	DriverPostgres  = "postgres"
	DriverMemory    = "memory"
)

// Backend is the opened backend plus the handles other components share.
type Backend struct {
	Client *backend.Client
	// Supabase is set for the postgrest driver; its storage API shares
	// the same credentials.
	Supabase *postgrest.Driver
	// DB is set for the postgres driver.
	DB *gorm.DB
}

// Close releases the backend.
func (b *Backend) Close() error {
	return b.Client.Close()
}

// OpenBackend selects and opens the driver named in cfg.Backend.Driver.
// Missing PostgREST credentials yield a degraded client instead of an
// error.
func OpenBackend(ctx context.Context, cfg *config.Config, clock common.Clock, logger *zap.Logger, opts ...backend.ClientOption) (*Backend, error) {
	b := &Backend{}
	var driver backend.Driver

	switch cfg.Backend.Driver {
	case DriverMemory:
		logger.Warn("Using the in-memory backend; data is lost on restart")
		driver = memdriver.New(clock)

	case DriverPostgres:
		db, err := database.NewPostgresConnection(cfg.Database)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := Migrate(db); err != nil {
				return nil, err
			}
			logger.Info("Database migrations completed")
		}
		b.DB = db
		driver = gormdriver.New(db, logger)

	case DriverPostgREST, "":
		d, err := postgrest.New(postgrest.Config{
			URL:        cfg.Backend.URL,
			AnonKey:    cfg.Backend.AnonKey,
			Timeout:    time.Duration(cfg.Backend.Timeout) * time.Second,
			MaxRetries: cfg.Backend.MaxRetries,
		}, logger)
		switch {
		case errors.Is(err, backend.ErrBackendUnavailable):
			logger.Warn("Backend URL or anon key is not configured")
		case err != nil:
			return nil, err
		default:
			b.Supabase = d
			driver = d
		}

	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}

	b.Client = backend.NewClient(driver, logger, opts...)

	if cfg.Backend.SeedFixtures && !b.Client.Degraded() {
		if err := seedIfEmpty(ctx, b.Client, logger); err != nil {
			b.Client.Close()
			return nil, err
		}
	}

	logger.Info("Backend opened",
		zap.String("driver", b.Client.Name()),
		zap.Bool("degraded", b.Client.Degraded()))
	return b, nil
}

func seedIfEmpty(ctx context.Context, db backend.Driver, logger *zap.Logger) error {
	n, err := db.Count(ctx, backend.From(catalog.TableCategories))
	if err != nil {
		return fmt.Errorf("failed to inspect catalog before seeding: %w", err)
	}
	if n > 0 {
		logger.Debug("Catalog already populated, skipping fixtures", zap.Int64("categories", n))
		return nil
	}
	if err := fixtures.Seed(ctx, db); err != nil {
		return err
	}
	logger.Info("Seeded demo catalog",
		zap.Int("categories", len(fixtures.Categories())),
		zap.Int("products", len(fixtures.Products())))
	return nil
}
