package bootstrap

import (
	"context"
	"fmt"

	"furniture-miniapp/internal/config"
	"furniture-miniapp/internal/storage"

	"go.uber.org/zap"
)

// Storage provider names accepted in storage.provider.
const (
	StorageSupabase = "supabase"
	StorageMinio    = "minio"
	StorageMemory   = "memory"
)

// OpenBucket selects the product image bucket. The Supabase provider needs
// the PostgREST backend; without it the bucket falls back to memory.
func OpenBucket(ctx context.Context, cfg config.StorageConfig, b *Backend, logger *zap.Logger) (storage.Bucket, error) {
	name := cfg.Bucket
	if name == "" {
		name = storage.DefaultBucket
	}

	switch cfg.Provider {
	case StorageSupabase, "":
		if b != nil && b.Supabase != nil {
			return b.Supabase.Bucket(name), nil
		}
		logger.Warn("Supabase storage needs the postgrest backend, using an in-memory bucket")
		return storage.NewMemoryBucket(name, cfg.PublicBaseURL), nil

	case StorageMinio:
		return storage.NewMinioBucket(ctx, storage.MinioConfig{
			Endpoint:      cfg.Endpoint,
			AccessKey:     cfg.AccessKey,
			SecretKey:     cfg.SecretKey,
			Bucket:        name,
			UseSSL:        cfg.UseSSL,
			PublicBaseURL: cfg.PublicBaseURL,
		}, logger)

	case StorageMemory:
		return storage.NewMemoryBucket(name, cfg.PublicBaseURL), nil

	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}
