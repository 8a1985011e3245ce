package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"furniture-miniapp/internal/common"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBucket is the bucket holding product photos.
const DefaultBucket = "product-images"

// UploadedImage describes a stored product image.
type UploadedImage struct {
	Path     string `json:"path"`
	FullPath string `json:"full_path"`
	URL      string `json:"url"`
}

// Service manages product images on top of a Bucket.
type Service interface {
	UploadProductImage(ctx context.Context, productID int64, fileName string, data []byte, contentType string) (*UploadedImage, error)
	ImageURL(filePath string) string
	DownloadFile(ctx context.Context, filePath string) ([]byte, error)
	DeleteImage(ctx context.Context, filePath string) error
	DeleteImages(ctx context.Context, filePaths []string) (int, error)
	ListFiles(ctx context.Context, folder string) ([]ObjectInfo, error)
	FileExists(ctx context.Context, filePath string) bool
}

type service struct {
	bucket       Bucket
	cacheControl string
	clock        common.Clock
	logger       *zap.Logger
}

// NewService creates the product image service.
func NewService(bucket Bucket, cacheControl string, clock common.Clock, logger *zap.Logger) Service {
	if cacheControl == "" {
		cacheControl = "3600"
	}
	if clock == nil {
		clock = common.NewRealClock()
	}
	return &service{
		bucket:       bucket,
		cacheControl: cacheControl,
		clock:        clock,
		logger:       logger,
	}
}

// ProductImagePath returns the object path for a product image. An empty
// fileName gets a generated product_<id>_<unix ms>_<random> name.
func ProductImagePath(productID int64, fileName string, now time.Time) string {
	if fileName == "" {
		random := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
		fileName = fmt.Sprintf("product_%d_%d_%s", productID, now.UnixMilli(), random)
	}
	return fmt.Sprintf("products/%d/%s", productID, path.Base(fileName))
}

func (s *service) UploadProductImage(ctx context.Context, productID int64, fileName string, data []byte, contentType string) (*UploadedImage, error) {
	if len(data) == 0 {
		return nil, common.ValidationError{Field: "file", Message: "file is required"}
	}
	if productID <= 0 {
		return nil, common.ValidationError{Field: "product_id", Message: "must be positive"}
	}

	filePath := ProductImagePath(productID, fileName, s.clock.Now())
	s.logger.Debug("Uploading product image",
		zap.Int64("productID", productID),
		zap.String("path", filePath),
		zap.Int("size", len(data)))

	fullPath, err := s.bucket.Upload(ctx, filePath, data, UploadOptions{
		ContentType:  contentType,
		CacheControl: s.cacheControl,
		Upsert:       true,
	})
	if err != nil {
		s.logger.Error("Failed to upload product image", zap.String("path", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to upload product image: %w", err)
	}

	s.logger.Info("Product image uploaded", zap.Int64("productID", productID), zap.String("path", filePath))
	return &UploadedImage{
		Path:     filePath,
		FullPath: fullPath,
		URL:      s.bucket.PublicURL(filePath),
	}, nil
}

func (s *service) ImageURL(filePath string) string {
	return s.bucket.PublicURL(filePath)
}

func (s *service) DownloadFile(ctx context.Context, filePath string) ([]byte, error) {
	data, err := s.bucket.Download(ctx, filePath)
	if err != nil {
		s.logger.Error("Failed to download file", zap.String("path", filePath), zap.Error(err))
		return nil, fmt.Errorf("failed to download %s: %w", filePath, err)
	}
	return data, nil
}

func (s *service) DeleteImage(ctx context.Context, filePath string) error {
	if err := s.bucket.Remove(ctx, []string{filePath}); err != nil {
		s.logger.Error("Failed to delete image", zap.String("path", filePath), zap.Error(err))
		return fmt.Errorf("failed to delete %s: %w", filePath, err)
	}
	return nil
}

// DeleteImages removes every path and reports how many were requested.
func (s *service) DeleteImages(ctx context.Context, filePaths []string) (int, error) {
	if len(filePaths) == 0 {
		return 0, nil
	}
	if err := s.bucket.Remove(ctx, filePaths); err != nil {
		s.logger.Error("Failed to delete images", zap.Int("count", len(filePaths)), zap.Error(err))
		return 0, fmt.Errorf("failed to delete images: %w", err)
	}
	return len(filePaths), nil
}

func (s *service) ListFiles(ctx context.Context, folder string) ([]ObjectInfo, error) {
	files, err := s.bucket.List(ctx, folder)
	if err != nil {
		s.logger.Error("Failed to list files", zap.String("folder", folder), zap.Error(err))
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}
	if files == nil {
		files = []ObjectInfo{}
	}
	return files, nil
}

// FileExists looks the object up in its own folder. Lookup errors count as
// absence.
func (s *service) FileExists(ctx context.Context, filePath string) bool {
	folder, name := path.Split(filePath)
	files, err := s.bucket.List(ctx, folder)
	if err != nil {
		s.logger.Warn("Failed to check file existence", zap.String("path", filePath), zap.Error(err))
		return false
	}
	for _, f := range files {
		if f.Name == name {
			return true
		}
	}
	return false
}
