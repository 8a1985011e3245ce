package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// MinioConfig configures an S3-compatible bucket.
type MinioConfig struct {
	Endpoint      string
	AccessKey     string
	SecretKey     string
	Bucket        string
	UseSSL        bool
	PublicBaseURL string
}

type minioBucket struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewMinioBucket connects to an S3-compatible store and verifies the bucket
// exists.
func NewMinioBucket(ctx context.Context, cfg MinioConfig, logger *zap.Logger) (Bucket, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", cfg.Bucket)
	}

	baseURL := strings.TrimRight(cfg.PublicBaseURL, "/")
	if baseURL == "" {
		baseURL = client.EndpointURL().String()
	}

	return &minioBucket{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  logger,
	}, nil
}

func (b *minioBucket) Name() string { return b.bucket }

func (b *minioBucket) Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error) {
	if !opts.Upsert {
		if _, err := b.client.StatObject(ctx, b.bucket, path, minio.StatObjectOptions{}); err == nil {
			return "", fmt.Errorf("object %s already exists", path)
		}
	}

	info, err := b.client.PutObject(ctx, b.bucket, path, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		CacheControl: cacheControlHeader(opts.CacheControl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put object %s: %w", path, err)
	}

	b.logger.Debug("Uploaded object", zap.String("key", info.Key), zap.Int64("size", info.Size))
	return b.bucket + "/" + info.Key, nil
}

func (b *minioBucket) Download(ctx context.Context, path string) ([]byte, error) {
	object, err := b.client.GetObject(ctx, b.bucket, path, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", path, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read object %s: %w", path, err)
	}
	return data, nil
}

func (b *minioBucket) Remove(ctx context.Context, paths []string) error {
	for _, p := range paths {
		if err := b.client.RemoveObject(ctx, b.bucket, p, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to remove object %s: %w", p, err)
		}
	}
	return nil
}

func (b *minioBucket) List(ctx context.Context, folder string) ([]ObjectInfo, error) {
	prefix := strings.Trim(folder, "/")
	if prefix != "" {
		prefix += "/"
	}

	var out []ObjectInfo
	for object := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: prefix}) {
		if object.Err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, object.Err)
		}
		if strings.HasSuffix(object.Key, "/") {
			continue
		}
		out = append(out, ObjectInfo{
			Name:        strings.TrimPrefix(object.Key, prefix),
			Size:        object.Size,
			ContentType: object.ContentType,
			UpdatedAt:   object.LastModified,
		})
	}
	return out, nil
}

func (b *minioBucket) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.bucket, path)
}

// cacheControlHeader turns the bucket's "3600" seconds convention into a
// header value.
func cacheControlHeader(v string) string {
	if v == "" || strings.Contains(v, "=") {
		return v
	}
	return "max-age=" + v
}
