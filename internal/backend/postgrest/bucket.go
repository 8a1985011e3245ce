package postgrest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"furniture-miniapp/internal/backend"
	"furniture-miniapp/internal/storage"

	"github.com/cenkalti/backoff/v4"
	supastorage "github.com/supabase-community/storage-go"
)

// Bucket is a Supabase Storage bucket sharing the driver's credentials and
// retry policy.
type Bucket struct {
	driver *Driver
	name   string
}

// Bucket returns the storage bucket called name.
func (d *Driver) Bucket(name string) *Bucket {
	return &Bucket{driver: d, name: name}
}

func (b *Bucket) Name() string { return b.name }

// client builds a storage-go client per call: uploads set their options on
// the client's shared headers.
func (b *Bucket) client() *supastorage.Client {
	return supastorage.NewClient(b.driver.baseURL+"/storage/v1", b.driver.apiKey, map[string]string{
		"apikey": b.driver.apiKey,
	})
}

// call runs op under the driver's retry policy. storage-go takes no
// context, so a cancelled ctx returns at once and leaves the request to
// finish on its own.
func (b *Bucket) call(ctx context.Context, method string, op func(*supastorage.Client) error) error {
	return b.driver.retry(ctx, method, func() error {
		done := make(chan error, 1)
		go func() { done <- op(b.client()) }()

		var err error
		select {
		case <-ctx.Done():
			return backoff.Permanent(ctx.Err())
		case err = <-done:
		}
		if err == nil {
			return nil
		}

		var se *supastorage.StorageError
		if errors.As(err, &se) {
			return statusError(storageError(se))
		}
		return fmt.Errorf("network error: %w", err)
	})
}

// storageError converts a storage-go error. The Storage API reports its
// status as a string, which storage-go drops, so a missing status is
// recovered from the message where it can be.
func storageError(se *supastorage.StorageError) *backend.Error {
	apiErr := &backend.Error{Status: se.Status, Message: se.Message}
	if apiErr.Status == 0 && strings.Contains(strings.ToLower(se.Message), "not found") {
		apiErr.Status = http.StatusNotFound
	}
	if apiErr.Message == "" {
		apiErr.Message = "storage request failed"
	}
	return apiErr
}

func (b *Bucket) Upload(ctx context.Context, path string, data []byte, opts storage.UploadOptions) (string, error) {
	cache := cacheControl(opts.CacheControl)
	upsert := opts.Upsert
	fileOpts := supastorage.FileOptions{CacheControl: &cache, Upsert: &upsert}
	if opts.ContentType != "" {
		contentType := opts.ContentType
		fileOpts.ContentType = &contentType
	}

	var key string
	err := b.call(ctx, http.MethodPost, func(c *supastorage.Client) error {
		res, err := c.UploadFile(b.name, escapePath(path), bytes.NewReader(data), fileOpts)
		if err != nil {
			return err
		}
		key = res.Key
		return nil
	})
	if err != nil {
		return "", err
	}
	if key == "" {
		key = b.name + "/" + path
	}
	return key, nil
}

func (b *Bucket) Download(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := b.call(ctx, http.MethodGet, func(c *supastorage.Client) error {
		body, err := c.DownloadFile(b.name, escapePath(path))
		if err != nil {
			return err
		}
		data = body
		return nil
	})
	if err != nil {
		var be *backend.Error
		if errors.As(err, &be) && be.Status == http.StatusNotFound {
			return nil, storage.ErrObjectNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *Bucket) Remove(ctx context.Context, paths []string) error {
	return b.call(ctx, http.MethodDelete, func(c *supastorage.Client) error {
		_, err := c.RemoveFile(b.name, paths)
		return err
	})
}

func (b *Bucket) List(ctx context.Context, folder string) ([]storage.ObjectInfo, error) {
	var entries []supastorage.FileObject
	err := b.call(ctx, http.MethodPost, func(c *supastorage.Client) error {
		files, err := c.ListFiles(b.name, strings.Trim(folder, "/"), supastorage.FileSearchOptions{
			Limit:         100,
			SortByOptions: supastorage.SortBy{Column: "name", Order: "asc"},
		})
		if err != nil {
			return err
		}
		entries = files
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]storage.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		// Folder placeholders have no id.
		if e.Id == "" {
			continue
		}
		info := storage.ObjectInfo{Name: e.Name}
		if ts, err := time.Parse(time.RFC3339Nano, e.UpdatedAt); err == nil {
			info.UpdatedAt = ts
		}
		if meta, ok := e.Metadata.(map[string]interface{}); ok {
			if size, ok := meta["size"].(float64); ok {
				info.Size = int64(size)
			}
			info.ContentType, _ = meta["mimetype"].(string)
		}
		out = append(out, info)
	}
	return out, nil
}

func (b *Bucket) PublicURL(path string) string {
	return b.client().GetPublicUrl(url.PathEscape(b.name), escapePath(path)).SignedURL
}

func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func cacheControl(v string) string {
	if v == "" {
		v = "3600"
	}
	if strings.Contains(v, "=") {
		return v
	}
	return "max-age=" + v
}
