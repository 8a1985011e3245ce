package storage

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
	updatedAt   time.Time
}

// memoryBucket keeps objects in process memory for dev mode and tests.
type memoryBucket struct {
	mu      sync.RWMutex
	name    string
	baseURL string
	objects map[string]memoryObject
}

// NewMemoryBucket creates an in-memory bucket whose public URLs are rooted
// at baseURL.
func NewMemoryBucket(name, baseURL string) Bucket {
	return &memoryBucket{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]memoryObject),
	}
}

func (b *memoryBucket) Name() string { return b.name }

func (b *memoryBucket) Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[path]; exists && !opts.Upsert {
		return "", fmt.Errorf("object %s already exists", path)
	}
	b.objects[path] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: opts.ContentType,
		updatedAt:   time.Now().UTC(),
	}
	return b.name + "/" + path, nil
}

func (b *memoryBucket) Download(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[path]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return append([]byte(nil), obj.data...), nil
}

func (b *memoryBucket) Remove(ctx context.Context, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range paths {
		delete(b.objects, p)
	}
	return nil
}

func (b *memoryBucket) List(ctx context.Context, folder string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	prefix := strings.Trim(folder, "/")
	if prefix != "" {
		prefix += "/"
	}
	var out []ObjectInfo
	for path, obj := range b.objects {
		if !strings.HasPrefix(path, prefix) {
			continue
		}
		name := strings.TrimPrefix(path, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		out = append(out, ObjectInfo{
			Name:        name,
			Size:        int64(len(obj.data)),
			ContentType: obj.contentType,
			UpdatedAt:   obj.updatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *memoryBucket) PublicURL(path string) string {
	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.name, path)
}
