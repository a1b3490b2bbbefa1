package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryObject struct {
	data        []byte
	contentType string
}

// MemoryBackend keeps objects in process memory. It backs tests and local
// runs without an object store.
type MemoryBackend struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject

	// FailPut, when set, is consulted before every Put; a non-nil result
	// fails the write.
	FailPut func(key string) error
}

func NewMemoryBackend(bucket string) *MemoryBackend {
	return &MemoryBackend{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
	}
}

func (m *MemoryBackend) EnsureBucket(ctx context.Context) error {
	return nil
}

func (m *MemoryBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.FailPut != nil {
		if err := m.FailPut(key); err != nil {
			return err
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType}
	return nil
}

func (m *MemoryBackend) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	obj, ok := m.objects[key]
	if !ok {
		return nil, notFound(key)
	}
	out := make([]byte, len(obj.data))
	copy(out, obj.data)
	return out, nil
}

func (m *MemoryBackend) List(ctx context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var keys []string
	for key := range m.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryBackend) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	keys, err := m.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return childDirs(prefix, keys), nil
}

func (m *MemoryBackend) Remove(ctx context.Context, keys []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

func (m *MemoryBackend) PublicURL(key string) string {
	return fmt.Sprintf("memory://%s/%s", m.bucket, key)
}

func (m *MemoryBackend) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("memory://%s/%s?expires=%d", m.bucket, key, time.Now().Add(ttl).Unix()), nil
}

// ContentType returns the stored content type of key, if present.
func (m *MemoryBackend) ContentType(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	return obj.contentType, ok
}

// childDirs extracts the distinct first path segment below prefix from keys
// that continue past it with a slash.
func childDirs(prefix string, keys []string) []string {
	seen := make(map[string]bool)
	dirs := []string{}
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		i := strings.Index(rest, "/")
		if i <= 0 {
			continue
		}
		dir := rest[:i]
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}
