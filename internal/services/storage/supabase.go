package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
)

const supabasePageSize = 1000

// SupabaseBackend stores objects in a Supabase Storage bucket.
type SupabaseBackend struct {
	sbClient *storage_go.Client
	baseURL  string
	bucket   string
}

func NewSupabaseBackend(projectURL, key, bucket string) (*SupabaseBackend, error) {
	if projectURL == "" || key == "" {
		return nil, fmt.Errorf("supabase credentials not found")
	}

	baseURL := strings.TrimRight(projectURL, "/") + "/storage/v1"
	return &SupabaseBackend{
		sbClient: storage_go.NewClient(baseURL, key, nil),
		baseURL:  baseURL,
		bucket:   bucket,
	}, nil
}

func (s *SupabaseBackend) EnsureBucket(ctx context.Context) error {
	if _, err := s.sbClient.GetBucket(s.bucket); err == nil {
		return nil
	}

	_, err := s.sbClient.CreateBucket(s.bucket, storage_go.BucketOptions{Public: true})
	if err != nil && !strings.Contains(strings.ToLower(err.Error()), "already exists") {
		return fmt.Errorf("create bucket %q: %w", s.bucket, err)
	}
	return nil
}

func (s *SupabaseBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	upsert := true
	_, err := s.sbClient.UploadFile(s.bucket, key, r, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("failed to upload to supabase: %w", err)
	}
	return nil
}

func (s *SupabaseBackend) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.sbClient.DownloadFile(s.bucket, key)
	if err != nil {
		if isSupabaseNotFound(err) {
			return nil, notFound(key)
		}
		return nil, fmt.Errorf("failed to download from supabase: %w", err)
	}
	return data, nil
}

func isSupabaseNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "404")
}

// List walks the folder containing prefix and keeps keys that match it.
// Supabase lists one folder level at a time; entries without an id are folders.
func (s *SupabaseBackend) List(ctx context.Context, prefix string) ([]string, error) {
	dir := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = prefix[:i]
	}

	var keys []string
	if err := s.walk(ctx, dir, func(key string) {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *SupabaseBackend) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	entries, err := s.listFolder(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return nil, err
	}

	dirs := []string{}
	for _, entry := range entries {
		if entry.Id == "" {
			dirs = append(dirs, entry.Name)
		}
	}
	sort.Strings(dirs)
	return dirs, nil
}

func (s *SupabaseBackend) walk(ctx context.Context, dir string, visit func(key string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := s.listFolder(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		key := joinKey(dir, entry.Name)
		if entry.Id == "" {
			if err := s.walk(ctx, key, visit); err != nil {
				return err
			}
			continue
		}
		visit(key)
	}
	return nil
}

func (s *SupabaseBackend) listFolder(dir string) ([]storage_go.FileObject, error) {
	var all []storage_go.FileObject
	for offset := 0; ; offset += supabasePageSize {
		page, err := s.sbClient.ListFiles(s.bucket, dir, storage_go.FileSearchOptions{
			Limit:  supabasePageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("list %q: %w", dir, err)
		}
		all = append(all, page...)
		if len(page) < supabasePageSize {
			return all, nil
		}
	}
}

func (s *SupabaseBackend) Remove(ctx context.Context, keys []string) error {
	if _, err := s.sbClient.RemoveFile(s.bucket, keys); err != nil {
		return fmt.Errorf("failed to remove from supabase: %w", err)
	}
	return nil
}

func (s *SupabaseBackend) PublicURL(key string) string {
	return s.sbClient.GetPublicUrl(s.bucket, key).SignedURL
}

func (s *SupabaseBackend) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	resp, err := s.sbClient.CreateSignedUrl(s.bucket, key, int(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("failed to sign url: %w", err)
	}

	// the API answers with a path relative to the storage endpoint
	if strings.HasPrefix(resp.SignedURL, "/") {
		return s.baseURL + resp.SignedURL, nil
	}
	return resp.SignedURL, nil
}

func joinKey(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
