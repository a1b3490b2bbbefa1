package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/phambaophuc/image-optimizer/internal/models"
)

// Backend is a raw blob store addressed by slash-separated keys. Keys are
// opaque to the backend beyond prefix matching.
type Backend interface {
	// EnsureBucket creates the target bucket when it does not exist yet.
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	// Get returns models.ErrNotFound when key does not exist.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// ListDirs returns the names of the immediate child "directories" of prefix.
	ListDirs(ctx context.Context, prefix string) ([]string, error)
	Remove(ctx context.Context, keys []string) error
	PublicURL(key string) string
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Error wraps a backend failure with the operation and key it affected.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == models.ErrStorage }

// wrapErr converts backend errors into storage errors, leaving not-found
// conditions recognisable as such.
func wrapErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return err
	}
	return &Error{Op: op, Key: key, Err: err}
}

func notFound(key string) error {
	return fmt.Errorf("%w: %s", models.ErrNotFound, key)
}
