package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	CacheKeyPrefix = "batch_manifest:"
	DefaultTTL     = time.Hour
)

// ManifestCache keeps recently read or written manifests in Redis.
type ManifestCache struct {
	redisClient *redis.Client
	ttl         time.Duration
}

type Options struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

func NewManifestCache(opts Options) *ManifestCache {
	redisClient := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &ManifestCache{
		redisClient: redisClient,
		ttl:         ttl,
	}
}

func (c *ManifestCache) Ping(ctx context.Context) error {
	return c.redisClient.Ping(ctx).Err()
}

// Get returns the cached manifest, or nil on a cache miss.
func (c *ManifestCache) Get(ctx context.Context, batchID string) (*models.Manifest, error) {
	data, err := c.redisClient.Get(ctx, cacheKey(batchID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	var manifest models.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("cache decode error: %w", err)
	}
	return &manifest, nil
}

func (c *ManifestCache) Set(ctx context.Context, manifest *models.Manifest) error {
	data, err := json.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("cache encode error: %w", err)
	}
	return c.redisClient.Set(ctx, cacheKey(manifest.BatchID), data, c.ttl).Err()
}

func (c *ManifestCache) Delete(ctx context.Context, batchID string) error {
	return c.redisClient.Del(ctx, cacheKey(batchID)).Err()
}

func (c *ManifestCache) Close() error {
	return c.redisClient.Close()
}

func cacheKey(batchID string) string {
	return CacheKeyPrefix + batchID
}
