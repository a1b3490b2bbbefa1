package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultDownloadURLTTL = time.Hour

// Gateway implements the batch storage operations on top of a Backend.
type Gateway struct {
	backend     Backend
	logger      *zap.Logger
	downloadTTL time.Duration
}

type Option func(*Gateway)

// WithDownloadTTL overrides how long archive links stay valid.
func WithDownloadTTL(ttl time.Duration) Option {
	return func(g *Gateway) {
		if ttl > 0 {
			g.downloadTTL = ttl
		}
	}
}

// NewGateway verifies the backing bucket exists, creating it if needed.
func NewGateway(ctx context.Context, backend Backend, logger *zap.Logger, opts ...Option) (*Gateway, error) {
	g := &Gateway{
		backend:     backend,
		logger:      logger,
		downloadTTL: DefaultDownloadURLTTL,
	}
	for _, opt := range opts {
		opt(g)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure bucket: %w", wrapErr("ensure bucket", "", err))
	}

	return g, nil
}
