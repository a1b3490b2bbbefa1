package batch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/phambaophuc/image-optimizer/internal/services/processor"
	"go.uber.org/zap"
)

type normalizer interface {
	Normalize(data []byte, opts processor.Options) (*processor.Result, error)
}

// blobStore is the subset of the storage gateway the orchestrator drives.
type blobStore interface {
	PutBlob(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PutJSON(ctx context.Context, key string, value interface{}) error
	GetJSON(ctx context.Context, key string, value interface{}) error
	ListBatchIDs(ctx context.Context) ([]string, error)
	BundleAsZip(ctx context.Context, batchID string) (string, error)
	DeleteBatch(ctx context.Context, batchID string) error
}

type manifestCache interface {
	Get(ctx context.Context, batchID string) (*models.Manifest, error)
	Set(ctx context.Context, manifest *models.Manifest) error
	Delete(ctx context.Context, batchID string) error
}

type eventPublisher interface {
	Publish(ctx context.Context, event models.BatchEvent) error
}

// Service assigns batch identities, drives uploads through the normalizer
// and the store, and owns manifest construction.
type Service struct {
	normalizer normalizer
	store      blobStore
	cache      manifestCache
	events     eventPublisher
	logger     *zap.Logger
	opts       processor.Options
	newID      func() string
	now        func() time.Time
}

type Option func(*Service)

func WithCache(c manifestCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithPublisher(p eventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithProcessingOptions(opts processor.Options) Option {
	return func(s *Service) { s.opts = opts }
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.now = fn }
}

func NewService(n normalizer, store blobStore, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		normalizer: n,
		store:      store,
		logger:     logger,
		opts:       processor.DefaultOptions(),
		newID:      uuid.NewString,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) publish(ctx context.Context, event models.BatchEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish batch event",
			zap.String("type", event.Type),
			zap.String("batch_id", event.BatchID),
			zap.Error(err))
	}
}
