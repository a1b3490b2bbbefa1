package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/phambaophuc/image-optimizer/pkg/utils"
	"go.uber.org/zap"
)

// validateID rejects ids that would address keys outside their batch
// prefix. Any other id is looked up as is and is simply not found when no
// such batch exists.
func validateID(batchID string) error {
	if batchID == "" || strings.ContainsAny(batchID, `/\`) || strings.Contains(batchID, "..") {
		return fmt.Errorf("%w: invalid batch id %q", models.ErrValidation, batchID)
	}
	return nil
}

// Get returns the manifest of a completed batch.
func (s *Service) Get(ctx context.Context, batchID string) (*models.Manifest, error) {
	if err := validateID(batchID); err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, batchID)
		if err != nil {
			s.logger.Warn("Manifest cache read failed", zap.String("batch_id", batchID), zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	var manifest models.Manifest
	if err := s.store.GetJSON(ctx, utils.ManifestKey(batchID), &manifest); err != nil {
		return nil, err
	}

	s.cacheManifest(ctx, &manifest)
	return &manifest, nil
}

// List returns the manifests of every completed batch. Batch directories
// without a manifest (aborted batches) are skipped.
func (s *Service) List(ctx context.Context) ([]models.Manifest, error) {
	ids, err := s.store.ListBatchIDs(ctx)
	if err != nil {
		return nil, err
	}

	manifests := make([]models.Manifest, 0, len(ids))
	for _, id := range ids {
		var manifest models.Manifest
		if err := s.store.GetJSON(ctx, utils.ManifestKey(id), &manifest); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				continue
			}
			return nil, err
		}
		manifests = append(manifests, manifest)
	}
	return manifests, nil
}

// DownloadURL bundles the batch images into an archive and returns a
// temporary link to it.
func (s *Service) DownloadURL(ctx context.Context, batchID string) (string, error) {
	if err := validateID(batchID); err != nil {
		return "", err
	}
	return s.store.BundleAsZip(ctx, batchID)
}

// Delete removes a batch, its archive and its cached manifest. Unknown
// batches are not an error.
func (s *Service) Delete(ctx context.Context, batchID string) error {
	if err := validateID(batchID); err != nil {
		return err
	}

	if err := s.store.DeleteBatch(ctx, batchID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, batchID); err != nil {
			s.logger.Warn("Manifest cache invalidation failed", zap.String("batch_id", batchID), zap.Error(err))
		}
	}

	s.publish(ctx, models.BatchEvent{Type: models.EventBatchDeleted, BatchID: batchID})
	return nil
}

func (s *Service) cacheManifest(ctx context.Context, manifest *models.Manifest) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, manifest); err != nil {
		s.logger.Warn("Manifest cache write failed", zap.String("batch_id", manifest.BatchID), zap.Error(err))
	}
}
