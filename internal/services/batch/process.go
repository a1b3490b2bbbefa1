package batch

import (
	"context"
	"fmt"

	"github.com/phambaophuc/image-optimizer/internal/models"
	"github.com/phambaophuc/image-optimizer/internal/services/storage"
	"github.com/phambaophuc/image-optimizer/pkg/utils"
	"go.uber.org/zap"
)

// Process normalizes and stores every file as a new batch and writes its
// manifest. Files beyond MaxBatchImages are dropped. The first failure aborts
// the batch; images already stored are left in place and no manifest is
// written.
func (s *Service) Process(ctx context.Context, files []models.UploadFile) (*models.Manifest, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no images provided", models.ErrValidation)
	}
	if len(files) > models.MaxBatchImages {
		s.logger.Warn("Truncating batch",
			zap.Int("received", len(files)),
			zap.Int("max", models.MaxBatchImages))
		files = files[:models.MaxBatchImages]
	}
	for i, file := range files {
		if !utils.IsValidImageType(file.ContentType) {
			return nil, fmt.Errorf("%w: file %d (%s) has unsupported content type %q",
				models.ErrValidation, i, file.Filename, file.ContentType)
		}
	}

	batchID := s.newID()
	r := newRun(batchID, len(files))
	s.logger.Info("Processing batch", zap.String("batch_id", batchID), zap.Int("images", len(files)))

	urls := make([]string, 0, len(files))
	for idx, file := range files {
		r.advance(idx)

		if err := ctx.Err(); err != nil {
			return nil, s.abort(ctx, r, idx, err)
		}

		image, err := s.processOne(ctx, batchID, idx, file)
		if err != nil {
			return nil, s.abort(ctx, r, idx, err)
		}
		urls = append(urls, image.URL)
	}

	manifest := &models.Manifest{
		BatchID:     batchID,
		TotalImages: len(files),
		ProcessedAt: s.now(),
		ImageURLs:   urls,
		Status:      models.StatusCompleted,
	}

	if err := s.store.PutJSON(ctx, utils.ManifestKey(batchID), manifest); err != nil {
		return nil, s.abort(ctx, r, ManifestIndex, err)
	}
	r.complete()

	s.logger.Info("Batch completed",
		zap.String("batch_id", batchID),
		zap.Stringer("state", r.state),
		zap.Int("images", len(urls)))

	s.cacheManifest(ctx, manifest)
	s.publish(ctx, models.BatchEvent{
		Type:        models.EventBatchCompleted,
		BatchID:     batchID,
		TotalImages: manifest.TotalImages,
		ImageURLs:   manifest.ImageURLs,
	})

	return manifest, nil
}

func (s *Service) processOne(ctx context.Context, batchID string, idx int, file models.UploadFile) (*models.ProcessedImage, error) {
	result, err := s.normalizer.Normalize(file.Data, s.opts)
	if err != nil {
		return nil, err
	}
	if result.Oversize {
		s.logger.Warn("Image still too large",
			zap.String("batch_id", batchID),
			zap.Int("index", idx),
			zap.Int("bytes", len(result.Data)),
			zap.Int64("limit", s.opts.MaxBytes))
	}

	key := utils.ImageKey(batchID, idx)
	url, err := s.store.PutBlob(ctx, key, result.Data, storage.ContentTypeJPEG)
	if err != nil {
		return nil, err
	}

	image := &models.ProcessedImage{
		Index:    idx,
		Filename: file.Filename,
		Key:      key,
		URL:      url,
		Quality:  result.Quality,
		FileSize: int64(len(result.Data)),
		Oversize: result.Oversize,
	}

	s.logger.Info("Processed image",
		zap.String("batch_id", batchID),
		zap.Int("index", idx),
		zap.String("filename", file.Filename),
		zap.Int("quality", image.Quality),
		zap.Int64("bytes", image.FileSize))
	return image, nil
}

func (s *Service) abort(ctx context.Context, r *run, idx int, err error) error {
	abortErr := r.abort(idx, err)

	s.logger.Error("Batch aborted",
		zap.String("batch_id", r.batchID),
		zap.Stringer("state", r.state),
		zap.Int("index", idx),
		zap.Int("total", r.total),
		zap.Error(err))

	failed := idx
	s.publish(context.WithoutCancel(ctx), models.BatchEvent{
		Type:        models.EventBatchAborted,
		BatchID:     r.batchID,
		FailedIndex: &failed,
		Error:       err.Error(),
	})
	return abortErr
}
