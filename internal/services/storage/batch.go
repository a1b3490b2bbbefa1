package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/phambaophuc/image-optimizer/pkg/utils"
	"go.uber.org/zap"
)

// ListBatchIDs returns the ids of every batch directory, sorted.
func (g *Gateway) ListBatchIDs(ctx context.Context) ([]string, error) {
	ids, err := g.backend.ListDirs(ctx, utils.BatchesRoot)
	if err != nil {
		return nil, wrapErr("list", utils.BatchesRoot, err)
	}
	return ids, nil
}

// BundleAsZip packs every JPEG of a batch into downloads/{batchID}.zip and
// returns a signed link to it. Repeated calls rebuild the archive.
func (g *Gateway) BundleAsZip(ctx context.Context, batchID string) (string, error) {
	prefix := utils.BatchPrefix(batchID)

	keys, err := g.ListByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	var images []string
	for _, key := range keys {
		if utils.IsJPEGKey(key) {
			images = append(images, key)
		}
	}
	if len(images) == 0 {
		return "", notFound(fmt.Sprintf("no images for batch %s", batchID))
	}

	archive, err := g.buildArchive(ctx, images)
	if err != nil {
		return "", err
	}

	zipKey := utils.ArchiveKey(batchID)
	if err := g.backend.Put(ctx, zipKey, bytes.NewReader(archive), int64(len(archive)), ContentTypeZIP); err != nil {
		return "", wrapErr("put", zipKey, err)
	}

	url, err := g.backend.SignedURL(ctx, zipKey, g.downloadTTL)
	if err != nil {
		return "", wrapErr("sign", zipKey, err)
	}

	g.logger.Info("ZIP file created",
		zap.String("key", zipKey),
		zap.Int("entries", len(images)),
		zap.Int("bytes", len(archive)),
	)
	return url, nil
}

func (g *Gateway) buildArchive(ctx context.Context, keys []string) ([]byte, error) {
	buffer := &bytes.Buffer{}
	zw := zip.NewWriter(buffer)

	for _, key := range keys {
		data, err := g.backend.Get(ctx, key)
		if err != nil {
			zw.Close()
			return nil, wrapErr("get", key, err)
		}

		name := path.Base(key)
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now(),
		})
		if err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
		if _, err := w.Write(data); err != nil {
			zw.Close()
			return nil, fmt.Errorf("failed to write %s to archive: %w", name, err)
		}

		g.logger.Debug("Added to ZIP", zap.String("entry", name))
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buffer.Bytes(), nil
}

// DeleteBatch removes every object of a batch and its archive. Deleting a
// batch that does not exist is not an error.
func (g *Gateway) DeleteBatch(ctx context.Context, batchID string) error {
	prefix := utils.BatchPrefix(batchID)

	keys, err := g.backend.List(ctx, prefix)
	if err != nil {
		return wrapErr("list", prefix, err)
	}

	zipKey := utils.ArchiveKey(batchID)
	archives, err := g.backend.List(ctx, zipKey)
	if err != nil {
		return wrapErr("list", zipKey, err)
	}
	for _, key := range archives {
		if key == zipKey {
			keys = append(keys, key)
		}
	}

	if len(keys) == 0 {
		return nil
	}

	if err := g.backend.Remove(ctx, keys); err != nil {
		return wrapErr("remove", prefix, err)
	}

	g.logger.Info("Deleted batch files", zap.String("batch_id", batchID), zap.Int("count", len(keys)))
	return nil
}
