package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypeJSON = "application/json"
	ContentTypeZIP  = "application/zip"
)

// PutBlob stores data under key and returns its public URL.
func (g *Gateway) PutBlob(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := g.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return "", wrapErr("put", key, err)
	}

	g.logger.Info("File uploaded", zap.String("key", key), zap.Int("bytes", len(data)))
	return g.backend.PublicURL(key), nil
}

// PutJSON stores value as an indented JSON document.
func (g *Gateway) PutJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := g.backend.Put(ctx, key, bytes.NewReader(data), int64(len(data)), ContentTypeJSON); err != nil {
		return wrapErr("put", key, err)
	}

	g.logger.Info("JSON saved", zap.String("key", key))
	return nil
}
