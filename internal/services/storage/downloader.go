package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetJSON reads the document at key into value.
func (g *Gateway) GetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := g.backend.Get(ctx, key)
	if err != nil {
		return wrapErr("get", key, err)
	}

	if err := json.Unmarshal(data, value); err != nil {
		return wrapErr("decode", key, fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

// ListByPrefix returns every stored key beginning with prefix.
func (g *Gateway) ListByPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := g.backend.List(ctx, prefix)
	if err != nil {
		return nil, wrapErr("list", prefix, err)
	}
	return keys, nil
}
