// Package cache provides content-addressed caching for woven graphs and
// rendered artifacts. Backends share one small interface so the CLI can
// run against local files and the server against Redis without the
// pipeline knowing the difference.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Default TTLs per entry class. Woven graphs are cheap to recompute but
// frequently re-requested; rendered artifacts are the expensive step.
const (
	TTLWeave    = 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// ErrCacheMiss is returned by the typed helpers when a key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the backend interface. Get reports presence explicitly so a
// miss is not an error condition.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GetJSON retrieves and unmarshals a cached value into v.
// Returns ErrCacheMiss when the key is absent.
func GetJSON(ctx context.Context, c Cache, key string, v any) error {
	data, hit, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	if !hit {
		return ErrCacheMiss
	}
	return json.Unmarshal(data, v)
}

// SetJSON marshals v and stores it under key.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
