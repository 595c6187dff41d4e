package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starford/vitrine/internal/apperr"
)

// Collection reads and writes one JSON array stored under a single key.
//
// Load never fails: a missing key yields an empty slice, and a value that
// does not parse is logged, removed, and treated as empty.
type Collection[T any] struct {
	store  Store
	key    string
	logger *slog.Logger
}

// NewCollection binds a typed collection to key in store.
func NewCollection[T any](store Store, key string, logger *slog.Logger) *Collection[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[T]{store: store, key: key, logger: logger}
}

// Key returns the storage key.
func (c *Collection[T]) Key() string { return c.key }

// Load returns the stored sequence, or an empty one on any failure.
func (c *Collection[T]) Load(ctx context.Context) []T {
	data, err := c.store.Get(ctx, c.key)
	if errors.Is(err, apperr.ErrNotFound) {
		return []T{}
	}
	if err != nil {
		c.logger.Error("kvstore: load failed", slog.String("key", c.key), slog.String("error", err.Error()))
		return []T{}
	}

	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		c.logger.Warn("kvstore: discarding unparsable value", slog.String("key", c.key), slog.String("error", err.Error()))
		if derr := c.store.Delete(ctx, c.key); derr != nil {
			c.logger.Error("kvstore: clear corrupt key", slog.String("key", c.key), slog.String("error", derr.Error()))
		}
		return []T{}
	}
	if out == nil {
		out = []T{}
	}
	return out
}

// Save overwrites the stored sequence with items.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("kvstore: encode %s: %w", c.key, err)
	}
	return c.store.Put(ctx, c.key, data)
}
