package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Item is a collection element that knows its identity and scope. The type
// parameter lets WithIdentity return the concrete element type.
type Item[T any] interface {
	ItemID() string
	Scoped() (projectID *int64, global bool)
	WithIdentity(id string, projectID *int64, global bool) T
}

// Collection is CRUD over one serialized slice stored under a fixed key.
// Every operation reads the whole collection, mutates in memory, and writes
// the whole collection back. Cardinality is tens of items, not thousands.
type Collection[T Item[T]] struct {
	kv     KV
	key    string
	logger *zap.Logger
}

// NewCollection binds a collection to its storage key.
func NewCollection[T Item[T]](kv KV, key string, logger *zap.Logger) *Collection[T] {
	return &Collection[T]{kv: kv, key: key, logger: logger}
}

// All returns every item in insertion order. Corrupt stored content is
// logged and treated as an empty collection.
func (c *Collection[T]) All(ctx context.Context) ([]T, error) {
	data, ok, err := c.kv.Get(ctx, c.key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("corrupt collection in store, falling back to empty",
			zap.String("key", c.key),
			zap.Error(err),
		)
		return nil, nil
	}
	return items, nil
}

// List returns the items visible under a scope: every global item, plus
// items whose project id matches exactly when a project is selected.
func (c *Collection[T]) List(ctx context.Context, projectID *int64) ([]T, error) {
	items, err := c.All(ctx)
	if err != nil {
		return nil, err
	}

	var visible []T
	for _, item := range items {
		itemProject, global := item.Scoped()
		if global {
			visible = append(visible, item)
			continue
		}
		if projectID != nil && itemProject != nil && *itemProject == *projectID {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// Create assigns a fresh id, stamps the scope, appends, and persists. The
// id is a random UUID so that two items created in the same millisecond
// can never collide.
func (c *Collection[T]) Create(ctx context.Context, item T, projectID *int64, global bool) (T, error) {
	var zero T

	stamped := item.WithIdentity(uuid.NewString(), projectID, global)

	items, err := c.All(ctx)
	if err != nil {
		return zero, err
	}
	items = append(items, stamped)

	if err := c.persist(ctx, items); err != nil {
		return zero, err
	}
	return stamped, nil
}

// Update replaces the matching item with the result of apply.
func (c *Collection[T]) Update(ctx context.Context, id string, apply func(T) T) error {
	items, err := c.All(ctx)
	if err != nil {
		return err
	}

	found := false
	for i, item := range items {
		if item.ItemID() == id {
			items[i] = apply(item)
			found = true
		}
	}
	if !found {
		return fmt.Errorf("no item with id %q in %s", id, c.key)
	}
	return c.persist(ctx, items)
}

// Delete removes the matching item, preserving the order of the rest.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	items, err := c.All(ctx)
	if err != nil {
		return err
	}

	kept := items[:0]
	for _, item := range items {
		if item.ItemID() != id {
			kept = append(kept, item)
		}
	}
	return c.persist(ctx, kept)
}

func (c *Collection[T]) persist(ctx context.Context, items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal collection %s: %w", c.key, err)
	}
	return c.kv.Set(ctx, c.key, data)
}
