// Package store is the durable client-side state layer: a small key-value
// abstraction with one entry per key, plus collection CRUD on top of it.
// Writes are whole-value and last-write-wins; concurrent writers are a known
// accepted limitation.
package store

import "context"

// Fixed keys, one serialized entry each.
const (
	KeyToken          = "token"
	KeyUser           = "user"
	KeyTheme          = "theme"
	KeyDateRange      = "dateRange"
	KeyAlerts         = "energyAlerts"
	KeyVisualizations = "savedVisualizations"
)

// KV is the pluggable key-value backend. Implementations return ok=false
// for absent keys rather than an error.
type KV interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
