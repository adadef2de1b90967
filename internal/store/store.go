// Package store persists adventure context, adventure events and the
// persistent story cache tier. Backends live in the sqlite and postgres
// subpackages.
package store

import (
	"context"
	"errors"
	"time"
)

var ErrAdventureNotFound = errors.New("adventure not found")

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	AdventureStore
	CacheStore
}

type AdventureStore interface {
	// SaveAdventureContext upserts by adventure ID. The last committed write
	// wins; created_at of an existing row is kept.
	SaveAdventureContext(ctx context.Context, c AdventureContext) (*AdventureContext, error)
	// GetAdventureContext returns nil when the adventure does not exist.
	GetAdventureContext(ctx context.Context, adventureID string) (*AdventureContext, error)
	// AppendAdventureEvent returns ErrAdventureNotFound for unknown adventures.
	AppendAdventureEvent(ctx context.Context, e AdventureEvent) (*AdventureEvent, error)
	// ListAdventureEvents returns the most recent limit events in timestamp
	// order, oldest first. A limit <= 0 returns every event.
	ListAdventureEvents(ctx context.Context, adventureID string, limit int) ([]AdventureEvent, error)
}

type CacheStore interface {
	// GetCachedBlob ignores rows whose expiry has passed.
	GetCachedBlob(ctx context.Context, key string) ([]byte, bool, error)
	SetCachedBlob(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	PruneCache(ctx context.Context) (int64, error)
	ClearCache(ctx context.Context) (int64, error)
}
