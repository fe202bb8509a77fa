// Package store persists CraftID records. The Store interface has a relational
// implementation (DatabaseStore) and a key-value document implementation
// (RedisStore); callers must not depend on which one is active.
package store

import (
	"context"
	"errors"

	"github.com/charlesng35/craftid/internal/models"
)

var (
	// ErrDuplicateKey is returned by Insert when a record with the same normalized
	// art name or public id already exists.
	ErrDuplicateKey = errors.New("store: duplicate key")
	// ErrUnavailable marks connection level failures.
	ErrUnavailable = errors.New("store: unavailable")
)

// Store is the record store contract shared by every backend.
type Store interface {
	// FindByNormalizedName looks a record up by its uniqueness key.
	FindByNormalizedName(ctx context.Context, name string) (*models.CraftID, bool, error)
	// FindByPublicID looks a record up by its public identifier.
	FindByPublicID(ctx context.Context, publicID string) (*models.CraftID, bool, error)
	// AllocateNextSequence returns a value never returned before for counter, starting at 1.
	AllocateNextSequence(ctx context.Context, counter string) (int64, error)
	// Insert persists a new record or fails with ErrDuplicateKey.
	Insert(ctx context.Context, record *models.CraftID) error
	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]models.CraftID, error)
	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)
	// EnsureSchema prepares tables, indexes and sequences. It must be idempotent.
	EnsureSchema(ctx context.Context) error
	Ping(ctx context.Context) error
	// Reset drops pooled connections so the next call reconnects.
	Reset(ctx context.Context) error
	Close() error
}
