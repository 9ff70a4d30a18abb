// Package store provides data storage interfaces and implementations.
//
// Three backends implement the Store interface: an in-memory map, an
// embedded SQLite database, and a networked Redis key-value store. The
// active backend is selected once at startup via New; all backends honor
// identical success and failure semantics so callers never depend on
// which one is running.
package store

import (
	"context"
	"errors"

	"github.com/Runoi/itemstore/internal/model"
)

// Store errors.
var (
	ErrNotFound    = errors.New("item not found")
	ErrConflict    = errors.New("item already exists")
	ErrUnavailable = errors.New("storage unavailable")
	ErrInvalidID   = errors.New("invalid item ID")
	ErrNilItem     = errors.New("item cannot be nil")
)

// Store defines the interface for item storage operations.
//
// Not-found and conflict outcomes are expected results, returned as
// errors wrapping ErrNotFound and ErrConflict; an unreachable or failing
// medium wraps ErrUnavailable. Every operation is atomic from an
// external observer's viewpoint.
type Store interface {
	// List returns all items from the store, ordered by ascending ID.
	List(ctx context.Context) ([]model.Item, error)

	// Get retrieves an item by its ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id int64) (*model.Item, error)

	// Create adds a new item to the store and returns the created item
	// with a freshly assigned ID.
	Create(ctx context.Context, item *model.Item) (*model.Item, error)

	// Update fully replaces an existing item. Returns ErrNotFound if the
	// ID is absent; an update miss never creates an item.
	Update(ctx context.Context, id int64, item *model.Item) (*model.Item, error)

	// Delete removes an item from the store by its ID. Returns
	// ErrNotFound if the ID is absent.
	Delete(ctx context.Context, id int64) error

	// Ping verifies the underlying storage medium is reachable.
	Ping(ctx context.Context) error

	// Close releases the underlying storage medium.
	Close() error
}
