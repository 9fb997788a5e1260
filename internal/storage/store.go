// Package storage holds the state behind watch-only deposit address allocation.
package storage

import "github.com/olehkaliuzhnyi/hdwallet/pkg/models"

// IndexStore hands out address indexes per extended public key.
type IndexStore interface {
	// GetAndIncrement atomically returns the next unused index for key and advances it.
	GetAndIncrement(key string) (uint32, error)
	// Peek returns the next index without advancing it.
	Peek(key string) (uint32, error)
}

// AllocationStore provides idempotent allocation storage.
type AllocationStore interface {
	// Get returns a previously stored allocation by idempotency key, or nil if not found.
	Get(idempotencyKey string) (*models.Allocation, error)
	// Put stores an allocation keyed by idempotency key.
	Put(idempotencyKey string, a *models.Allocation) error
}

// WatchStore manages the set of handed-out deposit addresses.
type WatchStore interface {
	Add(address string) error
	Remove(address string) error
	List() ([]string, error)
	Contains(address string) (bool, error)
}
