// Package deposit hands out watch-only deposit addresses from extended public keys.
package deposit

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/olehkaliuzhnyi/hdwallet/internal/storage"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// AddressDeriver derives a child address from an extended public key.
// *controller.Controller satisfies it.
type AddressDeriver interface {
	GenerateWalletAddressFromXpub(ctx context.Context, req models.XpubRequest) (string, error)
}

// Allocator assigns sequential address indexes below an xpub and records the
// resulting addresses. It never sees private keys.
type Allocator struct {
	deriver     AddressDeriver
	indexes     storage.IndexStore
	allocations storage.AllocationStore
	watch       storage.WatchStore
	logger      zerolog.Logger

	mu sync.Mutex
}

// NewAllocator creates an allocator over the given stores.
func NewAllocator(d AddressDeriver, indexes storage.IndexStore, allocations storage.AllocationStore, watch storage.WatchStore) *Allocator {
	return &Allocator{
		deriver:     d,
		indexes:     indexes,
		allocations: allocations,
		watch:       watch,
		logger:      log.With().Str("component", "deposit_allocator").Logger(),
	}
}

// WithLogger replaces the component logger.
func (a *Allocator) WithLogger(l zerolog.Logger) *Allocator {
	a.logger = l
	return a
}

// AllocateRequest represents a request for the next deposit address.
type AllocateRequest struct {
	IdempotencyKey string // repeats return the stored allocation; empty disables
	Protocol       models.Protocol
	Xpub           string
}

// Allocate returns the next unused address below req.Xpub.
func (a *Allocator) Allocate(ctx context.Context, req AllocateRequest) (*models.Allocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Idempotency check
	if req.IdempotencyKey != "" {
		existing, err := a.allocations.Get(req.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(err, "allocation store get")
		}
		if existing != nil {
			a.logger.Info().
				Str("idempotency_key", req.IdempotencyKey).
				Str("address", existing.Address).
				Msg("duplicate request, returning existing allocation")
			return existing, nil
		}
	}

	key := indexKey(req.Protocol, req.Xpub)

	// Derive before consuming the index so a bad xpub leaves no gap.
	next, err := a.indexes.Peek(key)
	if err != nil {
		return nil, errors.Wrap(err, "index store peek")
	}
	addr, err := a.derive(ctx, req, next)
	if err != nil {
		return nil, err
	}
	index, err := a.indexes.GetAndIncrement(key)
	if err != nil {
		return nil, errors.Wrap(err, "index store")
	}
	if index != next {
		if addr, err = a.derive(ctx, req, index); err != nil {
			return nil, err
		}
	}

	alloc := &models.Allocation{
		ID:       uuid.NewString(),
		Protocol: req.Protocol,
		Xpub:     req.Xpub,
		Index:    index,
		Address:  addr,
	}

	if err := a.watch.Add(addr); err != nil {
		return nil, errors.Wrap(err, "watch store add")
	}
	if req.IdempotencyKey != "" {
		if err := a.allocations.Put(req.IdempotencyKey, alloc); err != nil {
			return nil, errors.Wrap(err, "allocation store put")
		}
	}

	a.logger.Info().
		Str("allocation_id", alloc.ID).
		Str("protocol", string(alloc.Protocol)).
		Uint32("index", alloc.Index).
		Str("address", alloc.Address).
		Msg("deposit address allocated")
	return alloc, nil
}

// AllocateBatch allocates count consecutive addresses without idempotency keys.
func (a *Allocator) AllocateBatch(ctx context.Context, protocol models.Protocol, xpub string, count int) ([]*models.Allocation, error) {
	if count <= 0 {
		return nil, errors.Errorf("count must be positive, got %d", count)
	}
	out := make([]*models.Allocation, 0, count)
	for i := 0; i < count; i++ {
		alloc, err := a.Allocate(ctx, AllocateRequest{Protocol: protocol, Xpub: xpub})
		if err != nil {
			return out, err
		}
		out = append(out, alloc)
	}
	return out, nil
}

func (a *Allocator) derive(ctx context.Context, req AllocateRequest, index uint32) (string, error) {
	addr, err := a.deriver.GenerateWalletAddressFromXpub(ctx, models.XpubRequest{
		Protocol: req.Protocol,
		Xpub:     req.Xpub,
		Address:  index,
	})
	if err != nil {
		a.logger.Warn().Str("protocol", string(req.Protocol)).Uint32("index", index).Err(err).Msg("derive deposit address")
		return "", err
	}
	return addr, nil
}

func indexKey(p models.Protocol, xpub string) string {
	return string(p) + "/" + xpub
}
