package storage

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/olehkaliuzhnyi/hdwallet/internal/hd"
	"github.com/olehkaliuzhnyi/hdwallet/pkg/models"
)

// ErrIndexExhausted is returned once every non-hardened index of a key is used.
var ErrIndexExhausted = errors.New("address index space exhausted")

// MemoryIndexStore is an in-memory IndexStore.
type MemoryIndexStore struct {
	mu      sync.Mutex
	indexes map[string]uint32
}

func NewMemoryIndexStore() *MemoryIndexStore {
	return &MemoryIndexStore{indexes: make(map[string]uint32)}
}

func (s *MemoryIndexStore) GetAndIncrement(key string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.indexes[key]
	if n >= hd.HardenedOffset {
		return 0, errors.Wrap(ErrIndexExhausted, key)
	}
	s.indexes[key] = n + 1
	return n, nil
}

func (s *MemoryIndexStore) Peek(key string) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexes[key], nil
}

// MemoryAllocationStore is an in-memory AllocationStore.
type MemoryAllocationStore struct {
	mu          sync.RWMutex
	allocations map[string]*models.Allocation
}

func NewMemoryAllocationStore() *MemoryAllocationStore {
	return &MemoryAllocationStore{allocations: make(map[string]*models.Allocation)}
}

func (s *MemoryAllocationStore) Get(idempotencyKey string) (*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.allocations[idempotencyKey]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryAllocationStore) Put(idempotencyKey string, a *models.Allocation) error {
	if a == nil {
		return errors.New("nil allocation")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.allocations[idempotencyKey] = &cp
	return nil
}

// MemoryWatchStore is an in-memory WatchStore.
type MemoryWatchStore struct {
	mu    sync.RWMutex
	addrs map[string]bool
}

func NewMemoryWatchStore() *MemoryWatchStore {
	return &MemoryWatchStore{addrs: make(map[string]bool)}
}

func (s *MemoryWatchStore) Add(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addrs[address] = true
	return nil
}

func (s *MemoryWatchStore) Remove(address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.addrs, address)
	return nil
}

// List returns watched addresses in sorted order.
func (s *MemoryWatchStore) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]string, 0, len(s.addrs))
	for addr := range s.addrs {
		result = append(result, addr)
	}
	sort.Strings(result)
	return result, nil
}

func (s *MemoryWatchStore) Contains(address string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addrs[address], nil
}
