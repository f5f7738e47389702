package catalog

import (
	"context"
	"sync"

	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// MemoryStore is a thread-safe in-memory catalog and inventory.
type MemoryStore struct {
	mu        sync.RWMutex
	resources []contracts.ResourceSummary
	inventory map[string]map[string]contracts.InventoryDetails // player -> resource -> details
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		inventory: make(map[string]map[string]contracts.InventoryDetails),
	}
}

// AddResource appends a catalog entry.
func (s *MemoryStore) AddResource(r contracts.ResourceSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources = append(s.resources, r)
}

// SetInventory records a player's holding of a resource.
func (s *MemoryStore) SetInventory(playerID string, d contracts.InventoryDetails) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.inventory[playerID]
	if !ok {
		items = make(map[string]contracts.InventoryDetails)
		s.inventory[playerID] = items
	}
	items[d.ResourceID] = d
}

func (s *MemoryStore) ListAll(_ context.Context) ([]contracts.ResourceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]contracts.ResourceSummary, len(s.resources))
	copy(out, s.resources)
	return out, nil
}

func (s *MemoryStore) HasItem(_ context.Context, playerID, resourceID string, qty int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.inventory[playerID][resourceID]
	if !ok {
		return false, nil
	}
	return d.Quantity >= qty, nil
}

func (s *MemoryStore) GetItem(_ context.Context, playerID, resourceID string) (*contracts.InventoryDetails, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.inventory[playerID][resourceID]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &d, nil
}
