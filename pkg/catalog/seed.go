package catalog

import (
	"fmt"
	"os"
	"time"

	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"gopkg.in/yaml.v3"
)

// Seed is the on-disk YAML format used to populate a MemoryStore in
// development and single-node deployments.
type Seed struct {
	Resources []contracts.ResourceSummary `yaml:"resources"`
	Inventory []SeedHolding               `yaml:"inventory"`
}

// SeedHolding is one player's holding of one resource.
type SeedHolding struct {
	Player     string    `yaml:"player"`
	Resource   string    `yaml:"resource"`
	Quantity   int64     `yaml:"quantity"`
	Equipped   bool      `yaml:"equipped"`
	Source     string    `yaml:"source"`
	AcquiredAt time.Time `yaml:"acquired_at"`
}

// LoadSeedFile reads a YAML seed from path into a new MemoryStore.
func LoadSeedFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read seed: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes YAML seed data into a new MemoryStore.
func ParseSeed(data []byte) (*MemoryStore, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("catalog: parse seed: %w", err)
	}

	s := NewMemoryStore()
	known := make(map[string]bool, len(seed.Resources))
	for _, r := range seed.Resources {
		if r.ID == "" || r.Name == "" {
			return nil, fmt.Errorf("catalog: seed resource missing id or name")
		}
		if !r.Class.Valid() {
			return nil, fmt.Errorf("catalog: seed resource %q has unknown class %q", r.Name, r.Class)
		}
		known[r.ID] = true
		s.AddResource(r)
	}
	for _, h := range seed.Inventory {
		if !known[h.Resource] {
			return nil, fmt.Errorf("catalog: seed holding for %s references unknown resource %q", h.Player, h.Resource)
		}
		s.SetInventory(h.Player, contracts.InventoryDetails{
			ResourceID: h.Resource,
			Quantity:   h.Quantity,
			Equipped:   h.Equipped,
			Source:     h.Source,
			AcquiredAt: h.AcquiredAt,
		})
	}
	return s, nil
}
