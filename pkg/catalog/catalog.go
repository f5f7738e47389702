// Package catalog holds the read-side collaborators the commit pipeline gates on:
// the item catalog and per-player inventory. The pipeline never writes through
// these interfaces.
package catalog

import (
	"context"
	"errors"

	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

var ErrItemNotFound = errors.New("inventory item not found")

// CatalogReader lists every catalog entry. Callers scan by name.
type CatalogReader interface {
	ListAll(ctx context.Context) ([]contracts.ResourceSummary, error)
}

// InventoryReader answers entitlement questions about a player's holdings.
type InventoryReader interface {
	// HasItem reports whether the player holds at least qty of the resource.
	HasItem(ctx context.Context, playerID, resourceID string, qty int64) (bool, error)
	// GetItem returns inventory metadata, or ErrItemNotFound.
	GetItem(ctx context.Context, playerID, resourceID string) (*contracts.InventoryDetails, error)
}
