package contracts

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ResourceSummary is a catalog entry as exposed by the catalog collaborator.
type ResourceSummary struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Class       AssetClass `json:"class" yaml:"class"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
}

// InventoryDetails is advisory per-player inventory metadata.
type InventoryDetails struct {
	ResourceID string    `json:"resource_id"`
	Quantity   int64     `json:"quantity"`
	Equipped   bool      `json:"equipped"`
	Source     string    `json:"source,omitempty"` // how the player acquired it (quest, craft, drop)
	AcquiredAt time.Time `json:"acquired_at,omitempty"`
}

// EntitlementCheckResult is the read-only snapshot used to gate signing.
// Resource is nil whenever UserHasIt is false.
type EntitlementCheckResult struct {
	Found            bool              `json:"found"`
	UserHasIt        bool              `json:"user_has_it"`
	Resource         *ResourceSummary  `json:"resource,omitempty"`
	InventoryDetails *InventoryDetails `json:"inventory_details,omitempty"`
}

// Entitled reports whether signing may proceed.
func (r EntitlementCheckResult) Entitled() bool {
	return r.Found && r.UserHasIt && r.Resource != nil
}

// GameElementDescriptor describes where a named asset lives on the external ledger.
type GameElementDescriptor struct {
	ElementHash     common.Hash    `json:"element_hash"`
	LedgerAddress   common.Address `json:"ledger_address"`
	TokenID         *big.Int       `json:"token_id"`
	RequiresTokenID bool           `json:"requires_token_id"`
}

// Provisioned reports whether the element has a ledger on-chain.
func (d GameElementDescriptor) Provisioned() bool {
	return d.LedgerAddress != (common.Address{})
}
