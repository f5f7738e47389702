// Package entitlement confirms, against the authoritative off-chain records,
// that a player may legitimately trigger a change to an asset.
package entitlement

import (
	"context"
	"log/slog"

	"github.com/Mindburn-Labs/commitgate/pkg/catalog"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// Query names the asset, the player, and how much of it the change needs.
type Query struct {
	AssetName string
	PlayerID  string
	// Class restricts the catalog match. Empty matches any class.
	Class contracts.AssetClass
	// Quantity required; values below 1 are treated as 1.
	Quantity int64
}

// Verifier gates signing on catalog presence and inventory holdings.
type Verifier struct {
	catalog   catalog.CatalogReader
	inventory catalog.InventoryReader
	logger    *slog.Logger
}

func NewVerifier(c catalog.CatalogReader, inv catalog.InventoryReader) *Verifier {
	return &Verifier{
		catalog:   c,
		inventory: inv,
		logger:    slog.Default().With("component", "entitlement"),
	}
}

// Verify looks the asset up by name and checks the player's holding.
//
// The result never mutates inventory. When the player lacks the asset the
// resource is withheld from the result. A failure fetching inventory details
// is advisory and reported as a nil InventoryDetails. Read failures of the
// catalog or of the holding check are StoreReadErrors.
func (v *Verifier) Verify(ctx context.Context, q Query) (contracts.EntitlementCheckResult, error) {
	qty := q.Quantity
	if qty < 1 {
		qty = 1
	}

	entries, err := v.catalog.ListAll(ctx)
	if err != nil {
		return contracts.EntitlementCheckResult{}, commiterr.Wrap(commiterr.KindStoreRead, commiterr.StepVerify, err, "catalog list")
	}

	var hit *contracts.ResourceSummary
	for i := range entries {
		if entries[i].Name != q.AssetName {
			continue
		}
		if q.Class != "" && entries[i].Class != q.Class {
			continue
		}
		hit = &entries[i]
		break
	}
	if hit == nil {
		v.logger.InfoContext(ctx, "catalog miss", "asset", q.AssetName, "class", q.Class)
		return contracts.EntitlementCheckResult{}, nil
	}
	v.logger.DebugContext(ctx, "catalog hit", "asset", q.AssetName, "resource_id", hit.ID)

	has, err := v.inventory.HasItem(ctx, q.PlayerID, hit.ID, qty)
	if err != nil {
		return contracts.EntitlementCheckResult{}, commiterr.Wrap(commiterr.KindStoreRead, commiterr.StepVerify, err, "inventory check for %s", hit.ID)
	}
	v.logger.InfoContext(ctx, "entitlement check",
		"asset", q.AssetName,
		"resource_id", hit.ID,
		"player_id", q.PlayerID,
		"quantity", qty,
		"entitled", has,
	)
	if !has {
		return contracts.EntitlementCheckResult{Found: true}, nil
	}

	result := contracts.EntitlementCheckResult{Found: true, UserHasIt: true, Resource: hit}
	details, err := v.inventory.GetItem(ctx, q.PlayerID, hit.ID)
	if err != nil {
		v.logger.WarnContext(ctx, "inventory detail fetch failed", "resource_id", hit.ID, "player_id", q.PlayerID, "error", err)
		return result, nil
	}
	v.logger.DebugContext(ctx, "inventory details",
		"resource_id", hit.ID,
		"quantity", details.Quantity,
		"equipped", details.Equipped,
		"source", details.Source,
	)
	result.InventoryDetails = details
	return result, nil
}
