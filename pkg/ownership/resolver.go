// Package ownership finds which non-fungible instance a player holds, so a
// burn or modify can name a concrete token id.
package ownership

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
)

// LedgerReader is the enumerable-collection view of a ledger.
type LedgerReader interface {
	BalanceOf(ctx context.Context, ledger, owner common.Address, tokenID *big.Int) (*big.Int, error)
	TokenOfOwnerByIndex(ctx context.Context, ledger, owner common.Address, index *big.Int) (*big.Int, error)
	OwnerOf(ctx context.Context, ledger common.Address, tokenID *big.Int) (common.Address, error)
}

// Resolver is the OwnershipResolver.
type Resolver struct {
	ledger LedgerReader
	book   Store
	logger *slog.Logger
}

// NewResolver creates a resolver. book may be nil, in which case requests
// naming a specific token id cannot be honoured.
func NewResolver(ledger LedgerReader, book Store) *Resolver {
	return &Resolver{
		ledger: ledger,
		book:   book,
		logger: slog.Default().With("component", "ownership"),
	}
}

// ResolveOwnedTokenID returns the token the player will act on.
//
// A zero on-chain balance is an OwnershipError. When requested is set it must
// be listed for the player in the ownership book and held by the player
// on-chain; the book can be stale after transfers. Otherwise the first token
// the collection enumerates for the player (index 0) is returned; this cannot
// target a specific instance, it acts on whichever one the ledger lists first.
func (r *Resolver) ResolveOwnedTokenID(ctx context.Context, collection, player common.Address, requested *big.Int) (*big.Int, error) {
	if r.ledger == nil {
		return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepOwnership, "ledger connection not configured")
	}

	balance, err := r.ledger.BalanceOf(ctx, collection, player, nil)
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindChainRead, commiterr.StepOwnership, err, "balance of %s", player.Hex())
	}
	if balance.Sign() <= 0 {
		return nil, commiterr.New(commiterr.KindOwnership, commiterr.StepOwnership, "%s owns no token in %s", player.Hex(), collection.Hex())
	}

	if requested != nil {
		if r.book == nil {
			return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepOwnership, "ownership book not configured; cannot target token %s", requested)
		}
		owns, err := r.book.Owns(ctx, player, collection, requested)
		if err != nil {
			return nil, commiterr.Wrap(commiterr.KindStoreRead, commiterr.StepOwnership, err, "ownership book lookup")
		}
		if !owns {
			return nil, commiterr.New(commiterr.KindOwnership, commiterr.StepOwnership, "token %s in %s is not recorded for %s", requested, collection.Hex(), player.Hex())
		}
		holder, err := r.ledger.OwnerOf(ctx, collection, requested)
		if err != nil {
			return nil, commiterr.Wrap(commiterr.KindChainRead, commiterr.StepOwnership, err, "owner of token %s", requested)
		}
		if holder != player {
			r.logger.WarnContext(ctx, "ownership book entry is stale",
				"collection", collection.Hex(),
				"player", player.Hex(),
				"token_id", requested.String(),
				"holder", holder.Hex(),
			)
			return nil, commiterr.New(commiterr.KindOwnership, commiterr.StepOwnership, "token %s in %s is held by %s, not %s", requested, collection.Hex(), holder.Hex(), player.Hex())
		}
		return new(big.Int).Set(requested), nil
	}

	tokenID, err := r.ledger.TokenOfOwnerByIndex(ctx, collection, player, big.NewInt(0))
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindChainRead, commiterr.StepOwnership, err, "token of owner by index")
	}
	r.logger.DebugContext(ctx, "first owned token selected",
		"collection", collection.Hex(),
		"player", player.Hex(),
		"token_id", tokenID.String(),
		"balance", balance.String(),
	)
	return tokenID, nil
}
