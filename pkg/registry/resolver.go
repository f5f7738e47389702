// Package registry maps named game elements to their on-chain representation.
package registry

import (
	"context"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// Reader is the registry contract lookup.
type Reader interface {
	Resolve(ctx context.Context, elementHash common.Hash) (ledger common.Address, tokenID *big.Int, requiresTokenID bool, err error)
}

// ElementHash is the canonical registry key of a named element: keccak256(utf8(name)).
func ElementHash(assetName string) common.Hash {
	return crypto.Keccak256Hash([]byte(assetName))
}

// Resolver is the GameElementResolver.
type Resolver struct {
	reader Reader
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil reader makes every lookup fail with
// a ChainReadError.
func NewResolver(r Reader) *Resolver {
	return &Resolver{
		reader: r,
		logger: slog.Default().With("component", "registry"),
	}
}

// Resolve looks up where assetName lives on the ledger. A descriptor with a
// zero ledger address is returned as-is; callers must treat it as
// not provisioned.
func (r *Resolver) Resolve(ctx context.Context, assetName string) (contracts.GameElementDescriptor, error) {
	h := ElementHash(assetName)
	if r.reader == nil {
		return contracts.GameElementDescriptor{}, commiterr.New(commiterr.KindChainRead, commiterr.StepResolve, "registry reader not configured")
	}

	ledger, tokenID, requires, err := r.reader.Resolve(ctx, h)
	if err != nil {
		return contracts.GameElementDescriptor{}, commiterr.Wrap(commiterr.KindChainRead, commiterr.StepResolve, err, "registry resolve %s", h.Hex())
	}
	if tokenID == nil {
		tokenID = new(big.Int)
	}

	d := contracts.GameElementDescriptor{
		ElementHash:     h,
		LedgerAddress:   ledger,
		TokenID:         tokenID,
		RequiresTokenID: requires,
	}
	r.logger.DebugContext(ctx, "element resolved",
		"asset", assetName,
		"element_hash", h.Hex(),
		"ledger", ledger.Hex(),
		"token_id", tokenID.String(),
		"requires_token_id", requires,
	)
	return d, nil
}
