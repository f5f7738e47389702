// Package bridge provides CommitBridge, the composition layer that runs a
// requested asset change through entitlement, registry, ownership, encoding
// and signing, and hands back a signed commit.
//
// It is fail-closed: no signature is produced unless every step succeeds.
package bridge

import (
	"context"
	"errors"
	"log/slog"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mindburn-Labs/commitgate/pkg/calldata"
	"github.com/Mindburn-Labs/commitgate/pkg/commit"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/Mindburn-Labs/commitgate/pkg/crypto"
	"github.com/Mindburn-Labs/commitgate/pkg/entitlement"
	"github.com/Mindburn-Labs/commitgate/pkg/nonce"
	"github.com/Mindburn-Labs/commitgate/pkg/observability"
)

// EntitlementVerifier is satisfied by *entitlement.Verifier.
type EntitlementVerifier interface {
	Verify(ctx context.Context, q entitlement.Query) (contracts.EntitlementCheckResult, error)
}

// ElementResolver is satisfied by *registry.Resolver.
type ElementResolver interface {
	Resolve(ctx context.Context, assetName string) (contracts.GameElementDescriptor, error)
}

// OwnershipResolver is satisfied by *ownership.Resolver.
type OwnershipResolver interface {
	ResolveOwnedTokenID(ctx context.Context, collection, player common.Address, requested *big.Int) (*big.Int, error)
}

// Ledgers is the configured ledger contract per asset class.
type Ledgers map[contracts.AssetClass]common.Address

// Deps are the collaborators of a CommitBridge.
type Deps struct {
	Authority crypto.Authority
	Verifier  EntitlementVerifier
	Resolver  ElementResolver
	Ownership OwnershipResolver
	Nonces    nonce.Source
	Ledgers   Ledgers

	// Signer defaults to a TypedDataSigner over Authority.
	Signer crypto.CommitSigner
	// Telemetry may be nil.
	Telemetry *observability.Provider
}

// CommitBridge is the commit orchestrator. It is safe for concurrent use
// provided its collaborators are.
type CommitBridge struct {
	authority crypto.Authority
	verifier  EntitlementVerifier
	resolver  ElementResolver
	ownership OwnershipResolver
	nonces    nonce.Source
	signer    crypto.CommitSigner
	ledgers   Ledgers
	telemetry *observability.Provider
	logger    *slog.Logger
}

// NewCommitBridge wires a bridge. A nil Authority is treated as uninitialized.
func NewCommitBridge(d Deps) *CommitBridge {
	authority := d.Authority
	if authority == nil {
		authority = &crypto.Uninitialized{Reason: "authority not provided"}
	}
	signer := d.Signer
	if signer == nil {
		signer = crypto.NewTypedDataSigner(authority)
	}
	ledgers := make(Ledgers, len(d.Ledgers))
	for class, addr := range d.Ledgers {
		ledgers[class] = addr
	}
	return &CommitBridge{
		authority: authority,
		verifier:  d.Verifier,
		resolver:  d.Resolver,
		ownership: d.Ownership,
		nonces:    d.Nonces,
		signer:    signer,
		ledgers:   ledgers,
		telemetry: d.Telemetry,
		logger:    slog.Default().With("component", "bridge"),
	}
}

// Authority returns the authority the bridge signs with.
func (b *CommitBridge) Authority() crypto.Authority { return b.authority }

// CommitResource runs req against the resources ledger.
func (b *CommitBridge) CommitResource(ctx context.Context, req Request) contracts.CommitResult {
	return b.Commit(ctx, contracts.AssetClassResource, req)
}

// CommitCoin runs req against the coins ledger.
func (b *CommitBridge) CommitCoin(ctx context.Context, req Request) contracts.CommitResult {
	return b.Commit(ctx, contracts.AssetClassCoin, req)
}

// CommitItem runs req against the items ledger.
func (b *CommitBridge) CommitItem(ctx context.Context, req Request) contracts.CommitResult {
	return b.Commit(ctx, contracts.AssetClassItem, req)
}

// CommitCharacter runs req against the characters ledger.
func (b *CommitBridge) CommitCharacter(ctx context.Context, req Request) contracts.CommitResult {
	return b.Commit(ctx, contracts.AssetClassCharacter, req)
}

// Commit runs req through the pipeline for class:
//  1. Authority check (no external reads when uninitialized)
//  2. Request validation
//  3. Entitlement against the catalog and inventory
//  4. Registry resolution and class ledger cross-check
//  5. Owned instance resolution (non-fungible burn and modify)
//  6. Nonce, call data, commit record
//  7. Typed-data signature
//
// The first failing step ends the pipeline; its typed error is returned in
// CommitResult.Err, annotated with the asset and player.
func (b *CommitBridge) Commit(ctx context.Context, class contracts.AssetClass, req Request) contracts.CommitResult {
	var subj Subject
	var action contracts.Action
	if req != nil {
		subj, action = req.Subj(), req.Action()
	}

	ctx, finish := b.telemetry.TrackOperation(ctx, "commit",
		attribute.String("asset.class", string(class)),
		attribute.String("commit.action", string(action)),
	)
	signed, err := b.run(ctx, class, req)
	finish(err)

	if err != nil {
		err = b.reject(ctx, class, action, subj, err)
		return contracts.CommitResult{Success: false, Err: err}
	}
	b.logger.InfoContext(ctx, "commit signed",
		"commit_id", signed.CommitID,
		"asset", subj.AssetName,
		"class", class,
		"action", action,
		"player_id", subj.PlayerID,
		"element_hash", signed.ElementHash.Hex(),
		"nonce", signed.Record.Nonce.String(),
	)
	return contracts.CommitResult{Success: true, Commit: signed}
}

func (b *CommitBridge) run(ctx context.Context, class contracts.AssetClass, req Request) (*contracts.SignedCommit, error) {
	// 1. Authority
	ready, ok := b.authority.(*crypto.Ready)
	if !ok || ready == nil {
		reason := "authority not initialized"
		if u, isU := b.authority.(*crypto.Uninitialized); isU && u.Reason != "" {
			reason = u.Reason
		}
		return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepAuthority, "%s", reason)
	}

	// 2. Validate
	if req == nil {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "request is nil")
	}
	if !class.Valid() {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "unknown asset class %q", class)
	}
	if req.Kind() != class.Kind() {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "%s request cannot target %s ledger", req.Kind(), class)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ledger := b.ledgers[class]
	if ledger == (common.Address{}) {
		return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepValidate, "no ledger configured for %s", class)
	}
	if b.verifier == nil || b.resolver == nil || b.nonces == nil {
		return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepValidate, "bridge collaborators not configured")
	}
	subj := req.Subj()

	// 3. Verify
	if err := b.step(ctx, commiterr.StepVerify, func(ctx context.Context) error {
		res, err := b.verifier.Verify(ctx, entitlement.Query{
			AssetName: subj.AssetName,
			PlayerID:  subj.PlayerID,
			Class:     class,
			Quantity:  req.quantity(),
		})
		if err != nil {
			return err
		}
		if !res.Found {
			return commiterr.New(commiterr.KindNotFound, commiterr.StepVerify, "%s %q not in catalog", class, subj.AssetName)
		}
		if !res.Entitled() {
			return commiterr.New(commiterr.KindEntitlement, commiterr.StepVerify, "player does not hold %d of %q", req.quantity(), subj.AssetName)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// 4. Resolve
	var desc contracts.GameElementDescriptor
	if err := b.step(ctx, commiterr.StepResolve, func(ctx context.Context) error {
		var err error
		desc, err = b.resolver.Resolve(ctx, subj.AssetName)
		if err != nil {
			return err
		}
		if !desc.Provisioned() {
			return commiterr.New(commiterr.KindNotFound, commiterr.StepResolve, "%q is not provisioned on-chain", subj.AssetName)
		}
		if desc.LedgerAddress != ledger {
			return commiterr.New(commiterr.KindNotFound, commiterr.StepResolve, "%q resolves to %s, not the %s ledger %s",
				subj.AssetName, desc.LedgerAddress.Hex(), class, ledger.Hex())
		}
		// Fungible ledgers are keyed by a registered token id; collections are not.
		if fungible := class.Kind() == contracts.KindFungible; desc.RequiresTokenID != fungible {
			return commiterr.New(commiterr.KindNotFound, commiterr.StepResolve, "%q is registered with requiresTokenId=%t, which does not fit a %s ledger",
				subj.AssetName, desc.RequiresTokenID, class.Kind())
		}
		return nil
	}); err != nil {
		return nil, err
	}

	// 5. Ownership
	tokenID := desc.TokenID
	if req.Kind() == contracts.KindNonFungible && req.Action() != contracts.ActionMint {
		if err := b.step(ctx, commiterr.StepOwnership, func(ctx context.Context) error {
			if b.ownership == nil {
				return commiterr.New(commiterr.KindConfiguration, commiterr.StepOwnership, "ownership resolver not configured")
			}
			var err error
			tokenID, err = b.ownership.ResolveOwnedTokenID(ctx, desc.LedgerAddress, subj.PlayerAddress, req.requestedTokenID())
			return err
		}); err != nil {
			return nil, err
		}
	}

	// 6. Nonce, encode, build
	var n *big.Int
	if err := b.step(ctx, commiterr.StepNonce, func(ctx context.Context) error {
		var err error
		n, err = b.nonces.Next(ctx, ready.Address(), desc.LedgerAddress)
		if err != nil && commiterr.KindOf(err) == "" {
			return commiterr.Wrap(commiterr.KindStoreRead, commiterr.StepNonce, err, "nonce source")
		}
		return err
	}); err != nil {
		return nil, err
	}

	callData, err := calldata.Encode(req.Kind(), req.Action(), req.params(subj.PlayerAddress, tokenID))
	if err != nil {
		return nil, err
	}
	rec := commit.Build(desc.LedgerAddress, subj.PlayerAddress, ready.Address(), n, callData)
	encoded, err := commit.Encode(rec)
	if err != nil {
		return nil, err
	}

	// 7. Sign
	var sig []byte
	if err := b.step(ctx, commiterr.StepSign, func(context.Context) error {
		var err error
		sig, err = b.signer.Sign(rec, ready.Registry(), ready.ChainID())
		if err != nil && commiterr.KindOf(err) == "" {
			return commiterr.Wrap(commiterr.KindSigning, commiterr.StepSign, err, "sign commit")
		}
		return err
	}); err != nil {
		return nil, err
	}

	return &contracts.SignedCommit{
		CommitID:      uuid.NewString(),
		ElementHash:   desc.ElementHash,
		EncodedCommit: encoded,
		Signature:     sig,
		Record:        rec,
	}, nil
}

// step runs fn inside its own span.
func (b *CommitBridge) step(ctx context.Context, s commiterr.Step, fn func(context.Context) error) error {
	ctx, finish := b.telemetry.TrackOperation(ctx, "commit."+string(s))
	err := fn(ctx)
	finish(err)
	return err
}

// reject annotates err with the subject and logs it. Operational faults log
// at ERROR, client faults at WARN.
func (b *CommitBridge) reject(ctx context.Context, class contracts.AssetClass, action contracts.Action, subj Subject, err error) error {
	var ce *commiterr.Error
	if !errors.As(err, &ce) {
		ce = commiterr.Wrap(commiterr.KindSigning, "", err, "unclassified failure")
	}
	ce = ce.WithSubject(subj.AssetName, subj.PlayerID)

	level := slog.LevelWarn
	if !commiterr.ClientActionable(ce.Kind) {
		level = slog.LevelError
	}
	b.logger.Log(ctx, level, "commit rejected",
		"asset", subj.AssetName,
		"class", class,
		"action", action,
		"player_id", subj.PlayerID,
		"step", ce.Step,
		"kind", ce.Kind,
		"error", ce.Error(),
	)
	return ce
}
