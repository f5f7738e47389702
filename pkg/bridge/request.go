package bridge

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/calldata"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// Subject identifies what is being changed and on whose behalf.
type Subject struct {
	AssetName     string
	PlayerID      string
	PlayerAddress common.Address
}

func (s Subject) validate() error {
	switch {
	case strings.TrimSpace(s.AssetName) == "":
		return fmt.Errorf("asset name is empty")
	case strings.TrimSpace(s.PlayerID) == "":
		return fmt.Errorf("player id is empty")
	case s.PlayerAddress == (common.Address{}):
		return fmt.Errorf("player address is the zero address")
	}
	return nil
}

// Request is one typed (kind x action) change. The set of implementations is closed.
type Request interface {
	Subj() Subject
	Kind() contracts.AssetKind
	Action() contracts.Action
	// Validate checks the request before any collaborator is contacted.
	Validate() error

	quantity() int64
	requestedTokenID() *big.Int
	params(account common.Address, tokenID *big.Int) calldata.Params
}

// FungibleMint credits Amount units of a fungible asset to the player.
type FungibleMint struct {
	Subject
	Amount *big.Int
}

// FungibleBurn debits Amount units of a fungible asset from the player.
type FungibleBurn struct {
	Subject
	Amount *big.Int
}

// FungibleModify updates the ledger metadata of a fungible asset.
type FungibleModify struct {
	Subject
	Data []byte
}

// NonFungibleMint mints a new instance to the player; the ledger assigns the id.
type NonFungibleMint struct {
	Subject
}

// NonFungibleBurn burns one instance owned by the player. A nil TokenID
// burns whichever instance the collection enumerates first.
type NonFungibleBurn struct {
	Subject
	TokenID *big.Int
}

// NonFungibleModify updates one instance owned by the player. TokenID
// follows the same rule as NonFungibleBurn.
type NonFungibleModify struct {
	Subject
	TokenID *big.Int
	Data    []byte
}

func (r FungibleMint) Subj() Subject      { return r.Subject }
func (r FungibleBurn) Subj() Subject      { return r.Subject }
func (r FungibleModify) Subj() Subject    { return r.Subject }
func (r NonFungibleMint) Subj() Subject   { return r.Subject }
func (r NonFungibleBurn) Subj() Subject   { return r.Subject }
func (r NonFungibleModify) Subj() Subject { return r.Subject }

func (FungibleMint) Kind() contracts.AssetKind      { return contracts.KindFungible }
func (FungibleBurn) Kind() contracts.AssetKind      { return contracts.KindFungible }
func (FungibleModify) Kind() contracts.AssetKind    { return contracts.KindFungible }
func (NonFungibleMint) Kind() contracts.AssetKind   { return contracts.KindNonFungible }
func (NonFungibleBurn) Kind() contracts.AssetKind   { return contracts.KindNonFungible }
func (NonFungibleModify) Kind() contracts.AssetKind { return contracts.KindNonFungible }

func (FungibleMint) Action() contracts.Action      { return contracts.ActionMint }
func (FungibleBurn) Action() contracts.Action      { return contracts.ActionBurn }
func (FungibleModify) Action() contracts.Action    { return contracts.ActionModify }
func (NonFungibleMint) Action() contracts.Action   { return contracts.ActionMint }
func (NonFungibleBurn) Action() contracts.Action   { return contracts.ActionBurn }
func (NonFungibleModify) Action() contracts.Action { return contracts.ActionModify }

func (r FungibleMint) Validate() error { return validateAmount(r.Subject, r.Amount) }
func (r FungibleBurn) Validate() error { return validateAmount(r.Subject, r.Amount) }

func (r FungibleModify) Validate() error {
	if err := r.Subject.validate(); err != nil {
		return invalid(err)
	}
	if len(r.Data) == 0 {
		return invalid(fmt.Errorf("modify data is empty"))
	}
	return nil
}

func (r NonFungibleMint) Validate() error { return invalid(r.Subject.validate()) }

func (r NonFungibleBurn) Validate() error {
	if err := r.Subject.validate(); err != nil {
		return invalid(err)
	}
	return invalid(validateTokenID(r.TokenID))
}

func (r NonFungibleModify) Validate() error {
	if err := r.Subject.validate(); err != nil {
		return invalid(err)
	}
	if len(r.Data) == 0 {
		return invalid(fmt.Errorf("modify data is empty"))
	}
	return invalid(validateTokenID(r.TokenID))
}

func (r FungibleMint) quantity() int64    { return r.Amount.Int64() }
func (r FungibleBurn) quantity() int64    { return r.Amount.Int64() }
func (FungibleModify) quantity() int64    { return 1 }
func (NonFungibleMint) quantity() int64   { return 1 }
func (NonFungibleBurn) quantity() int64   { return 1 }
func (NonFungibleModify) quantity() int64 { return 1 }

func (FungibleMint) requestedTokenID() *big.Int        { return nil }
func (FungibleBurn) requestedTokenID() *big.Int        { return nil }
func (FungibleModify) requestedTokenID() *big.Int      { return nil }
func (NonFungibleMint) requestedTokenID() *big.Int     { return nil }
func (r NonFungibleBurn) requestedTokenID() *big.Int   { return r.TokenID }
func (r NonFungibleModify) requestedTokenID() *big.Int { return r.TokenID }

func (r FungibleMint) params(account common.Address, tokenID *big.Int) calldata.Params {
	return calldata.Params{Account: account, TokenID: tokenID, Amount: r.Amount}
}

func (r FungibleBurn) params(account common.Address, tokenID *big.Int) calldata.Params {
	return calldata.Params{Account: account, TokenID: tokenID, Amount: r.Amount}
}

func (r FungibleModify) params(account common.Address, tokenID *big.Int) calldata.Params {
	return calldata.Params{Account: account, TokenID: tokenID, Data: r.Data}
}

func (NonFungibleMint) params(account common.Address, _ *big.Int) calldata.Params {
	return calldata.Params{Account: account}
}

func (NonFungibleBurn) params(account common.Address, tokenID *big.Int) calldata.Params {
	return calldata.Params{Account: account, TokenID: tokenID}
}

func (r NonFungibleModify) params(account common.Address, tokenID *big.Int) calldata.Params {
	return calldata.Params{Account: account, TokenID: tokenID, Data: r.Data}
}

func validateAmount(s Subject, amount *big.Int) error {
	if err := s.validate(); err != nil {
		return invalid(err)
	}
	if amount == nil || amount.Sign() <= 0 {
		return invalid(fmt.Errorf("amount must be positive"))
	}
	// Inventory quantities are int64; larger amounts cannot be entitled.
	if !amount.IsInt64() {
		return invalid(fmt.Errorf("amount %s out of range", amount))
	}
	return nil
}

func validateTokenID(id *big.Int) error {
	if id != nil && id.Sign() < 0 {
		return fmt.Errorf("token id is negative")
	}
	return nil
}

func invalid(err error) error {
	if err == nil {
		return nil
	}
	return commiterr.Wrap(commiterr.KindEncoding, commiterr.StepValidate, err, "invalid request")
}

// Payload is the untyped inbound shape accepted by the HTTP and CLI surfaces.
type Payload struct {
	Amount  *big.Int
	TokenID *big.Int
	Data    []byte
}

// NewRequest maps an inbound (class, action, payload) triple onto its typed
// request. Fields that do not apply to the pair are rejected rather than ignored.
func NewRequest(class contracts.AssetClass, action contracts.Action, s Subject, p Payload) (Request, error) {
	if !class.Valid() {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "unknown asset class %q", class)
	}
	reject := func(field string) error {
		return commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "%s does not apply to %s %s", field, class, action)
	}

	switch class.Kind() {
	case contracts.KindFungible:
		if p.TokenID != nil {
			return nil, reject("token_id")
		}
		switch action {
		case contracts.ActionMint:
			if p.Data != nil {
				return nil, reject("data")
			}
			return FungibleMint{Subject: s, Amount: p.Amount}, nil
		case contracts.ActionBurn:
			if p.Data != nil {
				return nil, reject("data")
			}
			return FungibleBurn{Subject: s, Amount: p.Amount}, nil
		case contracts.ActionModify:
			if p.Amount != nil {
				return nil, reject("amount")
			}
			return FungibleModify{Subject: s, Data: p.Data}, nil
		}
	case contracts.KindNonFungible:
		if p.Amount != nil {
			return nil, reject("amount")
		}
		switch action {
		case contracts.ActionMint:
			if p.TokenID != nil {
				return nil, reject("token_id")
			}
			if p.Data != nil {
				return nil, reject("data")
			}
			return NonFungibleMint{Subject: s}, nil
		case contracts.ActionBurn:
			if p.Data != nil {
				return nil, reject("data")
			}
			return NonFungibleBurn{Subject: s, TokenID: p.TokenID}, nil
		case contracts.ActionModify:
			return NonFungibleModify{Subject: s, TokenID: p.TokenID, Data: p.Data}, nil
		}
	}
	return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepValidate, "unknown action %q", action)
}
