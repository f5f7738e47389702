// Package calldata encodes ledger operations as opaque call payloads.
//
// Encoders are pure and are looked up in a table keyed by asset kind and
// action that is built once at init.
package calldata

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

const fungibleABIJSON = `[
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]},
	{"type":"function","name":"burn","inputs":[{"name":"account","type":"address"},{"name":"id","type":"uint256"},{"name":"amount","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"update","inputs":[{"name":"id","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]}
]`

const nonFungibleABIJSON = `[
	{"type":"function","name":"mint","inputs":[{"name":"to","type":"address"}],"outputs":[]},
	{"type":"function","name":"burn","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"update","inputs":[{"name":"tokenId","type":"uint256"},{"name":"data","type":"bytes"}],"outputs":[]}
]`

var (
	FungibleABI    = mustParse(fungibleABIJSON)
	NonFungibleABI = mustParse(nonFungibleABIJSON)
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic("calldata: invalid ABI definition: " + err.Error())
	}
	return parsed
}

// Params are the operation arguments. Which fields are read depends on the encoder.
type Params struct {
	Account common.Address // recipient of a mint, holder for a fungible burn
	TokenID *big.Int       // ledger id (fungible) or instance id (non-fungible)
	Amount  *big.Int
	Data    []byte
}

// EncodeFunc is a pure operation encoder.
type EncodeFunc func(Params) ([]byte, error)

type key struct {
	kind   contracts.AssetKind
	action contracts.Action
}

var encoders = map[key]EncodeFunc{
	{contracts.KindFungible, contracts.ActionMint}:      fungibleMint,
	{contracts.KindFungible, contracts.ActionBurn}:      fungibleBurn,
	{contracts.KindFungible, contracts.ActionModify}:    fungibleModify,
	{contracts.KindNonFungible, contracts.ActionMint}:   nonFungibleMint,
	{contracts.KindNonFungible, contracts.ActionBurn}:   nonFungibleBurn,
	{contracts.KindNonFungible, contracts.ActionModify}: nonFungibleModify,
}

// Encode builds the call payload for action on a ledger of the given kind.
// Malformed parameters yield an EncodingError.
func Encode(kind contracts.AssetKind, action contracts.Action, p Params) ([]byte, error) {
	enc, ok := encoders[key{kind, action}]
	if !ok {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepEncode, "no encoder for %s %s", kind, action)
	}
	data, err := enc(p)
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindEncoding, commiterr.StepEncode, err, "%s %s", kind, action)
	}
	return data, nil
}

func fungibleMint(p Params) ([]byte, error) {
	if err := requireAccount(p); err != nil {
		return nil, err
	}
	if err := requireTokenID(p); err != nil {
		return nil, err
	}
	if err := requireAmount(p); err != nil {
		return nil, err
	}
	return FungibleABI.Pack("mint", p.Account, p.TokenID, p.Amount, []byte{})
}

func fungibleBurn(p Params) ([]byte, error) {
	if err := requireAccount(p); err != nil {
		return nil, err
	}
	if err := requireTokenID(p); err != nil {
		return nil, err
	}
	if err := requireAmount(p); err != nil {
		return nil, err
	}
	return FungibleABI.Pack("burn", p.Account, p.TokenID, p.Amount)
}

func fungibleModify(p Params) ([]byte, error) {
	if err := requireTokenID(p); err != nil {
		return nil, err
	}
	return FungibleABI.Pack("update", p.TokenID, nonNil(p.Data))
}

func nonFungibleMint(p Params) ([]byte, error) {
	if err := requireAccount(p); err != nil {
		return nil, err
	}
	return NonFungibleABI.Pack("mint", p.Account)
}

func nonFungibleBurn(p Params) ([]byte, error) {
	if err := requireTokenID(p); err != nil {
		return nil, err
	}
	return NonFungibleABI.Pack("burn", p.TokenID)
}

func nonFungibleModify(p Params) ([]byte, error) {
	if err := requireTokenID(p); err != nil {
		return nil, err
	}
	return NonFungibleABI.Pack("update", p.TokenID, nonNil(p.Data))
}

func requireAccount(p Params) error {
	if p.Account == (common.Address{}) {
		return fmt.Errorf("account is the zero address")
	}
	return nil
}

func requireTokenID(p Params) error {
	if p.TokenID == nil || p.TokenID.Sign() < 0 {
		return fmt.Errorf("token id missing or negative")
	}
	return nil
}

func requireAmount(p Params) error {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
