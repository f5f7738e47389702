// Package chain performs the read-only ledger calls the commit pipeline needs:
// registry lookups and ownership enumeration. It never sends transactions.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
)

// Caller executes read-only contract calls. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Connection is a Caller that can also report the chain it is connected to.
type Connection interface {
	Caller
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// Dial opens a JSON-RPC connection to the ledger.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcURL, err)
	}
	return client, nil
}

func call(ctx context.Context, c Caller, contract abi.ABI, to common.Address, method string, args ...any) ([]any, error) {
	input, err := contract.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s on %s: %w", method, to.Hex(), err)
	}
	values, err := contract.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	return values, nil
}

// Registry reads the game element registry contract.
type Registry struct {
	caller  Caller
	address common.Address
}

func NewRegistry(c Caller, address common.Address) *Registry {
	return &Registry{caller: c, address: address}
}

// Address returns the registry contract address.
func (r *Registry) Address() common.Address { return r.address }

// Resolve returns (ledgerAddress, tokenId, requiresTokenId) for an element hash.
func (r *Registry) Resolve(ctx context.Context, elementHash common.Hash) (common.Address, *big.Int, bool, error) {
	values, err := call(ctx, r.caller, RegistryABI, r.address, "resolve", [32]byte(elementHash))
	if err != nil {
		return common.Address{}, nil, false, err
	}
	if len(values) != 3 {
		return common.Address{}, nil, false, fmt.Errorf("resolve: expected 3 outputs, got %d", len(values))
	}
	ledger, ok1 := values[0].(common.Address)
	tokenID, ok2 := values[1].(*big.Int)
	requires, ok3 := values[2].(bool)
	if !ok1 || !ok2 || !ok3 {
		return common.Address{}, nil, false, fmt.Errorf("resolve: unexpected output types %T, %T, %T", values[0], values[1], values[2])
	}
	return ledger, tokenID, requires, nil
}

// Ledger reads balances and enumerates ownership on asset ledgers.
type Ledger struct {
	caller Caller
}

func NewLedger(c Caller) *Ledger {
	return &Ledger{caller: c}
}

// BalanceOf reads owner's balance. A nil tokenID reads a non-fungible
// collection balance; otherwise the multi-token balance of that id.
func (l *Ledger) BalanceOf(ctx context.Context, ledger, owner common.Address, tokenID *big.Int) (*big.Int, error) {
	var (
		values []any
		err    error
	)
	if tokenID == nil {
		values, err = call(ctx, l.caller, CollectionABI, ledger, "balanceOf", owner)
	} else {
		values, err = call(ctx, l.caller, MultiTokenABI, ledger, "balanceOf", owner, tokenID)
	}
	if err != nil {
		return nil, err
	}
	return singleUint(values)
}

// TokenOfOwnerByIndex returns the index-th token owner holds in a collection.
func (l *Ledger) TokenOfOwnerByIndex(ctx context.Context, ledger, owner common.Address, index *big.Int) (*big.Int, error) {
	values, err := call(ctx, l.caller, CollectionABI, ledger, "tokenOfOwnerByIndex", owner, index)
	if err != nil {
		return nil, err
	}
	return singleUint(values)
}

// OwnerOf returns the current holder of tokenID in a collection. The
// collection reverts for tokens that do not exist.
func (l *Ledger) OwnerOf(ctx context.Context, ledger common.Address, tokenID *big.Int) (common.Address, error) {
	values, err := call(ctx, l.caller, CollectionABI, ledger, "ownerOf", tokenID)
	if err != nil {
		return common.Address{}, err
	}
	if len(values) != 1 {
		return common.Address{}, fmt.Errorf("expected 1 output, got %d", len(values))
	}
	owner, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected output type %T", values[0])
	}
	return owner, nil
}

func singleUint(values []any) (*big.Int, error) {
	if len(values) != 1 {
		return nil, fmt.Errorf("expected 1 output, got %d", len(values))
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", values[0])
	}
	return v, nil
}
