// Package chaintest provides an in-process ledger double that answers the
// registry and ledger calls made by package chain.
package chaintest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/chain"
)

type element struct {
	ledger   common.Address
	tokenID  *big.Int
	requires bool
}

type holding struct {
	ledger common.Address
	owner  common.Address
}

// Fake is a programmable chain.Connection.
type Fake struct {
	mu       sync.Mutex
	registry common.Address
	chainID  *big.Int
	elements map[common.Hash]element
	fungible map[holding]map[string]*big.Int // id -> balance
	owned    map[holding][]*big.Int
	calls    int

	// Err, when set, fails every call.
	Err error
}

func NewFake(registry common.Address, chainID int64) *Fake {
	return &Fake{
		registry: registry,
		chainID:  big.NewInt(chainID),
		elements: make(map[common.Hash]element),
		fungible: make(map[holding]map[string]*big.Int),
		owned:    make(map[holding][]*big.Int),
	}
}

// SetElement registers an element hash in the registry.
func (f *Fake) SetElement(h common.Hash, ledger common.Address, tokenID int64, requiresTokenID bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.elements[h] = element{ledger: ledger, tokenID: big.NewInt(tokenID), requires: requiresTokenID}
}

// SetFungibleBalance sets owner's multi-token balance of id on ledger.
func (f *Fake) SetFungibleBalance(ledger, owner common.Address, id, amount int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := holding{ledger, owner}
	if f.fungible[k] == nil {
		f.fungible[k] = make(map[string]*big.Int)
	}
	f.fungible[k][big.NewInt(id).String()] = big.NewInt(amount)
}

// SetOwned sets the enumerable tokens owner holds in a collection, in order.
func (f *Fake) SetOwned(ledger, owner common.Address, tokenIDs ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]*big.Int, len(tokenIDs))
	for i, id := range tokenIDs {
		ids[i] = big.NewInt(id)
	}
	f.owned[holding{ledger, owner}] = ids
}

// Calls returns how many contract calls were made.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *Fake) ChainID(context.Context) (*big.Int, error) {
	return new(big.Int).Set(f.chainID), nil
}

func (f *Fake) Close() {}

func (f *Fake) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.Err != nil {
		return nil, f.Err
	}
	if msg.To == nil || len(msg.Data) < 4 {
		return nil, errors.New("chaintest: malformed call")
	}
	sel, args := msg.Data[:4], msg.Data[4:]
	to := *msg.To

	if to == f.registry {
		m := chain.RegistryABI.Methods["resolve"]
		if !bytes.Equal(sel, m.ID) {
			return nil, errors.New("chaintest: execution reverted")
		}
		in, err := m.Inputs.Unpack(args)
		if err != nil {
			return nil, err
		}
		e, ok := f.elements[common.Hash(in[0].([32]byte))]
		if !ok {
			return m.Outputs.Pack(common.Address{}, big.NewInt(0), false)
		}
		return m.Outputs.Pack(e.ledger, e.tokenID, e.requires)
	}

	if m := chain.MultiTokenABI.Methods["balanceOf"]; bytes.Equal(sel, m.ID) {
		in, err := m.Inputs.Unpack(args)
		if err != nil {
			return nil, err
		}
		owner, id := in[0].(common.Address), in[1].(*big.Int)
		bal, ok := f.fungible[holding{to, owner}][id.String()]
		if !ok {
			bal = big.NewInt(0)
		}
		return m.Outputs.Pack(bal)
	}
	if m := chain.CollectionABI.Methods["balanceOf"]; bytes.Equal(sel, m.ID) {
		in, err := m.Inputs.Unpack(args)
		if err != nil {
			return nil, err
		}
		ids := f.owned[holding{to, in[0].(common.Address)}]
		return m.Outputs.Pack(big.NewInt(int64(len(ids))))
	}
	if m := chain.CollectionABI.Methods["ownerOf"]; bytes.Equal(sel, m.ID) {
		in, err := m.Inputs.Unpack(args)
		if err != nil {
			return nil, err
		}
		id := in[0].(*big.Int)
		for h, ids := range f.owned {
			if h.ledger != to {
				continue
			}
			for _, owned := range ids {
				if owned.Cmp(id) == 0 {
					return m.Outputs.Pack(h.owner)
				}
			}
		}
		return nil, errors.New("chaintest: execution reverted: invalid token ID")
	}
	if m := chain.CollectionABI.Methods["tokenOfOwnerByIndex"]; bytes.Equal(sel, m.ID) {
		in, err := m.Inputs.Unpack(args)
		if err != nil {
			return nil, err
		}
		ids := f.owned[holding{to, in[0].(common.Address)}]
		idx := in[1].(*big.Int)
		if !idx.IsInt64() || idx.Int64() >= int64(len(ids)) {
			return nil, fmt.Errorf("chaintest: execution reverted: owner index out of bounds")
		}
		return m.Outputs.Pack(ids[idx.Int64()])
	}
	return nil, errors.New("chaintest: execution reverted")
}
