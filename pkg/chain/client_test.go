package chain_test

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/commitgate/pkg/chain"
	"github.com/Mindburn-Labs/commitgate/pkg/chain/chaintest"
)

var (
	registryAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	itemsLedger  = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	player       = common.HexToAddress("0x00000000000000000000000000000000000000c1")
)

func TestRegistry_Resolve(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 31337)
	h := crypto.Keccak256Hash([]byte("Iron Ore"))
	fake.SetElement(h, itemsLedger, 7, true)

	reg := chain.NewRegistry(fake, registryAddr)
	ledger, tokenID, requires, err := reg.Resolve(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, itemsLedger, ledger)
	assert.Equal(t, int64(7), tokenID.Int64())
	assert.True(t, requires)

	ledger, tokenID, _, err = reg.Resolve(context.Background(), crypto.Keccak256Hash([]byte("unknown")))
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, ledger)
	assert.Zero(t, tokenID.Sign())
}

func TestRegistry_CallFailure(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 1)
	fake.Err = errors.New("dial tcp: connection refused")

	_, _, _, err := chain.NewRegistry(fake, registryAddr).Resolve(context.Background(), common.Hash{})
	assert.ErrorIs(t, err, fake.Err)
}

func TestLedger_Balances(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 1)
	fake.SetOwned(itemsLedger, player, 42, 43)
	fake.SetFungibleBalance(itemsLedger, player, 3, 100)
	l := chain.NewLedger(fake)
	ctx := context.Background()

	bal, err := l.BalanceOf(ctx, itemsLedger, player, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), bal.Int64())

	bal, err = l.BalanceOf(ctx, itemsLedger, player, big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal.Int64())

	id, err := l.TokenOfOwnerByIndex(ctx, itemsLedger, player, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id.Int64())

	_, err = l.TokenOfOwnerByIndex(ctx, itemsLedger, player, big.NewInt(5))
	assert.Error(t, err)
}

func TestLedger_OwnerOf(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 1)
	other := common.HexToAddress("0x00000000000000000000000000000000000000d2")
	fake.SetOwned(itemsLedger, player, 42)
	fake.SetOwned(itemsLedger, other, 9)
	l := chain.NewLedger(fake)
	ctx := context.Background()

	owner, err := l.OwnerOf(ctx, itemsLedger, big.NewInt(42))
	require.NoError(t, err)
	assert.Equal(t, player, owner)

	owner, err = l.OwnerOf(ctx, itemsLedger, big.NewInt(9))
	require.NoError(t, err)
	assert.Equal(t, other, owner)

	_, err = l.OwnerOf(ctx, itemsLedger, big.NewInt(1000))
	assert.Error(t, err, "nonexistent token reverts")
}
