package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/commitgate/pkg/chain"
	"github.com/Mindburn-Labs/commitgate/pkg/chain/chaintest"
	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
)

var (
	registryAddr    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	resourcesLedger = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

func TestElementHash(t *testing.T) {
	assert.Equal(t, crypto.Keccak256Hash([]byte("Iron Ore")), ElementHash("Iron Ore"))
	assert.NotEqual(t, ElementHash("Iron Ore"), ElementHash("iron ore"))
	// keccak256("") is a well-known constant.
	assert.Equal(t, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470", ElementHash("").Hex())
}

func TestResolver_Resolve(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 1)
	fake.SetElement(ElementHash("Iron Ore"), resourcesLedger, 3, true)
	r := NewResolver(chain.NewRegistry(fake, registryAddr))

	d, err := r.Resolve(context.Background(), "Iron Ore")
	require.NoError(t, err)
	assert.True(t, d.Provisioned())
	assert.Equal(t, resourcesLedger, d.LedgerAddress)
	assert.Equal(t, int64(3), d.TokenID.Int64())
	assert.True(t, d.RequiresTokenID)
	assert.Equal(t, ElementHash("Iron Ore"), d.ElementHash)
}

func TestResolver_Unprovisioned(t *testing.T) {
	fake := chaintest.NewFake(registryAddr, 1)
	r := NewResolver(chain.NewRegistry(fake, registryAddr))

	d, err := r.Resolve(context.Background(), "Ghost Ore")
	require.NoError(t, err)
	assert.False(t, d.Provisioned())
}

func TestResolver_Failures(t *testing.T) {
	_, err := NewResolver(nil).Resolve(context.Background(), "Iron Ore")
	assert.ErrorIs(t, err, commiterr.ErrChainRead)

	fake := chaintest.NewFake(registryAddr, 1)
	fake.Err = errors.New("rpc timeout")
	_, err = NewResolver(chain.NewRegistry(fake, registryAddr)).Resolve(context.Background(), "Iron Ore")
	assert.ErrorIs(t, err, commiterr.ErrChainRead)
	assert.ErrorIs(t, err, fake.Err)
}
