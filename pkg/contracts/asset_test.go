package contracts

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetClassKind(t *testing.T) {
	assert.Equal(t, KindFungible, AssetClassResource.Kind())
	assert.Equal(t, KindFungible, AssetClassCoin.Kind())
	assert.Equal(t, KindNonFungible, AssetClassItem.Kind())
	assert.Equal(t, KindNonFungible, AssetClassCharacter.Kind())
}

func TestParseAssetClass(t *testing.T) {
	for _, c := range AllAssetClasses {
		got, err := ParseAssetClass(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseAssetClass("weapon")
	assert.Error(t, err)
	_, err = ParseAssetClass("")
	assert.Error(t, err)
}

func TestParseAction(t *testing.T) {
	for _, s := range []string{"mint", "burn", "modify"} {
		a, err := ParseAction(s)
		require.NoError(t, err)
		assert.True(t, a.Valid())
	}
	_, err := ParseAction("transfer")
	assert.Error(t, err)
}

func TestEntitledAndProvisioned(t *testing.T) {
	assert.False(t, EntitlementCheckResult{Found: true}.Entitled())
	assert.False(t, EntitlementCheckResult{UserHasIt: true}.Entitled())
	assert.False(t, EntitlementCheckResult{Found: true, UserHasIt: true}.Entitled(), "no resource")
	assert.True(t, EntitlementCheckResult{Found: true, UserHasIt: true, Resource: &ResourceSummary{ID: "res-iron"}}.Entitled())

	assert.False(t, GameElementDescriptor{}.Provisioned())
	assert.True(t, GameElementDescriptor{LedgerAddress: common.HexToAddress("0x1000000000000000000000000000000000000001")}.Provisioned())
}
