package commit

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
)

var (
	target  = common.HexToAddress("0x00000000000000000000000000000000000000b0")
	account = common.HexToAddress("0x00000000000000000000000000000000000000c1")
	signer  = common.HexToAddress("0x00000000000000000000000000000000000000d1")
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	callData := []byte{0x40, 0xc1, 0x0f, 0x19, 0x01, 0x02}
	nonce, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007913129639935", 10)

	rec := Build(target, account, signer, nonce, callData)
	encoded, err := Encode(rec)
	require.NoError(t, err)

	got, err := Decode(encoded)
	require.NoError(t, err)
	assert.Equal(t, target, got.Target)
	assert.Equal(t, account, got.Account)
	assert.Equal(t, signer, got.Signer)
	assert.Equal(t, 0, nonce.Cmp(got.Nonce))
	assert.Equal(t, callData, []byte(got.CallData))
}

func TestEncode_Deterministic(t *testing.T) {
	rec := Build(target, account, signer, big.NewInt(1), []byte{1})
	a, err := Encode(rec)
	require.NoError(t, err)
	b, err := Encode(rec)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	// 5 head words + length word + one padded data word
	assert.Len(t, a, 7*32)
}

func TestBuild_CopiesInputs(t *testing.T) {
	nonce := big.NewInt(10)
	data := []byte{1, 2, 3}
	rec := Build(target, account, signer, nonce, data)

	nonce.SetInt64(11)
	data[0] = 9
	assert.Equal(t, int64(10), rec.Nonce.Int64())
	assert.Equal(t, byte(1), rec.CallData[0])
}

func TestEncode_RejectsMissingNonce(t *testing.T) {
	_, err := Encode(Build(target, account, signer, nil, nil))
	assert.ErrorIs(t, err, commiterr.ErrEncoding)

	_, err = Encode(Build(target, account, signer, big.NewInt(-1), nil))
	assert.ErrorIs(t, err, commiterr.ErrEncoding)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.Error(t, err)
}
