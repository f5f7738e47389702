//go:build property
// +build property

package commit_test

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/Mindburn-Labs/commitgate/pkg/commit"
)

func toAddress(b []uint8) common.Address {
	return common.BytesToAddress(b)
}

// TestCommitRoundTrip verifies Decode(Encode(rec)) == rec for any record.
func TestCommitRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode inverts encode", prop.ForAll(
		func(tgt, acc, sgn []uint8, nonce uint64, callData []uint8) bool {
			rec := commit.Build(toAddress(tgt), toAddress(acc), toAddress(sgn), new(big.Int).SetUint64(nonce), callData)
			encoded, err := commit.Encode(rec)
			if err != nil {
				return false
			}
			got, err := commit.Decode(encoded)
			if err != nil {
				return false
			}
			return got.Target == rec.Target &&
				got.Account == rec.Account &&
				got.Signer == rec.Signer &&
				got.Nonce.Cmp(rec.Nonce) == 0 &&
				bytes.Equal(got.CallData, rec.CallData)
		},
		gen.SliceOfN(20, gen.UInt8()),
		gen.SliceOfN(20, gen.UInt8()),
		gen.SliceOfN(20, gen.UInt8()),
		gen.UInt64(),
		gen.SliceOf(gen.UInt8()),
	))

	properties.TestingRun(t)
}
