// Package commit assembles the canonical commit record and its ABI tuple
// encoding (address,address,address,uint256,bytes).
package commit

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

var tupleArgs = mustTuple()

func mustTuple() abi.Arguments {
	addressT, err := abi.NewType("address", "", nil)
	if err != nil {
		panic(err)
	}
	uintT, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(err)
	}
	bytesT, err := abi.NewType("bytes", "", nil)
	if err != nil {
		panic(err)
	}
	return abi.Arguments{
		{Name: "target", Type: addressT},
		{Name: "account", Type: addressT},
		{Name: "signer", Type: addressT},
		{Name: "nonce", Type: uintT},
		{Name: "callData", Type: bytesT},
	}
}

// Build assembles a record. It copies its inputs and applies no business logic.
func Build(target, account, signer common.Address, nonce *big.Int, callData []byte) contracts.CommitRecord {
	rec := contracts.CommitRecord{
		Target:   target,
		Account:  account,
		Signer:   signer,
		CallData: append([]byte{}, callData...),
	}
	if nonce != nil {
		rec.Nonce = new(big.Int).Set(nonce)
	}
	return rec
}

// Encode returns the deterministic ABI tuple encoding of rec.
func Encode(rec contracts.CommitRecord) ([]byte, error) {
	if rec.Nonce == nil || rec.Nonce.Sign() < 0 {
		return nil, commiterr.New(commiterr.KindEncoding, commiterr.StepBuild, "commit nonce missing or negative")
	}
	out, err := tupleArgs.Pack(rec.Target, rec.Account, rec.Signer, rec.Nonce, []byte(rec.CallData))
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindEncoding, commiterr.StepBuild, err, "pack commit tuple")
	}
	return out, nil
}

// Decode is the inverse of Encode.
func Decode(data []byte) (contracts.CommitRecord, error) {
	values, err := tupleArgs.Unpack(data)
	if err != nil {
		return contracts.CommitRecord{}, fmt.Errorf("commit: unpack tuple: %w", err)
	}
	if len(values) != 5 {
		return contracts.CommitRecord{}, fmt.Errorf("commit: expected 5 fields, got %d", len(values))
	}
	target, ok1 := values[0].(common.Address)
	account, ok2 := values[1].(common.Address)
	signer, ok3 := values[2].(common.Address)
	nonce, ok4 := values[3].(*big.Int)
	callData, ok5 := values[4].([]byte)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return contracts.CommitRecord{}, fmt.Errorf("commit: unexpected field types")
	}
	return contracts.CommitRecord{
		Target:   target,
		Account:  account,
		Signer:   signer,
		Nonce:    nonce,
		CallData: callData,
	}, nil
}
