package contracts

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// CommitRecord is the canonical structure that gets signed.
// Signer is always the authority's own address.
type CommitRecord struct {
	Target   common.Address `json:"target"`
	Account  common.Address `json:"account"`
	Signer   common.Address `json:"signer"`
	Nonce    *big.Int       `json:"nonce"`
	CallData hexutil.Bytes  `json:"call_data"`
}

// SignedCommit is the artifact handed back to the caller for on-chain submission.
type SignedCommit struct {
	CommitID      string        `json:"commit_id"` // correlation only, not signed
	ElementHash   common.Hash   `json:"element_hash"`
	EncodedCommit hexutil.Bytes `json:"encoded_commit"`
	Signature     hexutil.Bytes `json:"signature"`
	Record        CommitRecord  `json:"record"`
}

// CommitResult is the outcome of one orchestrated commit.
// Err carries the typed failure when Success is false.
type CommitResult struct {
	Success bool          `json:"success"`
	Commit  *SignedCommit `json:"commit"`
	Err     error         `json:"-"`
}
