// Package crypto produces domain-separated (EIP-712) signatures over commit
// records with the custodial authority key.
package crypto

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/Mindburn-Labs/commitgate/pkg/commiterr"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// Fixed signing scheme. Changing either invalidates every verifier deployment.
const (
	DomainName    = "GameElementRegistry"
	DomainVersion = "1"
	PrimaryType   = "Commit"
)

// Domain binds a signature to one chain and one verifying contract.
type Domain struct {
	ChainID           *big.Int
	VerifyingContract common.Address
}

var commitTypes = apitypes.Types{
	"EIP712Domain": {
		{Name: "name", Type: "string"},
		{Name: "version", Type: "string"},
		{Name: "chainId", Type: "uint256"},
		{Name: "verifyingContract", Type: "address"},
	},
	PrimaryType: {
		{Name: "target", Type: "address"},
		{Name: "account", Type: "address"},
		{Name: "signer", Type: "address"},
		{Name: "nonce", Type: "uint256"},
		{Name: "callData", Type: "bytes"},
	},
}

// TypedData returns the EIP-712 document for rec under domain.
func TypedData(rec contracts.CommitRecord, domain Domain) apitypes.TypedData {
	nonce := "0"
	if rec.Nonce != nil {
		nonce = rec.Nonce.String()
	}
	callData := []byte(rec.CallData)
	if callData == nil {
		callData = []byte{}
	}
	return apitypes.TypedData{
		Types:       commitTypes,
		PrimaryType: PrimaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              DomainName,
			Version:           DomainVersion,
			ChainId:           (*math.HexOrDecimal256)(new(big.Int).Set(domain.ChainID)),
			VerifyingContract: domain.VerifyingContract.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			"target":   rec.Target.Hex(),
			"account":  rec.Account.Hex(),
			"signer":   rec.Signer.Hex(),
			"nonce":    nonce,
			"callData": callData,
		},
	}
}

// Digest is the 32-byte EIP-712 hash that gets signed.
func Digest(rec contracts.CommitRecord, domain Domain) ([]byte, error) {
	if domain.ChainID == nil {
		return nil, errors.New("domain chain id missing")
	}
	hash, _, err := apitypes.TypedDataAndHash(TypedData(rec, domain))
	if err != nil {
		return nil, fmt.Errorf("typed data hash: %w", err)
	}
	return hash, nil
}

// CommitSigner signs commit records.
type CommitSigner interface {
	Sign(rec contracts.CommitRecord, registry common.Address, chainID *big.Int) ([]byte, error)
}

// TypedDataSigner signs commits with the process authority.
type TypedDataSigner struct {
	authority Authority
}

func NewTypedDataSigner(a Authority) *TypedDataSigner {
	return &TypedDataSigner{authority: a}
}

// Sign returns a 65-byte [R || S || V] signature with V in {27, 28}.
//
// It fails with a ConfigurationError, before any other work, when the
// authority is not ready. The scheme is deterministic: the same record and
// domain always give the same signature.
func (s *TypedDataSigner) Sign(rec contracts.CommitRecord, registry common.Address, chainID *big.Int) ([]byte, error) {
	ready, ok := s.authority.(*Ready)
	if !ok || ready == nil {
		reason := "authority not initialized"
		if u, isU := s.authority.(*Uninitialized); isU && u != nil {
			reason = u.Reason
		}
		return nil, commiterr.New(commiterr.KindConfiguration, commiterr.StepSign, "%s", reason)
	}
	if rec.Signer != ready.address {
		return nil, commiterr.New(commiterr.KindSigning, commiterr.StepSign, "record signer %s is not the authority", rec.Signer.Hex())
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, commiterr.New(commiterr.KindSigning, commiterr.StepSign, "chain id missing")
	}

	digest, err := Digest(rec, Domain{ChainID: chainID, VerifyingContract: registry})
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindSigning, commiterr.StepSign, err, "digest")
	}
	sig, err := ethcrypto.Sign(digest, ready.key)
	if err != nil {
		return nil, commiterr.Wrap(commiterr.KindSigning, commiterr.StepSign, err, "sign digest")
	}
	sig[ethcrypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverSigner returns the address that produced sig over rec under domain.
func RecoverSigner(rec contracts.CommitRecord, domain Domain, sig []byte) (common.Address, error) {
	if len(sig) != ethcrypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", ethcrypto.SignatureLength, len(sig))
	}
	digest, err := Digest(rec, domain)
	if err != nil {
		return common.Address{}, err
	}
	normalized := append([]byte{}, sig...)
	if normalized[ethcrypto.RecoveryIDOffset] >= 27 {
		normalized[ethcrypto.RecoveryIDOffset] -= 27
	}
	pub, err := ethcrypto.SigToPub(digest, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("recover public key: %w", err)
	}
	return ethcrypto.PubkeyToAddress(*pub), nil
}
