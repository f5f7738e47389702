package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/Mindburn-Labs/commitgate/pkg/chain"
)

// Authority is the custodial signing authority of the process. It is built
// once at startup and is either *Uninitialized or *Ready; callers switch on
// the variant instead of assuming configuration is present.
type Authority interface {
	State() string
	isAuthority()
}

// Uninitialized is an authority that cannot sign. Every commit fails fast.
type Uninitialized struct {
	Reason string
}

func (*Uninitialized) State() string { return "uninitialized" }
func (*Uninitialized) isAuthority()  {}

// Ready holds the authority key and the ledger connection it signs for.
type Ready struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	conn     chain.Connection
	registry common.Address
	chainID  *big.Int
}

func (*Ready) State() string { return "ready" }
func (*Ready) isAuthority()  {}

// Address is the authority's own address; it is the signer of every commit.
func (r *Ready) Address() common.Address { return r.address }

// Connection is the ledger connection reads go through.
func (r *Ready) Connection() chain.Connection { return r.conn }

// Registry is the verifying contract bound into the signing domain.
func (r *Ready) Registry() common.Address { return r.registry }

// ChainID is the chain bound into the signing domain.
func (r *Ready) ChainID() *big.Int { return new(big.Int).Set(r.chainID) }

// String never includes key material.
func (r *Ready) String() string { return "authority(" + r.address.Hex() + ")" }

// LogValue keeps the key out of structured logs.
func (r *Ready) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("state", r.State()),
		slog.String("address", r.address.Hex()),
		slog.String("registry", r.registry.Hex()),
		slog.String("chain_id", r.chainID.String()),
	)
}

// AuthorityConfig is what NewAuthority needs to build a Ready authority.
type AuthorityConfig struct {
	PrivateKeyHex string
	Connection    chain.Connection
	Registry      common.Address
	ChainID       *big.Int
}

// NewAuthority builds the process authority. Missing or invalid
// configuration yields *Uninitialized with the reason, never an error:
// the process still starts and every commit fails with a ConfigurationError.
func NewAuthority(cfg AuthorityConfig) Authority {
	keyHex := strings.TrimPrefix(strings.TrimSpace(cfg.PrivateKeyHex), "0x")
	switch {
	case keyHex == "":
		return &Uninitialized{Reason: "authority key not configured"}
	case cfg.Connection == nil:
		return &Uninitialized{Reason: "ledger connection not configured"}
	case cfg.Registry == (common.Address{}):
		return &Uninitialized{Reason: "registry address not configured"}
	case cfg.ChainID == nil || cfg.ChainID.Sign() <= 0:
		return &Uninitialized{Reason: "chain id unknown"}
	}

	key, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		// The parse error is dropped; it can echo key material.
		return &Uninitialized{Reason: "authority key is not a valid secp256k1 key"}
	}
	return NewReady(key, cfg.Connection, cfg.Registry, cfg.ChainID)
}

// NewReady wraps an already-parsed key.
func NewReady(key *ecdsa.PrivateKey, conn chain.Connection, registry common.Address, chainID *big.Int) *Ready {
	return &Ready{
		key:      key,
		address:  ethcrypto.PubkeyToAddress(key.PublicKey),
		conn:     conn,
		registry: registry,
		chainID:  new(big.Int).Set(chainID),
	}
}

// GenerateKeyHex creates a new authority key, hex encoded without prefix.
func GenerateKeyHex() (string, common.Address, error) {
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		return "", common.Address{}, fmt.Errorf("key generation failed: %w", err)
	}
	return common.Bytes2Hex(ethcrypto.FromECDSA(key)), ethcrypto.PubkeyToAddress(key.PublicKey), nil
}
