// Package config loads commitgate configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"

	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/Mindburn-Labs/commitgate/pkg/nonce"
)

// Config holds server configuration.
type Config struct {
	RPCURL          string `env:"COMMITGATE_RPC_URL"`
	AuthorityKey    string `env:"COMMITGATE_AUTHORITY_KEY"`
	RegistryAddress string `env:"COMMITGATE_REGISTRY_ADDRESS"`
	// ChainID overrides the id reported by the RPC endpoint when non-zero.
	ChainID int64 `env:"COMMITGATE_CHAIN_ID"`

	ResourcesLedger  string `env:"COMMITGATE_RESOURCES_LEDGER"`
	ItemsLedger      string `env:"COMMITGATE_ITEMS_LEDGER"`
	CharactersLedger string `env:"COMMITGATE_CHARACTERS_LEDGER"`
	CoinsLedger      string `env:"COMMITGATE_COINS_LEDGER"`

	NonceMode      string `env:"COMMITGATE_NONCE_MODE" envDefault:"counter"`
	DatabaseURL    string `env:"COMMITGATE_DATABASE_URL"`
	DatabaseDriver string `env:"COMMITGATE_DATABASE_DRIVER" envDefault:"postgres"`
	RedisAddr      string `env:"COMMITGATE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword  string `env:"COMMITGATE_REDIS_PASSWORD"`
	CatalogFile    string `env:"COMMITGATE_CATALOG_FILE"`

	Port      string `env:"PORT" envDefault:"8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	JWTSecret      string  `env:"COMMITGATE_JWT_SECRET"`
	RateLimitRPS   float64 `env:"COMMITGATE_RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"COMMITGATE_RATE_LIMIT_BURST" envDefault:"10"`

	OTelEnabled  bool   `env:"OTEL_ENABLED"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
}

// Load parses the environment. A missing authority key is not an error;
// malformed addresses, drivers and modes are.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that can be checked without network access.
func (c *Config) Validate() error {
	if c.RegistryAddress != "" && !common.IsHexAddress(c.RegistryAddress) {
		return fmt.Errorf("COMMITGATE_REGISTRY_ADDRESS %q is not an address", c.RegistryAddress)
	}
	for class, addr := range c.ledgerStrings() {
		if addr != "" && !common.IsHexAddress(addr) {
			return fmt.Errorf("%s ledger %q is not an address", class, addr)
		}
	}
	if _, err := nonce.ParseMode(c.NonceMode); err != nil {
		return err
	}
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("COMMITGATE_DATABASE_DRIVER %q must be postgres or sqlite", c.DatabaseDriver)
	}
	if mode, _ := nonce.ParseMode(c.NonceMode); mode == nonce.ModeSQL && c.DatabaseURL == "" {
		return fmt.Errorf("nonce mode sql requires COMMITGATE_DATABASE_URL")
	}
	if c.ChainID < 0 {
		return fmt.Errorf("COMMITGATE_CHAIN_ID must not be negative")
	}
	return nil
}

func (c *Config) ledgerStrings() map[contracts.AssetClass]string {
	return map[contracts.AssetClass]string{
		contracts.AssetClassResource:  c.ResourcesLedger,
		contracts.AssetClassItem:      c.ItemsLedger,
		contracts.AssetClassCharacter: c.CharactersLedger,
		contracts.AssetClassCoin:      c.CoinsLedger,
	}
}

// Ledgers returns the configured ledger per class. Unset classes are omitted.
func (c *Config) Ledgers() map[contracts.AssetClass]common.Address {
	out := make(map[contracts.AssetClass]common.Address, 4)
	for class, addr := range c.ledgerStrings() {
		if addr != "" {
			out[class] = common.HexToAddress(addr)
		}
	}
	return out
}

// Registry returns the registry contract address, zero when unset.
func (c *Config) Registry() common.Address {
	if c.RegistryAddress == "" {
		return common.Address{}
	}
	return common.HexToAddress(c.RegistryAddress)
}

// Mode returns the parsed nonce mode. Load has already validated it.
func (c *Config) Mode() nonce.Mode {
	m, _ := nonce.ParseMode(c.NonceMode)
	return m
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values mean INFO.
func (c *Config) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogValue redacts secrets.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("rpc_url", c.RPCURL),
		slog.Bool("authority_key_set", c.AuthorityKey != ""),
		slog.String("registry", c.RegistryAddress),
		slog.Int64("chain_id", c.ChainID),
		slog.String("nonce_mode", c.NonceMode),
		slog.String("database_driver", c.DatabaseDriver),
		slog.Bool("database_set", c.DatabaseURL != ""),
		slog.String("catalog_file", c.CatalogFile),
		slog.String("port", c.Port),
		slog.Bool("jwt_set", c.JWTSecret != ""),
		slog.Bool("otel_enabled", c.OTelEnabled),
	)
}
