package config_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/commitgate/pkg/config"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/Mindburn-Labs/commitgate/pkg/nonce"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"COMMITGATE_RPC_URL", "COMMITGATE_AUTHORITY_KEY", "COMMITGATE_REGISTRY_ADDRESS", "COMMITGATE_CHAIN_ID",
		"COMMITGATE_RESOURCES_LEDGER", "COMMITGATE_ITEMS_LEDGER", "COMMITGATE_CHARACTERS_LEDGER", "COMMITGATE_COINS_LEDGER",
		"COMMITGATE_NONCE_MODE", "COMMITGATE_DATABASE_URL", "COMMITGATE_DATABASE_DRIVER", "COMMITGATE_REDIS_ADDR",
		"COMMITGATE_CATALOG_FILE", "PORT", "LOG_LEVEL", "LOG_FORMAT", "COMMITGATE_JWT_SECRET",
		"COMMITGATE_RATE_LIMIT_RPS", "COMMITGATE_RATE_LIMIT_BURST", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	} {
		t.Setenv(k, "")
	}
}

// A fresh environment boots with an uninitialized authority, not an error.
func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, nonce.ModeCounter, cfg.Mode())
	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 5.0, cfg.RateLimitRPS)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Empty(t, cfg.AuthorityKey)
	assert.Empty(t, cfg.Ledgers())
	assert.Equal(t, common.Address{}, cfg.Registry())
	assert.False(t, cfg.OTelEnabled)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("COMMITGATE_REGISTRY_ADDRESS", "0x5FbDB2315678afecb367f032d93F642f64180aa3")
	t.Setenv("COMMITGATE_ITEMS_LEDGER", "0x1000000000000000000000000000000000000003")
	t.Setenv("COMMITGATE_CHAIN_ID", "31337")
	t.Setenv("COMMITGATE_NONCE_MODE", "redis")
	t.Setenv("COMMITGATE_RATE_LIMIT_RPS", "0.5")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, slog.LevelDebug, cfg.SlogLevel())
	assert.Equal(t, common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), cfg.Registry())
	assert.Equal(t, int64(31337), cfg.ChainID)
	assert.Equal(t, nonce.ModeRedis, cfg.Mode())
	assert.Equal(t, 0.5, cfg.RateLimitRPS)
	assert.True(t, cfg.OTelEnabled)

	ledgers := cfg.Ledgers()
	require.Len(t, ledgers, 1)
	assert.Equal(t, common.HexToAddress("0x1000000000000000000000000000000000000003"), ledgers[contracts.AssetClassItem])
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad registry", "COMMITGATE_REGISTRY_ADDRESS", "registry"},
		{"bad ledger", "COMMITGATE_COINS_LEDGER", "0x123"},
		{"bad mode", "COMMITGATE_NONCE_MODE", "clock"},
		{"bad driver", "COMMITGATE_DATABASE_DRIVER", "mysql"},
		{"sql mode without database", "COMMITGATE_NONCE_MODE", "sql"},
		{"non-numeric chain id", "COMMITGATE_CHAIN_ID", "mainnet"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.val)
			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}

func TestSlogLevel_Unknown(t *testing.T) {
	cfg := &config.Config{LogLevel: "chatty"}
	assert.Equal(t, slog.LevelInfo, cfg.SlogLevel())
}

func TestLogValue_RedactsSecrets(t *testing.T) {
	cfg := &config.Config{AuthorityKey: "deadbeefsecret", JWTSecret: "hmac-secret", DatabaseURL: "postgres://u:pw@db/x"}

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("config", "config", cfg)

	out := buf.String()
	assert.NotContains(t, out, "deadbeefsecret")
	assert.NotContains(t, out, "hmac-secret")
	assert.NotContains(t, out, "pw@db")
	assert.Contains(t, out, "authority_key_set=true")
}
