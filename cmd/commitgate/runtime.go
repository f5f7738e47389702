package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"

	_ "github.com/lib/pq" // Postgres driver
	_ "modernc.org/sqlite"

	"github.com/Mindburn-Labs/commitgate/pkg/bridge"
	"github.com/Mindburn-Labs/commitgate/pkg/catalog"
	"github.com/Mindburn-Labs/commitgate/pkg/chain"
	"github.com/Mindburn-Labs/commitgate/pkg/config"
	"github.com/Mindburn-Labs/commitgate/pkg/crypto"
	"github.com/Mindburn-Labs/commitgate/pkg/entitlement"
	"github.com/Mindburn-Labs/commitgate/pkg/nonce"
	"github.com/Mindburn-Labs/commitgate/pkg/observability"
	"github.com/Mindburn-Labs/commitgate/pkg/ownership"
	"github.com/Mindburn-Labs/commitgate/pkg/registry"
)

// dialLedger is a variable to allow faking the chain in tests.
var dialLedger = func(ctx context.Context, rpcURL string) (chain.Connection, error) {
	return chain.Dial(ctx, rpcURL)
}

// runtime holds everything a command needs, plus what must be closed.
type runtime struct {
	cfg       *config.Config
	db        *sql.DB
	bridge    *bridge.CommitBridge
	authority crypto.Authority
	book      ownership.Store
	telemetry *observability.Provider
	closers   []func() error
}

func (rt *runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	rt.closers = nil
}

func setupLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	return logger
}

func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		return nil, nil
	}
	db, err := sql.Open(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DatabaseDriver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.DatabaseDriver, err)
	}
	return db, nil
}

// openOwnershipBook returns the persisted ownership ledger when a database is
// configured and an in-memory one otherwise.
func openOwnershipBook(ctx context.Context, db *sql.DB) (ownership.Store, error) {
	if db == nil {
		return ownership.NewMemoryStore(), nil
	}
	s := ownership.NewSQLStore(db)
	if err := s.Init(ctx); err != nil {
		return nil, fmt.Errorf("init ownership store: %w", err)
	}
	return s, nil
}

type catalogStore interface {
	catalog.CatalogReader
	catalog.InventoryReader
}

func openCatalog(ctx context.Context, cfg *config.Config, db *sql.DB, logger *slog.Logger) (catalogStore, error) {
	switch {
	case cfg.CatalogFile != "":
		s, err := catalog.LoadSeedFile(cfg.CatalogFile)
		if err != nil {
			return nil, err
		}
		logger.InfoContext(ctx, "catalog loaded from seed", "path", cfg.CatalogFile)
		return s, nil
	case db != nil:
		s := catalog.NewSQLStore(db)
		if err := s.Init(ctx); err != nil {
			return nil, fmt.Errorf("init catalog store: %w", err)
		}
		return s, nil
	default:
		logger.WarnContext(ctx, "no catalog configured; every commit will be rejected as not found")
		return catalog.NewMemoryStore(), nil
	}
}

func openNonces(ctx context.Context, cfg *config.Config, db *sql.DB) (nonce.Source, func() error, error) {
	switch cfg.Mode() {
	case nonce.ModeRandom:
		return nonce.NewRandom(), nil, nil
	case nonce.ModeSQL:
		if db == nil {
			return nil, nil, errors.New("nonce mode sql requires a database")
		}
		s := nonce.NewSQLCounter(db)
		if err := s.Init(ctx); err != nil {
			return nil, nil, fmt.Errorf("init nonce store: %w", err)
		}
		return s, nil, nil
	case nonce.ModeRedis:
		r := nonce.NewRedisCounterAddr(cfg.RedisAddr, cfg.RedisPassword, 0)
		return r, r.Close, nil
	default:
		return nonce.NewCounter(), nil, nil
	}
}

// connectAuthority dials the ledger and builds the authority. Any failure
// leaves the authority uninitialized; it is never fatal.
func connectAuthority(ctx context.Context, cfg *config.Config, logger *slog.Logger) (crypto.Authority, chain.Connection) {
	if cfg.AuthorityKey == "" {
		return &crypto.Uninitialized{Reason: "authority key not configured"}, nil
	}
	if cfg.RPCURL == "" {
		return &crypto.Uninitialized{Reason: "ledger rpc url not configured"}, nil
	}

	conn, err := dialLedger(ctx, cfg.RPCURL)
	if err != nil {
		logger.ErrorContext(ctx, "ledger dial failed", "error", err)
		return &crypto.Uninitialized{Reason: "ledger connection unavailable"}, nil
	}

	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = conn.ChainID(ctx)
		if err != nil {
			logger.ErrorContext(ctx, "chain id read failed", "error", err)
			conn.Close()
			return &crypto.Uninitialized{Reason: "chain id unavailable"}, nil
		}
	}

	a := crypto.NewAuthority(crypto.AuthorityConfig{
		PrivateKeyHex: cfg.AuthorityKey,
		Connection:    conn,
		Registry:      cfg.Registry(),
		ChainID:       chainID,
	})
	if _, ok := a.(*crypto.Ready); !ok {
		conn.Close()
		return a, nil
	}
	return a, conn
}

func buildRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*runtime, error) {
	rt := &runtime{cfg: cfg}
	ok := false
	defer func() {
		if !ok {
			rt.Close()
		}
	}()

	db, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if db != nil {
		rt.db = db
		rt.closers = append(rt.closers, db.Close)
	}

	cat, err := openCatalog(ctx, cfg, db, logger)
	if err != nil {
		return nil, err
	}
	rt.book, err = openOwnershipBook(ctx, db)
	if err != nil {
		return nil, err
	}
	nonces, closeNonces, err := openNonces(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	if closeNonces != nil {
		rt.closers = append(rt.closers, closeNonces)
	}

	rt.telemetry, err = observability.New(ctx, &observability.Config{
		ServiceName:    "commitgate",
		ServiceVersion: version,
		Environment:    "production",
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     1.0,
		BatchTimeout:   observability.DefaultConfig().BatchTimeout,
		Enabled:        cfg.OTelEnabled,
		Insecure:       true,
	})
	if err != nil {
		return nil, err
	}
	rt.closers = append(rt.closers, func() error { return rt.telemetry.Shutdown(context.Background()) })

	authority, conn := connectAuthority(ctx, cfg, logger)
	rt.authority = authority
	var (
		regReader  registry.Reader
		ledgerRead ownership.LedgerReader
	)
	if conn != nil {
		rt.closers = append(rt.closers, func() error { conn.Close(); return nil })
		regReader = chain.NewRegistry(conn, cfg.Registry())
		ledgerRead = chain.NewLedger(conn)
	}

	switch a := authority.(type) {
	case *crypto.Ready:
		logger.InfoContext(ctx, "authority ready", "authority", a)
	case *crypto.Uninitialized:
		logger.WarnContext(ctx, "authority uninitialized; commits will fail", "reason", a.Reason)
	}

	rt.bridge = bridge.NewCommitBridge(bridge.Deps{
		Authority: authority,
		Verifier:  entitlement.NewVerifier(cat, cat),
		Resolver:  registry.NewResolver(regReader),
		Ownership: ownership.NewResolver(ledgerRead, rt.book),
		Nonces:    nonces,
		Ledgers:   cfg.Ledgers(),
		Telemetry: rt.telemetry,
	})
	ok = true
	return rt, nil
}
