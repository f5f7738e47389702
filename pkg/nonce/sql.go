package nonce

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SQLCounter is a persisted per-signer counter. Each Next is a single
// atomic upsert, so concurrent processes sharing the database never
// observe the same value. A signer's first row is seeded from the wall clock
// like Counter, so a wiped table or a switch from another mode starts above
// the nonces already issued.
type SQLCounter struct {
	db    *sql.DB
	clock func() time.Time
}

func NewSQLCounter(db *sql.DB) *SQLCounter {
	return &SQLCounter{db: db, clock: time.Now}
}

// WithClock overrides clock for testing.
func (s *SQLCounter) WithClock(clock func() time.Time) *SQLCounter {
	s.clock = clock
	return s
}

const nonceSchema = `
CREATE TABLE IF NOT EXISTS commit_nonces (
	signer TEXT PRIMARY KEY,
	value BIGINT NOT NULL
);
`

func (s *SQLCounter) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, nonceSchema)
	return err
}

func (s *SQLCounter) Next(ctx context.Context, signer, _ common.Address) (*big.Int, error) {
	var v int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO commit_nonces (signer, value) VALUES ($1, $2)
		ON CONFLICT (signer) DO UPDATE SET value = commit_nonces.value + 1
		RETURNING value
	`, strings.ToLower(signer.Hex()), s.clock().UnixNano()).Scan(&v)
	if err != nil {
		return nil, fmt.Errorf("nonce: sql increment: %w", err)
	}
	return big.NewInt(v), nil
}
