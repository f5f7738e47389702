package ownership

import (
	"context"
	"database/sql"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Store is the off-chain ownership book: which token ids a player holds in a
// collection. It is updated when a mint or burn is confirmed on-chain.
type Store interface {
	Record(ctx context.Context, player, collection common.Address, tokenID *big.Int) error
	Remove(ctx context.Context, player, collection common.Address, tokenID *big.Int) error
	List(ctx context.Context, player, collection common.Address) ([]*big.Int, error)
	Owns(ctx context.Context, player, collection common.Address, tokenID *big.Int) (bool, error)
}

func bookKey(player, collection common.Address) string {
	return strings.ToLower(player.Hex()) + "/" + strings.ToLower(collection.Hex())
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]map[string]*big.Int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]map[string]*big.Int)}
}

func (s *MemoryStore) Record(_ context.Context, player, collection common.Address, tokenID *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := bookKey(player, collection)
	if s.tokens[k] == nil {
		s.tokens[k] = make(map[string]*big.Int)
	}
	s.tokens[k][tokenID.String()] = new(big.Int).Set(tokenID)
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, player, collection common.Address, tokenID *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens[bookKey(player, collection)], tokenID.String())
	return nil
}

func (s *MemoryStore) List(_ context.Context, player, collection common.Address) ([]*big.Int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]*big.Int, 0, len(s.tokens[bookKey(player, collection)]))
	for _, id := range s.tokens[bookKey(player, collection)] {
		ids = append(ids, new(big.Int).Set(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Cmp(ids[j]) < 0 })
	return ids, nil
}

func (s *MemoryStore) Owns(_ context.Context, player, collection common.Address, tokenID *big.Int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[bookKey(player, collection)][tokenID.String()]
	return ok, nil
}

// SQLStore implements Store using database/sql (Postgres or SQLite).
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const ownershipSchema = `
CREATE TABLE IF NOT EXISTS owned_tokens (
	player TEXT NOT NULL,
	collection TEXT NOT NULL,
	token_id TEXT NOT NULL,
	recorded_at TIMESTAMP NOT NULL,
	PRIMARY KEY (player, collection, token_id)
);
`

func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, ownershipSchema)
	return err
}

func (s *SQLStore) Record(ctx context.Context, player, collection common.Address, tokenID *big.Int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owned_tokens (player, collection, token_id, recorded_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player, collection, token_id) DO NOTHING
	`, strings.ToLower(player.Hex()), strings.ToLower(collection.Hex()), tokenID.String(), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ownership: record: %w", err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, player, collection common.Address, tokenID *big.Int) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM owned_tokens WHERE player = $1 AND collection = $2 AND token_id = $3`,
		strings.ToLower(player.Hex()), strings.ToLower(collection.Hex()), tokenID.String(),
	)
	if err != nil {
		return fmt.Errorf("ownership: remove: %w", err)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context, player, collection common.Address) ([]*big.Int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT token_id FROM owned_tokens WHERE player = $1 AND collection = $2 ORDER BY recorded_at, token_id`,
		strings.ToLower(player.Hex()), strings.ToLower(collection.Hex()),
	)
	if err != nil {
		return nil, fmt.Errorf("ownership: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]*big.Int, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		id, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			return nil, fmt.Errorf("ownership: corrupt token id %q", raw)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *SQLStore) Owns(ctx context.Context, player, collection common.Address, tokenID *big.Int) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM owned_tokens WHERE player = $1 AND collection = $2 AND token_id = $3`,
		strings.ToLower(player.Hex()), strings.ToLower(collection.Hex()), tokenID.String(),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("ownership: owns: %w", err)
	}
	return n > 0, nil
}
