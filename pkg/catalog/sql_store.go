package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
)

// SQLStore implements CatalogReader and InventoryReader using database/sql.
// It supports both Postgres and SQLite via standard drivers.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS catalog_resources (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	class TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS player_inventory (
	player_id TEXT NOT NULL,
	resource_id TEXT NOT NULL,
	quantity BIGINT NOT NULL DEFAULT 0,
	equipped BOOLEAN NOT NULL DEFAULT FALSE,
	source TEXT NOT NULL DEFAULT '',
	acquired_at TIMESTAMP,
	PRIMARY KEY (player_id, resource_id)
);
`

func (s *SQLStore) Init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, catalogSchema)
	return err
}

func (s *SQLStore) ListAll(ctx context.Context) ([]contracts.ResourceSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, class, description FROM catalog_resources`)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]contracts.ResourceSummary, 0)
	for rows.Next() {
		var r contracts.ResourceSummary
		var class string
		if err := rows.Scan(&r.ID, &r.Name, &class, &r.Description); err != nil {
			return nil, err
		}
		r.Class = contracts.AssetClass(class)
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *SQLStore) HasItem(ctx context.Context, playerID, resourceID string, qty int64) (bool, error) {
	var quantity int64
	err := s.db.QueryRowContext(ctx,
		`SELECT quantity FROM player_inventory WHERE player_id = $1 AND resource_id = $2`,
		playerID, resourceID,
	).Scan(&quantity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("catalog: has item: %w", err)
	}
	return quantity >= qty, nil
}

func (s *SQLStore) GetItem(ctx context.Context, playerID, resourceID string) (*contracts.InventoryDetails, error) {
	var (
		d          contracts.InventoryDetails
		acquiredAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT resource_id, quantity, equipped, source, acquired_at FROM player_inventory WHERE player_id = $1 AND resource_id = $2`,
		playerID, resourceID,
	).Scan(&d.ResourceID, &d.Quantity, &d.Equipped, &d.Source, &acquiredAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("catalog: get item: %w", err)
	}
	if acquiredAt.Valid {
		d.AcquiredAt = acquiredAt.Time
	}
	return &d, nil
}

// UpsertResource inserts or replaces a catalog entry.
func (s *SQLStore) UpsertResource(ctx context.Context, r contracts.ResourceSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO catalog_resources (id, name, class, description)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET name = $2, class = $3, description = $4
	`, r.ID, r.Name, string(r.Class), r.Description)
	return err
}

// SetInventory inserts or replaces a player's holding.
func (s *SQLStore) SetInventory(ctx context.Context, playerID string, d contracts.InventoryDetails) error {
	acquiredAt := d.AcquiredAt
	if acquiredAt.IsZero() {
		acquiredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_inventory (player_id, resource_id, quantity, equipped, source, acquired_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (player_id, resource_id) DO UPDATE
		SET quantity = $3, equipped = $4, source = $5, acquired_at = $6
	`, playerID, d.ResourceID, d.Quantity, d.Equipped, d.Source, acquiredAt)
	return err
}
