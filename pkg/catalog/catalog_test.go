package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mindburn-Labs/commitgate/pkg/contracts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

const seedYAML = `
resources:
  - id: res-iron
    name: Iron Ore
    class: resource
  - id: item-sword
    name: Sword
    class: item
inventory:
  - player: player-1
    resource: res-iron
    quantity: 5
    source: quest
`

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.AddResource(contracts.ResourceSummary{ID: "res-iron", Name: "Iron Ore", Class: contracts.AssetClassResource})
	s.SetInventory("player-1", contracts.InventoryDetails{ResourceID: "res-iron", Quantity: 5})

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Iron Ore", all[0].Name)

	ok, err := s.HasItem(ctx, "player-1", "res-iron", 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasItem(ctx, "player-1", "res-iron", 6)
	require.NoError(t, err)
	assert.False(t, ok, "quantity below request")

	ok, err = s.HasItem(ctx, "player-2", "res-iron", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.GetItem(ctx, "player-2", "res-iron")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestParseSeed(t *testing.T) {
	s, err := ParseSeed([]byte(seedYAML))
	require.NoError(t, err)

	all, err := s.ListAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	d, err := s.GetItem(context.Background(), "player-1", "res-iron")
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.Quantity)
	assert.Equal(t, "quest", d.Source)
}

func TestParseSeed_Rejects(t *testing.T) {
	t.Run("unknown class", func(t *testing.T) {
		_, err := ParseSeed([]byte("resources:\n  - id: x\n    name: X\n    class: pet\n"))
		assert.Error(t, err)
	})
	t.Run("dangling holding", func(t *testing.T) {
		_, err := ParseSeed([]byte("inventory:\n  - player: p\n    resource: nope\n    quantity: 1\n"))
		assert.Error(t, err)
	})
}

func TestSQLStore_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	s := NewSQLStore(db)
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.UpsertResource(ctx, contracts.ResourceSummary{ID: "res-iron", Name: "Iron Ore", Class: contracts.AssetClassResource}))
	require.NoError(t, s.SetInventory(ctx, "player-1", contracts.InventoryDetails{
		ResourceID: "res-iron",
		Quantity:   5,
		Source:     "craft",
		AcquiredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}))

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, contracts.AssetClassResource, all[0].Class)

	ok, err := s.HasItem(ctx, "player-1", "res-iron", 3)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.HasItem(ctx, "player-9", "res-iron", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	d, err := s.GetItem(ctx, "player-1", "res-iron")
	require.NoError(t, err)
	assert.Equal(t, int64(5), d.Quantity)
	assert.Equal(t, "craft", d.Source)

	_, err = s.GetItem(ctx, "player-9", "res-iron")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestSQLStore_HasItem_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	s := NewSQLStore(db)
	ctx := context.Background()
	query := regexp.QuoteMeta("SELECT quantity FROM player_inventory WHERE player_id = $1 AND resource_id = $2")

	mock.ExpectQuery(query).
		WithArgs("player-1", "res-iron").
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))
	ok, err := s.HasItem(ctx, "player-1", "res-iron", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	mock.ExpectQuery(query).
		WithArgs("player-1", "res-iron").
		WillReturnError(sql.ErrConnDone)
	_, err = s.HasItem(ctx, "player-1", "res-iron", 1)
	assert.ErrorIs(t, err, sql.ErrConnDone)

	assert.NoError(t, mock.ExpectationsWereMet())
}
