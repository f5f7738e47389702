package nonce

import (
	"context"
	"database/sql"
	"math/big"
	"path/filepath"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

var (
	signer = common.HexToAddress("0x00000000000000000000000000000000000000d1")
	target = common.HexToAddress("0x00000000000000000000000000000000000000b0")
)

// assertUniqueUnderConcurrency issues n nonces from many goroutines at once.
func assertUniqueUnderConcurrency(t *testing.T, src Source, n int) {
	t.Helper()
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := src.Next(context.Background(), signer, target)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[v.String()], "nonce %s issued twice", v)
			seen[v.String()] = true
		}()
	}
	wg.Wait()
	assert.Len(t, seen, n)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("redis")
	require.NoError(t, err)
	assert.Equal(t, ModeRedis, m)

	_, err = ParseMode("clock")
	assert.Error(t, err)
}

func TestCounter_SameMillisecond(t *testing.T) {
	frozen := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	c := NewCounter().WithClock(func() time.Time { return frozen })

	assertUniqueUnderConcurrency(t, c, 500)
}

func TestCounter_StrictlyIncreasing(t *testing.T) {
	c := NewCounter()
	ctx := context.Background()
	prev, err := c.Next(ctx, signer, target)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		next, err := c.Next(ctx, signer, target)
		require.NoError(t, err)
		assert.Equal(t, 1, next.Cmp(prev))
		prev = next
	}
}

func TestCounter_ReturnsCopies(t *testing.T) {
	c := NewCounter()
	a, _ := c.Next(context.Background(), signer, target)
	a.SetInt64(0)
	b, _ := c.Next(context.Background(), signer, target)
	assert.Equal(t, 1, b.Sign())
}

func TestRandom(t *testing.T) {
	r := NewRandom()
	v, err := r.Next(context.Background(), signer, target)
	require.NoError(t, err)
	assert.LessOrEqual(t, v.BitLen(), 256)
	assertUniqueUnderConcurrency(t, r, 200)
}

func TestSQLCounter_SQLite(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "nonce.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	s := NewSQLCounter(db).WithClock(func() time.Time { return time.Unix(0, 1000) })
	require.NoError(t, s.Init(context.Background()))

	first, err := s.Next(context.Background(), signer, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), first.Int64())

	assertUniqueUnderConcurrency(t, s, 50)

	last, err := s.Next(context.Background(), signer, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1051), last.Int64())
}

func TestSQLCounter_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO commit_nonces")).
		WithArgs("0x00000000000000000000000000000000000000d1", int64(1700000000000000000)).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(41)))

	c := NewSQLCounter(db).WithClock(func() time.Time { return time.Unix(0, 1700000000000000000) })
	v, err := c.Next(context.Background(), signer, target)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(41), v)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisCounter(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()

	rc := NewRedisCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithClock(func() time.Time { return time.Unix(0, 1000) })
	defer func() { _ = rc.Close() }()

	v, err := rc.Next(context.Background(), signer, target)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), v.Int64())

	assertUniqueUnderConcurrency(t, rc, 100)

	stored, err := mr.Get("commitgate:nonce:0x00000000000000000000000000000000000000d1")
	require.NoError(t, err)
	assert.Equal(t, "1100", stored)
}

func TestPersistedCounters_StartAboveEarlierStores(t *testing.T) {
	ctx := context.Background()
	now := time.Now()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "nonce.db"))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)
	s := NewSQLCounter(db).WithClock(func() time.Time { return now })
	require.NoError(t, s.Init(ctx))

	var issued *big.Int
	for i := 0; i < 5; i++ {
		issued, err = s.Next(ctx, signer, target)
		require.NoError(t, err)
	}

	// Mode switched to redis a second later, against an empty store.
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	defer mr.Close()
	rc := NewRedisCounter(redis.NewClient(&redis.Options{Addr: mr.Addr()})).
		WithClock(func() time.Time { return now.Add(time.Second) })
	defer func() { _ = rc.Close() }()

	next, err := rc.Next(ctx, signer, target)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Cmp(issued), "redis %s must exceed sql %s", next, issued)

	// Wiping the table reseeds above the redis values too.
	_, err = db.ExecContext(ctx, "DELETE FROM commit_nonces")
	require.NoError(t, err)
	s.WithClock(func() time.Time { return now.Add(2 * time.Second) })
	again, err := s.Next(ctx, signer, target)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Cmp(next))
}

func TestRedisCounter_Unavailable(t *testing.T) {
	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	addr := mr.Addr()
	mr.Close()

	rc := NewRedisCounterAddr(addr, "", 0)
	defer func() { _ = rc.Close() }()
	_, err := rc.Next(context.Background(), signer, target)
	assert.Error(t, err)
}
