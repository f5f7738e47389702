package nonce

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
)

// RedisCounter is a per-signer counter backed by Redis INCR. A missing key
// is seeded from the wall clock like Counter before the increment.
type RedisCounter struct {
	client redis.UniversalClient
	prefix string
	clock  func() time.Time
}

// NewRedisCounter creates a counter using the given client.
func NewRedisCounter(client redis.UniversalClient) *RedisCounter {
	return &RedisCounter{client: client, prefix: "commitgate:nonce:", clock: time.Now}
}

// WithClock overrides clock for testing.
func (r *RedisCounter) WithClock(clock func() time.Time) *RedisCounter {
	r.clock = clock
	return r
}

// NewRedisCounterAddr connects to addr and returns a counter.
func NewRedisCounterAddr(addr, password string, db int) *RedisCounter {
	return NewRedisCounter(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}))
}

func (r *RedisCounter) Next(ctx context.Context, signer, _ common.Address) (*big.Int, error) {
	key := r.prefix + strings.ToLower(signer.Hex())
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SetNX(ctx, key, r.clock().UnixNano()-1, 0)
		incr = p.Incr(ctx, key)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("nonce: redis incr: %w", err)
	}
	return big.NewInt(incr.Val()), nil
}

// Close releases the underlying client.
func (r *RedisCounter) Close() error {
	return r.client.Close()
}
