// Package nonce issues commit nonces. A nonce is never reused by the same
// signer: counters are strictly increasing per signer, random nonces are
// 256-bit.
//
// Whether the registry contract tracks consumed nonces decides which source
// is safe: a random source is enough only if it does; otherwise use a
// persisted counter (sql or redis).
package nonce

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Mode selects a nonce source.
type Mode string

const (
	ModeCounter Mode = "counter"
	ModeRandom  Mode = "random"
	ModeSQL     Mode = "sql"
	ModeRedis   Mode = "redis"
)

// ParseMode validates a configured mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeCounter, ModeRandom, ModeSQL, ModeRedis:
		return m, nil
	default:
		return "", fmt.Errorf("nonce: unknown mode %q", s)
	}
}

// Source issues nonces for commits by signer against target.
type Source interface {
	Next(ctx context.Context, signer, target common.Address) (*big.Int, error)
}

// Counter is an in-memory, strictly increasing per-signer counter.
//
// The first nonce for a signer is seeded from the wall clock in nanoseconds,
// so a restarted process starts above anything it issued before as long as
// it issued fewer than one nonce per nanosecond.
type Counter struct {
	mu    sync.Mutex
	last  map[common.Address]*big.Int
	clock func() time.Time
}

func NewCounter() *Counter {
	return &Counter{
		last:  make(map[common.Address]*big.Int),
		clock: time.Now,
	}
}

// WithClock overrides clock for testing.
func (c *Counter) WithClock(clock func() time.Time) *Counter {
	c.clock = clock
	return c
}

func (c *Counter) Next(_ context.Context, signer, _ common.Address) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, ok := c.last[signer]
	var next *big.Int
	if !ok {
		next = big.NewInt(c.clock().UnixNano())
	} else {
		next = new(big.Int).Add(prev, big.NewInt(1))
	}
	c.last[signer] = next
	return new(big.Int).Set(next), nil
}

var maxUint256 = new(big.Int).Lsh(big.NewInt(1), 256)

// Random draws a uniformly random 256-bit nonce.
type Random struct{}

func NewRandom() Random { return Random{} }

func (Random) Next(context.Context, common.Address, common.Address) (*big.Int, error) {
	n, err := rand.Int(rand.Reader, maxUint256)
	if err != nil {
		return nil, fmt.Errorf("nonce: random: %w", err)
	}
	return n, nil
}
