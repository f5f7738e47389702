package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
)

// Player is the authenticated caller.
type Player struct {
	ID     string
	Wallet common.Address
}

type playerKey struct{}

// WithPlayer attaches a Player to the context.
func WithPlayer(ctx context.Context, p Player) context.Context {
	return context.WithValue(ctx, playerKey{}, p)
}

// GetPlayer retrieves the Player from the context.
func GetPlayer(ctx context.Context) (Player, error) {
	p, ok := ctx.Value(playerKey{}).(Player)
	if !ok {
		return Player{}, errors.New("no player in context")
	}
	return p, nil
}

// PlayerKey charges rate limits to the authenticated player. Requests that
// reached the limiter unauthenticated share one bucket.
func PlayerKey(r *http.Request) string {
	if p, err := GetPlayer(r.Context()); err == nil {
		return "player:" + p.ID
	}
	return "anonymous"
}
