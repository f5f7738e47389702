// Package auth authenticates players on the HTTP surface. A player is
// identified by the JWT subject and acts through the wallet address carried
// in the token.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Mindburn-Labs/commitgate/pkg/api"
)

// PlayerClaims are the JWT claims expected from the game backend.
type PlayerClaims struct {
	jwt.RegisteredClaims
	Wallet string `json:"wallet"`
}

// JWTValidator validates HMAC-signed player tokens.
type JWTValidator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTValidator returns nil for an empty secret; the middleware then
// rejects every protected request.
func NewJWTValidator(secret string) *JWTValidator {
	if secret == "" {
		return nil
	}
	return &JWTValidator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodHS384.Alg(), jwt.SigningMethodHS512.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// Validate parses tokenStr and returns its claims.
func (v *JWTValidator) Validate(tokenStr string) (*PlayerClaims, error) {
	if v == nil {
		return nil, errors.New("validator uninitialized")
	}
	claims := &PlayerClaims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

var publicPaths = []string{
	"/health",
}

func isPublicPath(path string) bool {
	for _, p := range publicPaths {
		if path == p {
			return true
		}
	}
	return false
}

// NewMiddleware creates JWT auth middleware. It fails closed: with a nil
// validator every non-public request is rejected.
func NewMiddleware(validator *JWTValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.WriteUnauthorized(w, "Missing Authorization header")
				return
			}
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				api.WriteUnauthorized(w, "Invalid Authorization header format (expected 'Bearer <token>')")
				return
			}

			if validator == nil {
				api.WriteUnauthorized(w, "Authentication not configured")
				return
			}

			claims, err := validator.Validate(parts[1])
			if err != nil {
				api.WriteUnauthorized(w, "Invalid or expired token")
				return
			}
			if claims.Subject == "" {
				api.WriteUnauthorized(w, "Token subject is required")
				return
			}
			if !common.IsHexAddress(claims.Wallet) {
				api.WriteUnauthorized(w, "Token wallet binding is required")
				return
			}
			wallet := common.HexToAddress(claims.Wallet)
			if wallet == (common.Address{}) {
				api.WriteUnauthorized(w, "Token wallet binding is required")
				return
			}

			ctx := WithPlayer(r.Context(), Player{ID: claims.Subject, Wallet: wallet})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
