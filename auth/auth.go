package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// TokenGate is the interface used to verify the credential presented on a request. Implementations
// only verify tokens, issuing them belongs to the external identity provider.
type TokenGate interface {
	Authenticate(r *http.Request) error
}

// JWTGate verifies bearer tokens signed with a shared HMAC secret
type JWTGate struct {
	secret   []byte
	audience string
}

// NewJWTGate creates a new gate for the passed in secret, optionally requiring an audience claim
func NewJWTGate(secret, audience string) *JWTGate {
	return &JWTGate{secret: []byte(secret), audience: audience}
}

// Authenticate implements TokenGate. A gate with no secret configured fails closed.
func (g *JWTGate) Authenticate(r *http.Request) error {
	if len(g.secret) == 0 {
		return errors.New("no token secret configured")
	}

	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return errors.New("missing bearer token")
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{"HS256"})}
	if g.audience != "" {
		opts = append(opts, jwt.WithAudience(g.audience))
	}

	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (any, error) { return g.secret, nil }, opts...)
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return errors.New("invalid token")
	}

	return nil
}
