package auth

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/geocoder89/medid/internal/domain/account"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

// Identity is the caller as asserted by a verified token.
type Identity struct {
	AccountID string
	Role      account.Role
}

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (*Claims, error)
}

// Gate trusts the token alone: it does not reload the account, so a deactivated
// account keeps access until its token expires.
type Gate struct {
	tokens TokenVerifier
}

func NewGate(tokens TokenVerifier) *Gate {
	return &Gate{tokens: tokens}
}

// Authenticate verifies a raw token. The returned error wraps ErrUnauthenticated and,
// when available, ErrInvalidToken or ErrExpiredToken.
func (g *Gate) Authenticate(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	claims, err := g.tokens.Verify(raw)
	if err != nil {
		return Identity{}, errors.Join(ErrUnauthenticated, err)
	}

	return Identity{AccountID: claims.AccountID(), Role: claims.Role}, nil
}

// Authorize fails with ErrForbidden unless the identity holds one of the roles.
func (g *Gate) Authorize(id Identity, allowed ...account.Role) error {
	if id.AccountID == "" || id.Role == "" {
		return ErrUnauthenticated
	}
	if !slices.Contains(allowed, id.Role) {
		return fmt.Errorf("%w: role %s", ErrForbidden, id.Role)
	}
	return nil
}
