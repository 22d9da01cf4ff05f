package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/geocoder89/medid/internal/actorctx"
	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(raw string) (auth.Identity, error)
	Authorize(id auth.Identity, allowed ...account.Role) error
}

type AuthMiddleware struct {
	gate Authenticator
}

func NewAuthMiddleware(gate Authenticator) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// RequireAuth accepts "Authorization: Bearer <token>" and stores the caller's identity.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")

		scheme, raw, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
			abort(c, http.StatusUnauthorized, "Access token required")
			return
		}

		id, err := m.gate.Authenticate(raw)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abort(c, http.StatusUnauthorized, "Token expired")
				return
			}
			abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		c.Set(CtxIdentity, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

// Optional helpers so handlers don't need to know the magic keys.

func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(CtxIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
