package middlewares

import (
	"errors"
	"net/http"

	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(allowed ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := IdentityFromContext(c)

		err := m.gate.Authorize(id, allowed...)
		switch {
		case err == nil:
			c.Next()
		case errors.Is(err, auth.ErrForbidden):
			abort(c, http.StatusForbidden, "Insufficient permissions")
		default:
			abort(c, http.StatusUnauthorized, "Access token required")
		}
	}
}
