package handlers

import (
	"errors"
	"net/http"

	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/identity"
	"github.com/gin-gonic/gin"
)

// Envelope is the shape of every API response body.
type Envelope struct {
	Success   bool         `json:"success"`
	Message   string       `json:"message,omitempty"`
	Data      any          `json:"data,omitempty"`
	Errors    []FieldError `json:"errors,omitempty"`
	RequestID string       `json:"requestId,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondOK(ctx *gin.Context, status int, message string, data any) {
	ctx.JSON(status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func RespondError(ctx *gin.Context, status int, message string, errs []FieldError) {
	ctx.AbortWithStatusJSON(status, Envelope{
		Success:   false,
		Message:   message,
		Errors:    errs,
		RequestID: requestIDFrom(ctx),
	})
}

func RespondBadRequest(ctx *gin.Context, message string, errs []FieldError) {
	RespondError(ctx, http.StatusBadRequest, message, errs)
}

func RespondUnAuthorized(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusUnauthorized, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, message, nil)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message, nil)
}

func RespondInternal(ctx *gin.Context) {
	RespondError(ctx, http.StatusInternalServerError, "Internal server error", nil)
}

// RespondServiceError translates an identity or auth error into its HTTP response.
// Anything unrecognised is reported as an internal error without details.
func RespondServiceError(ctx *gin.Context, err error) {
	var ve *account.ValidationError

	switch {
	case errors.As(err, &ve):
		RespondBadRequest(ctx, "Invalid data", ve.Fields)
	case errors.Is(err, account.ErrValidation):
		RespondBadRequest(ctx, "Invalid data", nil)
	case errors.Is(err, account.ErrDuplicateEmail):
		RespondBadRequest(ctx, "Email is already in use", nil)
	case errors.Is(err, identity.ErrSelfDeletionForbidden):
		RespondBadRequest(ctx, "You cannot delete your own account", nil)
	case errors.Is(err, identity.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "Email or password is incorrect")
	case errors.Is(err, auth.ErrUnauthenticated):
		RespondUnAuthorized(ctx, "Authentication required")
	case errors.Is(err, auth.ErrForbidden):
		RespondForbidden(ctx, "Insufficient permissions")
	case errors.Is(err, account.ErrNotFound):
		RespondNotFound(ctx, "User not found")
	default:
		RespondInternal(ctx)
	}
}
