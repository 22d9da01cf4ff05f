package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/http/middlewares"
	"github.com/geocoder89/medid/internal/identity"
	"github.com/gin-gonic/gin"
)

type SessionService interface {
	Register(ctx context.Context, in account.NewAccount) (identity.Session, error)
	Authenticate(ctx context.Context, email, password string) (identity.Session, error)
	GetProfile(ctx context.Context, id string) (account.Account, error)
}

type AuthHandler struct {
	svc SessionService
}

func NewAuthHandler(svc SessionService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// bcrypt at cost 12 dominates this call
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	s, err := h.svc.Register(cctx, req.NewAccount())
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "Registration successful", sessionResponse{
		User:  s.Account.View(),
		Token: s.Token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	s, err := h.svc.Authenticate(cctx, req.Email, req.Password)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "Login successful", sessionResponse{
		User:  s.Account.View(),
		Token: s.Token,
	})
}

func (h *AuthHandler) Profile(ctx *gin.Context) {
	id, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.svc.GetProfile(cctx, id.AccountID)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOKWithETag(ctx, "", userResponse{User: a.View()})
}

// Logout succeeds without touching the token; sessions end when the token expires.
func (h *AuthHandler) Logout(ctx *gin.Context) {
	RespondOK(ctx, http.StatusOK, "Logout successful", nil)
}
