package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/medid/internal/config"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/http/middlewares"
	"github.com/geocoder89/medid/internal/utils"
	"github.com/gin-gonic/gin"
)

type AccountManager interface {
	ListAccounts(ctx context.Context, q account.ListQuery) (account.Page, error)
	GetProfile(ctx context.Context, id string) (account.Account, error)
	AdminCreateAccount(ctx context.Context, in account.NewAccount) (account.Account, error)
	AdminUpdateAccount(ctx context.Context, id string, p account.Patch) (account.Account, error)
	AdminSoftDeleteAccount(ctx context.Context, id, callerID string) error
	AdminReactivateAccount(ctx context.Context, id string) (account.Account, error)
	AdminAccountStats(ctx context.Context) (account.Stats, error)
}

type AccountsHandler struct {
	svc AccountManager
}

func NewAccountsHandler(svc AccountManager) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

func (h *AccountsHandler) List(ctx *gin.Context) {
	q, fields := parseListQuery(ctx)
	if len(fields) > 0 {
		RespondBadRequest(ctx, "Invalid data", fields)
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.svc.ListAccounts(cctx, q)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	users := make([]account.Summary, 0, len(page.Items))
	for _, a := range page.Items {
		users = append(users, a.Summary())
	}

	RespondOK(ctx, http.StatusOK, "", listResponse{Users: users, Pagination: page.Pagination})
}

func (h *AccountsHandler) Get(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	a, err := h.svc.GetProfile(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOKWithETag(ctx, "", userResponse{User: a.View()})
}

func (h *AccountsHandler) Create(ctx *gin.Context) {
	var req CreateAccountRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	a, err := h.svc.AdminCreateAccount(cctx, req.NewAccount())
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusCreated, "User created", userResponse{User: a.View()})
}

func (h *AccountsHandler) Update(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	var patch account.Patch

	if !BindJSON(ctx, &patch) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	a, err := h.svc.AdminUpdateAccount(cctx, id, patch)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "User updated", userResponse{User: a.View()})
}

func (h *AccountsHandler) Delete(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	caller, ok := middlewares.IdentityFromContext(ctx)
	if !ok {
		RespondUnAuthorized(ctx, "Authentication required")
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.AdminSoftDeleteAccount(cctx, id, caller.AccountID); err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "User deleted", nil)
}

func (h *AccountsHandler) Reactivate(ctx *gin.Context) {
	id, ok := accountID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	a, err := h.svc.AdminReactivateAccount(cctx, id)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	RespondOK(ctx, http.StatusOK, "User reactivated", userResponse{User: a.Summary()})
}

func (h *AccountsHandler) Stats(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	st, err := h.svc.AdminAccountStats(cctx)
	if err != nil {
		RespondServiceError(ctx, err)
		return
	}

	if st.CountsByRole == nil {
		st.CountsByRole = map[account.Role]int{}
	}

	RespondOK(ctx, http.StatusOK, "", st)
}

// accountID reads the :id path parameter, answering 400 itself when it is not a UUID.
func accountID(ctx *gin.Context) (string, bool) {
	id := ctx.Param("id")

	if !utils.IsUUID(id) {
		RespondBadRequest(ctx, "Invalid data", []FieldError{
			{Field: "id", Rule: "uuid", Message: "must be a valid UUID"},
		})
		return "", false
	}

	return id, true
}

// parseListQuery reads page, limit, role, isActive and search. Missing page and limit
// default to 1 and 10; range checks are left to the service.
func parseListQuery(ctx *gin.Context) (account.ListQuery, []FieldError) {
	q := account.ListQuery{Page: account.DefaultPage, PageSize: account.DefaultPageSize}
	var fields []FieldError

	if raw := ctx.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: "page", Rule: "int", Message: "must be a positive integer"})
		}
		q.Page = n
	}

	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields = append(fields, FieldError{Field: "limit", Rule: "int", Message: "must be an integer"})
		}
		q.PageSize = n
	}

	if raw := ctx.Query("role"); raw != "" {
		r, ok := account.ParseRole(raw)
		if !ok {
			fields = append(fields, FieldError{Field: "role", Rule: "oneof", Param: "PATIENT HOSPITAL LAB ADMIN", Message: "must be one of PATIENT, HOSPITAL, LAB, ADMIN"})
		}
		q.Filter.Role = &r
	}

	if raw := ctx.Query("isActive"); raw != "" {
		b, err := strconv.ParseBool(strings.ToLower(raw))
		if err != nil {
			fields = append(fields, FieldError{Field: "isActive", Rule: "boolean", Message: "must be true or false"})
		}
		q.Filter.IsActive = &b
	}

	// blank search means no search
	if raw := ctx.Query("search"); strings.TrimSpace(raw) != "" {
		q.Filter.Search = &raw
	}

	return q, fields
}
