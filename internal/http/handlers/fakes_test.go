package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/http/middlewares"
	"github.com/geocoder89/medid/internal/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Make sure Gin does not spam the console during the test

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAccounts implements both handler service interfaces; unset functions return zero values.
type fakeAccounts struct {
	registerFn     func(ctx context.Context, in account.NewAccount) (identity.Session, error)
	authenticateFn func(ctx context.Context, email, password string) (identity.Session, error)
	getFn          func(ctx context.Context, id string) (account.Account, error)
	listFn         func(ctx context.Context, q account.ListQuery) (account.Page, error)
	createFn       func(ctx context.Context, in account.NewAccount) (account.Account, error)
	updateFn       func(ctx context.Context, id string, p account.Patch) (account.Account, error)
	deleteFn       func(ctx context.Context, id, callerID string) error
	reactivateFn   func(ctx context.Context, id string) (account.Account, error)
	statsFn        func(ctx context.Context) (account.Stats, error)
}

func (f *fakeAccounts) Register(ctx context.Context, in account.NewAccount) (identity.Session, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, in)
	}
	return identity.Session{}, nil
}

func (f *fakeAccounts) Authenticate(ctx context.Context, email, password string) (identity.Session, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, email, password)
	}
	return identity.Session{}, nil
}

func (f *fakeAccounts) GetProfile(ctx context.Context, id string) (account.Account, error) {
	if f.getFn != nil {
		return f.getFn(ctx, id)
	}
	return account.Account{}, nil
}

func (f *fakeAccounts) ListAccounts(ctx context.Context, q account.ListQuery) (account.Page, error) {
	if f.listFn != nil {
		return f.listFn(ctx, q)
	}
	return account.Page{}, nil
}

func (f *fakeAccounts) AdminCreateAccount(ctx context.Context, in account.NewAccount) (account.Account, error) {
	if f.createFn != nil {
		return f.createFn(ctx, in)
	}
	return account.Account{}, nil
}

func (f *fakeAccounts) AdminUpdateAccount(ctx context.Context, id string, p account.Patch) (account.Account, error) {
	if f.updateFn != nil {
		return f.updateFn(ctx, id, p)
	}
	return account.Account{}, nil
}

func (f *fakeAccounts) AdminSoftDeleteAccount(ctx context.Context, id, callerID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id, callerID)
	}
	return nil
}

func (f *fakeAccounts) AdminReactivateAccount(ctx context.Context, id string) (account.Account, error) {
	if f.reactivateFn != nil {
		return f.reactivateFn(ctx, id)
	}
	return account.Account{}, nil
}

func (f *fakeAccounts) AdminAccountStats(ctx context.Context) (account.Stats, error) {
	if f.statsFn != nil {
		return f.statsFn(ctx)
	}
	return account.Stats{}, nil
}

type envelope struct {
	Success   bool                 `json:"success"`
	Message   string               `json:"message"`
	Data      json.RawMessage      `json:"data"`
	Errors    []account.FieldError `json:"errors"`
	RequestID string               `json:"requestId"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to unmarshal response: %v body=%s", err, w.Body.String())
	}
	return env
}

// withIdentity stands in for the auth middleware.
func withIdentity(id auth.Identity) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middlewares.CtxIdentity, id)
		c.Next()
	}
}

// small helper function which returns the gin engine to mount one handler per test

func setupRouter(method, path string, h ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Handle(method, path, h...)

	return r
}

func do(r *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func str(s string) *string { return &s }

func sampleHospital() account.Account {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return account.Account{
		ID:           uuid.NewString(),
		Email:        "contact@chu.fr",
		PasswordHash: "$2a$12$secret",
		FirstName:    "Luc",
		LastName:     "Petit",
		Phone:        str("+331-234-56789"),
		IsActive:     true,
		Profile:      account.HospitalProfile{Name: "CHU Lyon", Address: "1 quai", LicenseNumber: "H-1"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
