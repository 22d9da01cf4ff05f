package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/geocoder89/medid/internal/auth"
	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/http/handlers"
	"github.com/geocoder89/medid/internal/identity"
)

func TestRegisterHandler(t *testing.T) {
	created := sampleHospital()

	tests := []struct {
		name       string
		body       string
		registerFn func(ctx context.Context, in account.NewAccount) (identity.Session, error)
		wantStatus int
		wantMsg    string
	}{
		{
			name: "created",
			body: `{"email":"contact@chu.fr","password":"Secret123","role":"HOSPITAL","firstName":"Luc","lastName":"Petit","hospitalName":"CHU Lyon","hospitalAddress":"1 quai","licenseNumber":"H-1"}`,
			registerFn: func(_ context.Context, in account.NewAccount) (identity.Session, error) {
				if in.Role != account.RoleHospital || *in.Attributes.HospitalName != "CHU Lyon" {
					return identity.Session{}, errors.New("unexpected input")
				}
				return identity.Session{Account: created, Token: "signed"}, nil
			},
			wantStatus: http.StatusCreated,
			wantMsg:    "Registration successful",
		},
		{
			name: "validation errors are listed",
			body: `{"email":"bad","password":"short","role":"HOSPITAL","firstName":"L","lastName":"Petit"}`,
			registerFn: func(_ context.Context, in account.NewAccount) (identity.Session, error) {
				_, err := in.Prepare()
				return identity.Session{}, err
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Invalid data",
		},
		{
			name: "duplicate email",
			body: `{"email":"contact@chu.fr"}`,
			registerFn: func(context.Context, account.NewAccount) (identity.Session, error) {
				return identity.Session{}, account.ErrDuplicateEmail
			},
			wantStatus: http.StatusBadRequest,
			wantMsg:    "Email is already in use",
		},
		{
			name: "internal failure hides the cause",
			body: `{"email":"contact@chu.fr"}`,
			registerFn: func(context.Context, account.NewAccount) (identity.Session, error) {
				return identity.Session{}, errors.Join(identity.ErrInternal, errors.New("pq: connection refused"))
			},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(&fakeAccounts{registerFn: tt.registerFn})
			r := setupRouter(http.MethodPost, "/api/auth/register", h.Register)

			w := do(r, http.MethodPost, "/api/auth/register", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode(t, w)
			if resp.Message != tt.wantMsg {
				t.Fatalf("message: got %q want %q", resp.Message, tt.wantMsg)
			}
			if strings.Contains(w.Body.String(), "connection refused") {
				t.Fatalf("internal details leaked: %s", w.Body.String())
			}
		})
	}
}

func TestRegisterHandler_ReportsEveryField(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeAccounts{
		registerFn: func(_ context.Context, in account.NewAccount) (identity.Session, error) {
			_, err := in.Prepare()
			return identity.Session{}, err
		},
	})
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w := do(r, http.MethodPost, "/register", `{"email":"bad","password":"short","role":"HOSPITAL","firstName":"L","lastName":"Petit"}`)
	resp := decode(t, w)

	got := map[string]bool{}
	for _, f := range resp.Errors {
		got[f.Field] = true
	}

	for _, field := range []string{"email", "password", "firstName", "hospitalName", "hospitalAddress", "licenseNumber"} {
		if !got[field] {
			t.Fatalf("missing error for %q in %+v", field, resp.Errors)
		}
	}
}

func TestRegisterHandler_ResponseNeverCarriesHash(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeAccounts{
		registerFn: func(context.Context, account.NewAccount) (identity.Session, error) {
			return identity.Session{Account: sampleHospital(), Token: "signed"}, nil
		},
	})
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w := do(r, http.MethodPost, "/register", `{}`)

	var data struct {
		User  map[string]any `json:"user"`
		Token string         `json:"token"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if data.Token != "signed" {
		t.Fatalf("token: got %q", data.Token)
	}
	if data.User["hospitalName"] != "CHU Lyon" {
		t.Fatalf("profile fields missing: %+v", data.User)
	}
	if strings.Contains(w.Body.String(), "$2a$") || strings.Contains(strings.ToLower(w.Body.String()), "password") {
		t.Fatalf("password material leaked: %s", w.Body.String())
	}
}

func TestLoginHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "ok", body: `{"email":"contact@chu.fr","password":"Secret123"}`, wantStatus: http.StatusOK},
		{name: "bad credentials", body: `{"email":"contact@chu.fr","password":"nope"}`, err: identity.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "missing password", body: `{"email":"contact@chu.fr"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(&fakeAccounts{
				authenticateFn: func(context.Context, string, string) (identity.Session, error) {
					if tt.err != nil {
						return identity.Session{}, tt.err
					}
					return identity.Session{Account: sampleHospital(), Token: "signed"}, nil
				},
			})
			r := setupRouter(http.MethodPost, "/login", h.Login)

			w := do(r, http.MethodPost, "/login", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.err != nil && decode(t, w).Message != "Email or password is incorrect" {
				t.Fatalf("unexpected message: %s", w.Body.String())
			}
		})
	}
}

func TestProfileHandler(t *testing.T) {
	a := sampleHospital()

	h := handlers.NewAuthHandler(&fakeAccounts{
		getFn: func(_ context.Context, id string) (account.Account, error) {
			if id != a.ID {
				return account.Account{}, account.ErrNotFound
			}
			return a, nil
		},
	})

	r := setupRouter(http.MethodGet, "/profile", withIdentity(auth.Identity{AccountID: a.ID, Role: account.RoleHospital}), h.Profile)
	if w := do(r, http.MethodGet, "/profile", ""); w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	gone := setupRouter(http.MethodGet, "/profile", withIdentity(auth.Identity{AccountID: "other", Role: account.RolePatient}), h.Profile)
	if w := do(gone, http.MethodGet, "/profile", ""); w.Code != http.StatusNotFound {
		t.Fatalf("deleted account: got status %d", w.Code)
	}

	anonymous := setupRouter(http.MethodGet, "/profile", h.Profile)
	if w := do(anonymous, http.MethodGet, "/profile", ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: got status %d", w.Code)
	}
}

func TestLogoutHandler_AlwaysSucceeds(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeAccounts{})
	r := setupRouter(http.MethodPost, "/logout", h.Logout)

	w := do(r, http.MethodPost, "/logout", "")
	if w.Code != http.StatusOK || !decode(t, w).Success {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
}
