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
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var adminID = uuid.NewString()

func adminRouter(svc *fakeAccounts) *gin.Engine {
	h := handlers.NewAccountsHandler(svc)

	r := gin.New()
	users := r.Group("/api/users", withIdentity(auth.Identity{AccountID: adminID, Role: account.RoleAdmin}))
	users.GET("", h.List)
	users.GET("/stats", h.Stats)
	users.GET("/:id", h.Get)
	users.POST("", h.Create)
	users.PUT("/:id", h.Update)
	users.DELETE("/:id", h.Delete)
	users.PATCH("/:id/reactivate", h.Reactivate)
	return r
}

func TestListHandler_QueryParsing(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantStatus int
		check      func(t *testing.T, q account.ListQuery)
	}{
		{
			name:       "defaults",
			target:     "/api/users",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, q account.ListQuery) {
				if q.Page != 1 || q.PageSize != 10 {
					t.Fatalf("defaults: got page=%d limit=%d", q.Page, q.PageSize)
				}
				if q.Filter.Role != nil || q.Filter.IsActive != nil || q.Filter.Search != nil {
					t.Fatalf("no filter expected: %+v", q.Filter)
				}
			},
		},
		{
			name:       "all filters",
			target:     "/api/users?page=3&limit=25&role=hopital&isActive=false&search=durand",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, q account.ListQuery) {
				if q.Page != 3 || q.PageSize != 25 {
					t.Fatalf("paging: got page=%d limit=%d", q.Page, q.PageSize)
				}
				if *q.Filter.Role != account.RoleHospital {
					t.Fatalf("role: got %q", *q.Filter.Role)
				}
				if *q.Filter.IsActive {
					t.Fatalf("isActive should be false")
				}
				if *q.Filter.Search != "durand" {
					t.Fatalf("search: got %q", *q.Filter.Search)
				}
			},
		},
		{
			name:       "blank search is ignored",
			target:     "/api/users?search=%20%20",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, q account.ListQuery) {
				if q.Filter.Search != nil {
					t.Fatalf("blank search should be dropped")
				}
			},
		},
		{name: "non numeric page", target: "/api/users?page=two", wantStatus: http.StatusBadRequest},
		{name: "unknown role", target: "/api/users?role=NURSE", wantStatus: http.StatusBadRequest},
		{name: "bad boolean", target: "/api/users?isActive=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got account.ListQuery
			called := false

			r := adminRouter(&fakeAccounts{
				listFn: func(_ context.Context, q account.ListQuery) (account.Page, error) {
					called = true
					got = q
					return account.Page{Pagination: account.NewPagination(q.Page, q.PageSize, 0)}, nil
				},
			})

			w := do(r, http.MethodGet, tt.target, "")

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.check != nil {
				if !called {
					t.Fatalf("service not called")
				}
				tt.check(t, got)
			}
			if tt.wantStatus == http.StatusBadRequest && called {
				t.Fatalf("service should not be called on bad query")
			}
		})
	}
}

func TestListHandler_ReturnsSummaries(t *testing.T) {
	a := sampleHospital()

	r := adminRouter(&fakeAccounts{
		listFn: func(_ context.Context, q account.ListQuery) (account.Page, error) {
			return account.Page{Items: []account.Account{a}, Pagination: account.NewPagination(1, 10, 1)}, nil
		},
	})

	w := do(r, http.MethodGet, "/api/users", "")
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var data struct {
		Users      []map[string]any   `json:"users"`
		Pagination account.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(decode(t, w).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}

	if len(data.Users) != 1 || data.Pagination.TotalCount != 1 {
		t.Fatalf("unexpected page: %+v", data)
	}
	if _, ok := data.Users[0]["licenseNumber"]; ok {
		t.Fatalf("list should only carry the summary view: %+v", data.Users[0])
	}
	if data.Users[0]["hospitalName"] != "CHU Lyon" {
		t.Fatalf("summary should carry the hospital name: %+v", data.Users[0])
	}
}

func TestAccountHandlers_ErrorMapping(t *testing.T) {
	id := uuid.NewString()

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		svc        *fakeAccounts
		wantStatus int
		wantMsg    string
	}{
		{
			name:   "get missing",
			method: http.MethodGet, target: "/api/users/" + id,
			svc: &fakeAccounts{getFn: func(context.Context, string) (account.Account, error) {
				return account.Account{}, account.ErrNotFound
			}},
			wantStatus: http.StatusNotFound, wantMsg: "User not found",
		},
		{
			name:   "malformed id",
			method: http.MethodGet, target: "/api/users/not-a-uuid",
			svc:        &fakeAccounts{},
			wantStatus: http.StatusBadRequest, wantMsg: "Invalid data",
		},
		{
			name:   "update duplicate email",
			method: http.MethodPut, target: "/api/users/" + id, body: `{"email":"taken@example.com"}`,
			svc: &fakeAccounts{updateFn: func(context.Context, string, account.Patch) (account.Account, error) {
				return account.Account{}, account.ErrDuplicateEmail
			}},
			wantStatus: http.StatusBadRequest, wantMsg: "Email is already in use",
		},
		{
			name:   "self deletion",
			method: http.MethodDelete, target: "/api/users/" + adminID,
			svc: &fakeAccounts{deleteFn: func(_ context.Context, id, caller string) error {
				if id == caller {
					return identity.ErrSelfDeletionForbidden
				}
				return nil
			}},
			wantStatus: http.StatusBadRequest, wantMsg: "You cannot delete your own account",
		},
		{
			name:   "reactivate missing",
			method: http.MethodPatch, target: "/api/users/" + id + "/reactivate",
			svc: &fakeAccounts{reactivateFn: func(context.Context, string) (account.Account, error) {
				return account.Account{}, account.ErrNotFound
			}},
			wantStatus: http.StatusNotFound, wantMsg: "User not found",
		},
		{
			name:   "stats failure",
			method: http.MethodGet, target: "/api/users/stats",
			svc: &fakeAccounts{statsFn: func(context.Context) (account.Stats, error) {
				return account.Stats{}, errors.Join(identity.ErrInternal, errors.New("timeout"))
			}},
			wantStatus: http.StatusInternalServerError, wantMsg: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(adminRouter(tt.svc), tt.method, tt.target, tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			resp := decode(t, w)
			if resp.Success || resp.Message != tt.wantMsg {
				t.Fatalf("unexpected envelope: %+v", resp)
			}
		})
	}
}

func TestUpdateHandler_PassesTriStatePatch(t *testing.T) {
	id := uuid.NewString()
	var got account.Patch

	r := adminRouter(&fakeAccounts{
		updateFn: func(_ context.Context, gotID string, p account.Patch) (account.Account, error) {
			if gotID != id {
				t.Errorf("id: got %q", gotID)
			}
			got = p
			return sampleHospital(), nil
		},
	})

	w := do(r, http.MethodPut, "/api/users/"+id, `{"role":"PATIENT","phone":null,"address":"5 place Bellecour","isActive":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if !got.Role.Present() || got.Role.Value != account.RolePatient {
		t.Fatalf("role: %+v", got.Role)
	}
	if !got.Phone.Set || !got.Phone.Null {
		t.Fatalf("phone should be an explicit null: %+v", got.Phone)
	}
	if got.Email.Set || got.DateOfBirth.Set {
		t.Fatalf("absent fields must stay unset")
	}
	if !got.Address.Present() || got.Address.Value != "5 place Bellecour" {
		t.Fatalf("address: %+v", got.Address)
	}
	if !got.IsActive.Present() || got.IsActive.Value {
		t.Fatalf("isActive: %+v", got.IsActive)
	}
	if decode(t, w).Message != "User updated" {
		t.Fatalf("unexpected message: %s", w.Body.String())
	}
}

func TestCreateHandler_HonoursIsActive(t *testing.T) {
	var got account.NewAccount

	r := adminRouter(&fakeAccounts{
		createFn: func(_ context.Context, in account.NewAccount) (account.Account, error) {
			got = in
			return sampleHospital(), nil
		},
	})

	w := do(r, http.MethodPost, "/api/users", `{"email":"p@example.com","role":"PATIENT","isActive":false}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}
	if got.IsActive == nil || *got.IsActive {
		t.Fatalf("isActive should be passed through as false")
	}
}

func TestDeleteAndStatsHandlers(t *testing.T) {
	target := uuid.NewString()
	var caller string

	r := adminRouter(&fakeAccounts{
		deleteFn: func(_ context.Context, id, callerID string) error {
			caller = callerID
			return nil
		},
		statsFn: func(context.Context) (account.Stats, error) {
			return account.Stats{Total: 3, Active: 2, Inactive: 1, CountsByRole: map[account.Role]int{account.RolePatient: 3}}, nil
		},
	})

	w := do(r, http.MethodDelete, "/api/users/"+target, "")
	if w.Code != http.StatusOK || caller != adminID {
		t.Fatalf("delete: status %d caller %q", w.Code, caller)
	}

	w = do(r, http.MethodGet, "/api/users/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: got status %d", w.Code)
	}

	body := string(decode(t, w).Data)
	for _, key := range []string{`"totalUsers":3`, `"activeUsers":2`, `"inactiveUsers":1`, `"roleStats":{"PATIENT":3}`} {
		if !strings.Contains(body, key) {
			t.Fatalf("stats body missing %s: %s", key, body)
		}
	}
}
