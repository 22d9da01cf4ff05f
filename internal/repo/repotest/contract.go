// Package repotest holds the behaviour every account repository must share.
// Each storage package runs it against its own implementation.
package repotest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func str(s string) *string { return &s }

// NewAccount builds a valid, storable account. Offsets order accounts by creation time.
func NewAccount(email string, p account.Profile, offset time.Duration) account.Account {
	at := base.Add(offset)
	return account.Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$04$hash",
		FirstName:    "Jean",
		LastName:     "Martin",
		IsActive:     true,
		Profile:      p,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// Run exercises the repository contract. newRepo must return an empty repository.
func Run(t *testing.T, newRepo func(t *testing.T) identity.Repository) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newRepo(t)) })
	t.Run("DuplicateEmail", func(t *testing.T) { testDuplicateEmail(t, newRepo(t)) })
	t.Run("ConcurrentDuplicateEmail", func(t *testing.T) { testConcurrentDuplicate(t, newRepo(t)) })
	t.Run("UpdateReplacesProfile", func(t *testing.T) { testUpdateReplacesProfile(t, newRepo(t)) })
	t.Run("BlankRequiredColumns", func(t *testing.T) { testBlankRequiredColumns(t, newRepo(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, newRepo(t)) })
	t.Run("SetActive", func(t *testing.T) { testSetActive(t, newRepo(t)) })
	t.Run("ListFiltersAndOrder", func(t *testing.T) { testListFiltersAndOrder(t, newRepo(t)) })
	t.Run("GroupCountByRole", func(t *testing.T) { testGroupCountByRole(t, newRepo(t)) })
}

func testCreateAndFind(t *testing.T, repo identity.Repository) {
	ctx := context.Background()
	dob := time.Date(1990, 5, 17, 0, 0, 0, 0, time.UTC)

	a := NewAccount("marie@example.com", account.PatientProfile{DateOfBirth: &dob, Address: str("1 rue")}, 0)
	a.Phone = str("+331-234-56789")

	created, err := repo.Create(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, a.ID, created.ID)

	byEmail, err := repo.FindByEmail(ctx, "marie@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, byEmail.ID)
	assert.Equal(t, account.RolePatient, byEmail.Role())
	assert.Equal(t, "+331-234-56789", *byEmail.Phone)

	p := byEmail.Profile.(account.PatientProfile)
	require.NotNil(t, p.DateOfBirth)
	assert.True(t, dob.Equal(*p.DateOfBirth))
	assert.Equal(t, "1 rue", *p.Address)
	assert.True(t, a.CreatedAt.Equal(byEmail.CreatedAt))

	_, err = repo.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func testDuplicateEmail(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	_, err := repo.Create(ctx, NewAccount("dup@example.com", account.AdminProfile{}, 0))
	require.NoError(t, err)

	_, err = repo.Create(ctx, NewAccount("dup@example.com", account.PatientProfile{}, time.Second))
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)

	other, err := repo.Create(ctx, NewAccount("other@example.com", account.PatientProfile{}, 2*time.Second))
	require.NoError(t, err)

	other.Email = "dup@example.com"
	_, err = repo.Update(ctx, other)
	assert.ErrorIs(t, err, account.ErrDuplicateEmail)
}

func testConcurrentDuplicate(t *testing.T, repo identity.Repository) {
	ctx := context.Background()
	const writers = 8

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok, dup int
	)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, NewAccount("race@example.com", account.PatientProfile{}, time.Duration(i)*time.Millisecond))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, account.ErrDuplicateEmail):
				dup++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, dup)
}

func testUpdateReplacesProfile(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	a, err := repo.Create(ctx, NewAccount("chu@example.com", account.HospitalProfile{
		Name: "CHU", Address: "1 quai", LicenseNumber: "H-1",
	}, 0))
	require.NoError(t, err)

	dob := time.Date(1985, 1, 2, 0, 0, 0, 0, time.UTC)
	a.Profile = account.PatientProfile{DateOfBirth: &dob}
	a.UpdatedAt = a.UpdatedAt.Add(time.Minute)

	updated, err := repo.Update(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, account.RolePatient, updated.Role())

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)

	c := stored.Columns()
	assert.Nil(t, c.HospitalName)
	assert.Nil(t, c.HospitalAddress)
	assert.Nil(t, c.LicenseNumber)
	require.NotNil(t, c.DateOfBirth)
	assert.True(t, dob.Equal(*c.DateOfBirth))
	assert.True(t, a.CreatedAt.Equal(stored.CreatedAt))
	assert.True(t, a.UpdatedAt.Equal(stored.UpdatedAt))
}

func testBlankRequiredColumns(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	_, err := repo.Create(ctx, NewAccount("blank@example.com", account.HospitalProfile{}, 0))
	require.ErrorIs(t, err, account.ErrValidation)

	a, err := repo.Create(ctx, NewAccount("p@example.com", account.PatientProfile{}, time.Second))
	require.NoError(t, err)

	a.Profile = account.LabProfile{Name: "Bio"}
	_, err = repo.Update(ctx, a)
	require.ErrorIs(t, err, account.ErrValidation)

	stored, err := repo.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, account.RolePatient, stored.Role())
}

func testUpdateMissing(t *testing.T, repo identity.Repository) {
	_, err := repo.Update(context.Background(), NewAccount("ghost@example.com", account.AdminProfile{}, 0))
	assert.ErrorIs(t, err, account.ErrNotFound)

	_, err = repo.SetActive(context.Background(), uuid.NewString(), false, base)
	assert.ErrorIs(t, err, account.ErrNotFound)
}

func testSetActive(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	a, err := repo.Create(ctx, NewAccount("lab@example.com", account.LabProfile{Name: "Bio", Address: "2 rue", License: "L-1"}, 0))
	require.NoError(t, err)

	at := base.Add(time.Hour)
	off, err := repo.SetActive(ctx, a.ID, false, at)
	require.NoError(t, err)
	assert.False(t, off.IsActive)
	assert.True(t, at.Equal(off.UpdatedAt))
	assert.Equal(t, account.LabProfile{Name: "Bio", Address: "2 rue", License: "L-1"}, off.Profile)

	on, err := repo.SetActive(ctx, a.ID, true, at.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, on.IsActive)
}

func testListFiltersAndOrder(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	seed := []account.Account{
		NewAccount("marie.durand@example.com", account.PatientProfile{}, 1*time.Minute),
		NewAccount("contact@chu.fr", account.HospitalProfile{Name: "Clinique Durand", Address: "a", LicenseNumber: "h"}, 2*time.Minute),
		NewAccount("lab@bio.fr", account.LabProfile{Name: "DURAND Analyses", Address: "b", License: "l"}, 3*time.Minute),
		NewAccount("zoe@example.com", account.PatientProfile{}, 4*time.Minute),
		NewAccount("100%_real@example.com", account.PatientProfile{}, 5*time.Minute),
	}
	seed[3].LastName = "Durand"
	seed[3].IsActive = false

	for _, a := range seed {
		_, err := repo.Create(ctx, a)
		require.NoError(t, err)
	}

	all, err := repo.List(ctx, account.Filter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "not newest first")
	}
	assert.Equal(t, seed[4].ID, all[0].ID)

	search := "durand"
	f := account.Filter{Search: &search}
	n, err := repo.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	active := true
	f.IsActive = &active
	n, err = repo.Count(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	role := account.RoleLab
	f.Role = &role
	items, err := repo.List(ctx, f, 0, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, seed[2].ID, items[0].ID)

	wild := "%_"
	n, err = repo.Count(ctx, account.Filter{Search: &wild})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "wildcards must match literally")

	page, err := repo.List(ctx, account.Filter{}, 4, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, seed[0].ID, page[0].ID)
}

func testGroupCountByRole(t *testing.T, repo identity.Repository) {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.Create(ctx, NewAccount(fmt.Sprintf("p%d@example.com", i), account.PatientProfile{}, time.Duration(i)*time.Second))
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, NewAccount("admin@example.com", account.AdminProfile{}, time.Minute))
	require.NoError(t, err)

	got, err := repo.GroupCountByRole(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[account.Role]int{account.RolePatient: 3, account.RoleAdmin: 1}, got)
}
