package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
)

// AccountsRepo keeps accounts in process memory. The email index is updated under the same
// lock as the records, which makes the uniqueness check atomic.
type AccountsRepo struct {
	mu      sync.RWMutex
	items   map[string]account.Account // id -> account
	byEmail map[string]string          // email -> id
}

func NewAccountsRepo() *AccountsRepo {
	return &AccountsRepo{
		items:   make(map[string]account.Account),
		byEmail: make(map[string]string),
	}
}

func (r *AccountsRepo) FindByEmail(_ context.Context, email string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return r.items[id], nil
}

func (r *AccountsRepo) FindByID(_ context.Context, id string) (account.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func (r *AccountsRepo) Create(_ context.Context, a account.Account) (account.Account, error) {
	if err := account.CheckColumns(a.Columns()); err != nil {
		return account.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[a.Email]; taken {
		return account.Account{}, account.ErrDuplicateEmail
	}

	r.items[a.ID] = a
	r.byEmail[a.Email] = a.ID
	return a, nil
}

func (r *AccountsRepo) Update(_ context.Context, a account.Account) (account.Account, error) {
	if err := account.CheckColumns(a.Columns()); err != nil {
		return account.Account{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.items[a.ID]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	if a.Email != cur.Email {
		if owner, taken := r.byEmail[a.Email]; taken && owner != a.ID {
			return account.Account{}, account.ErrDuplicateEmail
		}
		delete(r.byEmail, cur.Email)
		r.byEmail[a.Email] = a.ID
	}

	a.CreatedAt = cur.CreatedAt
	r.items[a.ID] = a
	return a, nil
}

func (r *AccountsRepo) SetActive(_ context.Context, id string, active bool, at time.Time) (account.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.items[id]
	if !ok {
		return account.Account{}, account.ErrNotFound
	}

	a.IsActive = active
	a.UpdatedAt = at
	r.items[id] = a
	return a, nil
}

func (r *AccountsRepo) Count(_ context.Context, f account.Filter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, a := range r.items {
		if f.Matches(a) {
			n++
		}
	}
	return n, nil
}

func (r *AccountsRepo) List(_ context.Context, f account.Filter, skip, take int) ([]account.Account, error) {
	r.mu.RLock()
	out := make([]account.Account, 0, len(r.items))
	for _, a := range r.items {
		if f.Matches(a) {
			out = append(out, a)
		}
	}
	r.mu.RUnlock()

	// newest first, id as tie breaker so pages are stable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if skip >= len(out) {
		return []account.Account{}, nil
	}
	end := skip + take
	if take <= 0 || end > len(out) {
		end = len(out)
	}
	return out[skip:end], nil
}

func (r *AccountsRepo) GroupCountByRole(_ context.Context) (map[account.Role]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[account.Role]int)
	for _, a := range r.items {
		out[a.Role()]++
	}
	return out, nil
}
