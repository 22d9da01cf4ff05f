package identity

import (
	"context"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
)

// Repository is the storage contract for accounts. Implementations must enforce email
// uniqueness atomically and report a collision as account.ErrDuplicateEmail; a missing
// id or email is account.ErrNotFound.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (account.Account, error)
	FindByID(ctx context.Context, id string) (account.Account, error)
	Create(ctx context.Context, a account.Account) (account.Account, error)
	// Update writes the whole record, including NULLs for every column the profile does not carry.
	Update(ctx context.Context, a account.Account) (account.Account, error)
	SetActive(ctx context.Context, id string, active bool, at time.Time) (account.Account, error)
	Count(ctx context.Context, f account.Filter) (int, error)
	// List returns accounts ordered by creation time, newest first.
	List(ctx context.Context, f account.Filter, skip, take int) ([]account.Account, error)
	GroupCountByRole(ctx context.Context) (map[account.Role]int, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type TokenIssuer interface {
	Issue(accountID string, role account.Role) (string, error)
}

// StatsCache keeps the last computed statistics. Misses and cache failures are not fatal.
// Every Invalidate starts a new generation; SetStats drops a snapshot computed under an
// older generation than the current one.
type StatsCache interface {
	GetStats(ctx context.Context) (account.Stats, bool)
	Generation(ctx context.Context) int64
	SetStats(ctx context.Context, gen int64, s account.Stats)
	Invalidate(ctx context.Context)
}

// Recorder counts lifecycle outcomes, e.g. for Prometheus.
type Recorder interface {
	RecordAccountOp(op, result string)
}

type noopStatsCache struct{}

func (noopStatsCache) GetStats(context.Context) (account.Stats, bool) { return account.Stats{}, false }
func (noopStatsCache) Generation(context.Context) int64               { return 0 }
func (noopStatsCache) SetStats(context.Context, int64, account.Stats) {}
func (noopStatsCache) Invalidate(context.Context)                     {}

type noopRecorder struct{}

func (noopRecorder) RecordAccountOp(string, string) {}
