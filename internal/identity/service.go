package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/google/uuid"
)

// Session is an authenticated account with its signed token.
type Session struct {
	Account account.Account
	Token   string
}

type Service struct {
	repo    Repository
	hasher  PasswordHasher
	tokens  TokenIssuer
	stats   StatsCache
	metrics Recorder
	log     *slog.Logger

	now              func() time.Time
	newID            func() string
	allowAdminSignup bool

	// hash compared against on unknown emails so every failed login costs one bcrypt comparison
	dummyOnce sync.Once
	dummyHash string
}

type Option func(*Service)

func WithStatsCache(c StatsCache) Option {
	return func(s *Service) {
		if c != nil {
			s.stats = c
		}
	}
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithAdminSignup controls whether self-registration may create ADMIN accounts.
func WithAdminSignup(allow bool) Option {
	return func(s *Service) { s.allowAdminSignup = allow }
}

func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		repo:             repo,
		hasher:           hasher,
		tokens:           tokens,
		stats:            noopStatsCache{},
		metrics:          noopRecorder{},
		log:              log,
		now:              time.Now,
		newID:            uuid.NewString,
		allowAdminSignup: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Register creates an active account and signs a token for it.
func (s *Service) Register(ctx context.Context, in account.NewAccount) (Session, error) {
	if in.Role == account.RoleAdmin && !s.allowAdminSignup {
		v := &account.ValidationError{}
		v.Add("role", "oneof", "PATIENT HOSPITAL LAB", "administrator accounts cannot be self-registered")
		s.record("register", "invalid")
		return Session{}, v
	}

	in.IsActive = nil

	a, err := s.create(ctx, "register", in)
	if err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(a.ID, a.Role())
	if err != nil {
		return Session{}, s.internal(ctx, "register.issue_token", err)
	}

	return Session{Account: a, Token: token}, nil
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (Session, error) {
	email = account.NormalizeEmail(email)

	a, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, account.ErrNotFound) {
			s.hasher.Verify(password, s.fallbackHash())
			s.record("login", "rejected")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, s.internal(ctx, "login.find", err)
	}

	if !a.IsActive {
		s.hasher.Verify(password, s.fallbackHash())
		s.record("login", "rejected")
		return Session{}, ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, a.PasswordHash) {
		s.record("login", "rejected")
		return Session{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(a.ID, a.Role())
	if err != nil {
		return Session{}, s.internal(ctx, "login.issue_token", err)
	}

	s.record("login", "ok")
	return Session{Account: a, Token: token}, nil
}

func (s *Service) GetProfile(ctx context.Context, id string) (account.Account, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return account.Account{}, s.storeErr(ctx, "profile.find", err)
	}
	return a, nil
}

func (s *Service) ListAccounts(ctx context.Context, q account.ListQuery) (account.Page, error) {
	if err := q.Validate(); err != nil {
		return account.Page{}, err
	}

	f := q.Filter
	if f.Search != nil {
		search := strings.TrimSpace(*f.Search)
		f.Search = &search
	}

	total, err := s.repo.Count(ctx, f)
	if err != nil {
		return account.Page{}, s.internal(ctx, "list.count", err)
	}

	items, err := s.repo.List(ctx, f, q.Offset(), q.PageSize)
	if err != nil {
		return account.Page{}, s.internal(ctx, "list.find", err)
	}

	return account.Page{
		Items:      items,
		Pagination: account.NewPagination(q.Page, q.PageSize, total),
	}, nil
}

// AdminCreateAccount follows the registration path but honours an explicit active flag
// and signs no token.
func (s *Service) AdminCreateAccount(ctx context.Context, in account.NewAccount) (account.Account, error) {
	return s.create(ctx, "admin_create", in)
}

// AdminUpdateAccount applies a partial update. A role change replaces the profile, so the
// new role's required attributes must be part of the same patch.
func (s *Service) AdminUpdateAccount(ctx context.Context, id string, p account.Patch) (account.Account, error) {
	changes, err := p.Check()
	if err != nil {
		s.record("admin_update", "invalid")
		return account.Account{}, err
	}

	cur, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return account.Account{}, s.storeErr(ctx, "admin_update.find", err)
	}

	profile := cur.Profile
	if changes.Role != nil && *changes.Role != cur.Role() {
		profile, _ = account.EmptyProfile(*changes.Role)
	}

	profile, err = account.ApplyAttributes(profile, p.AttributePatch)
	if err != nil {
		s.record("admin_update", "invalid")
		return account.Account{}, err
	}

	next := cur
	next.Profile = profile

	if changes.Email != nil && *changes.Email != cur.Email {
		if err := s.ensureEmailFree(ctx, *changes.Email, cur.ID); err != nil {
			return account.Account{}, err
		}
		next.Email = *changes.Email
	}

	if changes.Password != nil {
		hash, err := s.hasher.Hash(*changes.Password)
		if err != nil {
			return account.Account{}, s.internal(ctx, "admin_update.hash", err)
		}
		next.PasswordHash = hash
	}

	if changes.FirstName != nil {
		next.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		next.LastName = *changes.LastName
	}
	switch {
	case changes.ClearPhone:
		next.Phone = nil
	case changes.Phone != nil:
		next.Phone = changes.Phone
	}
	if changes.IsActive != nil {
		next.IsActive = *changes.IsActive
	}

	next.UpdatedAt = s.now().UTC()

	updated, err := s.repo.Update(ctx, next)
	if err != nil {
		return account.Account{}, s.storeErr(ctx, "admin_update.save", err)
	}

	s.stats.Invalidate(ctx)
	s.record("admin_update", "ok")
	return updated, nil
}

// AdminSoftDeleteAccount deactivates an account. Administrators cannot deactivate themselves.
func (s *Service) AdminSoftDeleteAccount(ctx context.Context, id, callerID string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return s.storeErr(ctx, "admin_delete.find", err)
	}

	if id == callerID {
		s.record("admin_delete", "invalid")
		return ErrSelfDeletionForbidden
	}

	if _, err := s.repo.SetActive(ctx, id, false, s.now().UTC()); err != nil {
		return s.storeErr(ctx, "admin_delete.save", err)
	}

	s.stats.Invalidate(ctx)
	s.record("admin_delete", "ok")
	return nil
}

func (s *Service) AdminReactivateAccount(ctx context.Context, id string) (account.Account, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return account.Account{}, s.storeErr(ctx, "admin_reactivate.find", err)
	}

	a, err := s.repo.SetActive(ctx, id, true, s.now().UTC())
	if err != nil {
		return account.Account{}, s.storeErr(ctx, "admin_reactivate.save", err)
	}

	s.stats.Invalidate(ctx)
	s.record("admin_reactivate", "ok")
	return a, nil
}

func (s *Service) AdminAccountStats(ctx context.Context) (account.Stats, error) {
	if st, ok := s.stats.GetStats(ctx); ok {
		return st, nil
	}

	// read before counting so a write landing mid-computation keeps this snapshot out of the cache
	gen := s.stats.Generation(ctx)

	total, err := s.repo.Count(ctx, account.Filter{})
	if err != nil {
		return account.Stats{}, s.internal(ctx, "stats.count", err)
	}

	active := true
	activeCount, err := s.repo.Count(ctx, account.Filter{IsActive: &active})
	if err != nil {
		return account.Stats{}, s.internal(ctx, "stats.count_active", err)
	}

	byRole, err := s.repo.GroupCountByRole(ctx)
	if err != nil {
		return account.Stats{}, s.internal(ctx, "stats.group_by_role", err)
	}

	st := account.Stats{
		Total:        total,
		Active:       activeCount,
		Inactive:     total - activeCount,
		CountsByRole: byRole,
	}

	s.stats.SetStats(ctx, gen, st)
	return st, nil
}

func (s *Service) create(ctx context.Context, op string, in account.NewAccount) (account.Account, error) {
	a, err := in.Prepare()
	if err != nil {
		s.record(op, "invalid")
		return account.Account{}, err
	}

	// early exit only; the storage unique constraint is what actually guards concurrent writers
	if err := s.ensureEmailFree(ctx, a.Email, ""); err != nil {
		return account.Account{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return account.Account{}, s.internal(ctx, op+".hash", err)
	}

	now := s.now().UTC()
	a.ID = s.newID()
	a.PasswordHash = hash
	a.CreatedAt = now
	a.UpdatedAt = now

	created, err := s.repo.Create(ctx, a)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			s.record(op, "duplicate")
		}
		return account.Account{}, s.storeErr(ctx, op+".save", err)
	}

	s.stats.Invalidate(ctx)
	s.record(op, "ok")
	return created, nil
}

func (s *Service) ensureEmailFree(ctx context.Context, email, selfID string) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, account.ErrNotFound):
		return nil
	case err != nil:
		return s.internal(ctx, "email_check", err)
	case existing.ID != selfID:
		return account.ErrDuplicateEmail
	default:
		return nil
	}
}

// storeErr passes domain errors through and turns everything else into ErrInternal.
func (s *Service) storeErr(ctx context.Context, op string, err error) error {
	switch {
	case errors.Is(err, account.ErrNotFound):
		return account.ErrNotFound
	case errors.Is(err, account.ErrDuplicateEmail):
		return account.ErrDuplicateEmail
	case errors.Is(err, account.ErrValidation):
		return err
	default:
		return s.internal(ctx, op, err)
	}
}

func (s *Service) internal(ctx context.Context, op string, err error) error {
	s.log.ErrorContext(ctx, "account operation failed", "op", op, "err", err)
	s.record(op, "error")
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}

func (s *Service) record(op, result string) {
	s.metrics.RecordAccountOp(op, result)
}

func (s *Service) fallbackHash() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(uuid.NewString() + "Aa1")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}
