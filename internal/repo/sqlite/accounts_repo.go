package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/utils"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// timeLayout is fixed width and always UTC, so text ordering equals time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const selectAccount = `SELECT id, email, password_hash, first_name, last_name, phone, role, is_active,
	date_of_birth, address, hospital_name, hospital_address, license_number,
	lab_name, lab_address, lab_license, created_at, updated_at
	FROM users`

type AccountsRepo struct {
	db *sql.DB
}

func NewAccountsRepo(db *sql.DB) *AccountsRepo {
	return &AccountsRepo{db: db}
}

func (r *AccountsRepo) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE email = ?1`, email)
}

func (r *AccountsRepo) FindByID(ctx context.Context, id string) (account.Account, error) {
	return r.findOne(ctx, selectAccount+` WHERE id = ?1`, id)
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	c := a.Columns()
	if err := account.CheckColumns(c); err != nil {
		return account.Account{}, err
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active,
			date_of_birth, address, hospital_name, hospital_address, license_number,
			lab_name, lab_address, lab_license, created_at, updated_at)
		 VALUES (?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8, ?9, ?10, ?11, ?12, ?13, ?14, ?15, ?16, ?17, ?18)`,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(c.Role), a.IsActive,
		formatTimePtr(c.DateOfBirth), c.Address, c.HospitalName, c.HospitalAddress, c.LicenseNumber,
		c.LabName, c.LabAddress, c.LabLicense, formatTime(a.CreatedAt), formatTime(a.UpdatedAt),
	)
	if err != nil {
		return account.Account{}, mapErr(err)
	}

	return r.FindByID(ctx, a.ID)
}

// Update rewrites every column, so columns of other roles end up NULL.
func (r *AccountsRepo) Update(ctx context.Context, a account.Account) (account.Account, error) {
	c := a.Columns()
	if err := account.CheckColumns(c); err != nil {
		return account.Account{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?2, password_hash = ?3, first_name = ?4, last_name = ?5, phone = ?6,
			role = ?7, is_active = ?8, date_of_birth = ?9, address = ?10, hospital_name = ?11,
			hospital_address = ?12, license_number = ?13, lab_name = ?14, lab_address = ?15,
			lab_license = ?16, updated_at = ?17
		 WHERE id = ?1`,
		a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(c.Role), a.IsActive,
		formatTimePtr(c.DateOfBirth), c.Address, c.HospitalName, c.HospitalAddress, c.LicenseNumber,
		c.LabName, c.LabAddress, c.LabLicense, formatTime(a.UpdatedAt),
	)
	if err != nil {
		return account.Account{}, mapErr(err)
	}
	if err := expectOneRow(res); err != nil {
		return account.Account{}, err
	}

	return r.FindByID(ctx, a.ID)
}

func (r *AccountsRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) (account.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?2, updated_at = ?3 WHERE id = ?1`,
		id, active, formatTime(at),
	)
	if err != nil {
		return account.Account{}, err
	}
	if err := expectOneRow(res); err != nil {
		return account.Account{}, err
	}

	return r.FindByID(ctx, id)
}

func (r *AccountsRepo) Count(ctx context.Context, f account.Filter) (int, error) {
	where, args := utils.BuildAccountWhere(f, utils.NumberedPlaceholder)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *AccountsRepo) List(ctx context.Context, f account.Filter, skip, take int) ([]account.Account, error) {
	where, args := utils.BuildAccountWhere(f, utils.NumberedPlaceholder)

	query := selectAccount + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT ?%d OFFSET ?%d", len(args)+1, len(args)+2)
	args = append(args, take, skip)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]account.Account, 0, take)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	return out, rows.Err()
}

func (r *AccountsRepo) GroupCountByRole(ctx context.Context) (map[account.Role]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[account.Role]int)
	for rows.Next() {
		var role string
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[account.Role(role)] = n
	}

	return out, rows.Err()
}

func (r *AccountsRepo) findOne(ctx context.Context, query string, arg any) (account.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	return a, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (account.Account, error) {
	var (
		a                    account.Account
		c                    account.Columns
		role                 string
		dob                  sql.NullString
		createdAt, updatedAt string
	)

	err := s.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &role, &a.IsActive,
		&dob, &c.Address, &c.HospitalName, &c.HospitalAddress, &c.LicenseNumber,
		&c.LabName, &c.LabAddress, &c.LabLicense, &createdAt, &updatedAt,
	)
	if err != nil {
		return account.Account{}, err
	}

	c.Role = account.Role(role)
	if dob.Valid {
		t, err := time.Parse(timeLayout, dob.String)
		if err != nil {
			return account.Account{}, fmt.Errorf("parse date_of_birth: %w", err)
		}
		c.DateOfBirth = &t
	}

	if a.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return account.Account{}, fmt.Errorf("parse created_at: %w", err)
	}
	if a.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return account.Account{}, fmt.Errorf("parse updated_at: %w", err)
	}

	if a.Profile, err = c.Profile(); err != nil {
		return account.Account{}, err
	}

	return a, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

func mapErr(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return account.ErrDuplicateEmail
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed: users.email") {
		return account.ErrDuplicateEmail
	}
	return err
}
