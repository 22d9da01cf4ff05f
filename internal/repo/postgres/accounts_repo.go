package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/medid/internal/domain/account"
	"github.com/geocoder89/medid/internal/observability"
	"github.com/geocoder89/medid/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const usersEmailKey = "users_email_key"

const selectAccount = `SELECT id, email, password_hash, first_name, last_name, phone, role, is_active,
	date_of_birth, address, hospital_name, hospital_address, license_number,
	lab_name, lab_address, lab_license, created_at, updated_at
	FROM users`

type AccountsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewAccountsRepo(pool *pgxpool.Pool, prom *observability.Prom) *AccountsRepo {
	return &AccountsRepo{pool: pool, prom: prom}
}

func (r *AccountsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *AccountsRepo) FindByEmail(ctx context.Context, email string) (account.Account, error) {
	return r.findOne(ctx, "users.find_by_email", selectAccount+` WHERE email = $1`, email)
}

func (r *AccountsRepo) FindByID(ctx context.Context, id string) (account.Account, error) {
	// ids are uuid columns; anything else cannot exist
	if !utils.IsUUID(id) {
		return account.Account{}, account.ErrNotFound
	}
	return r.findOne(ctx, "users.find_by_id", selectAccount+` WHERE id = $1`, id)
}

func (r *AccountsRepo) Create(ctx context.Context, a account.Account) (account.Account, error) {
	c := a.Columns()
	if err := account.CheckColumns(c); err != nil {
		return account.Account{}, err
	}

	var out account.Account
	err := r.observe("users.create", func() error {
		var err error
		out, err = scanAccount(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, first_name, last_name, phone, role, is_active,
				date_of_birth, address, hospital_name, hospital_address, license_number,
				lab_name, lab_address, lab_license, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			 RETURNING id, email, password_hash, first_name, last_name, phone, role, is_active,
				date_of_birth, address, hospital_name, hospital_address, license_number,
				lab_name, lab_address, lab_license, created_at, updated_at`,
			a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(c.Role), a.IsActive,
			c.DateOfBirth, c.Address, c.HospitalName, c.HospitalAddress, c.LicenseNumber,
			c.LabName, c.LabAddress, c.LabLicense, a.CreatedAt, a.UpdatedAt,
		))
		return err
	})

	if err != nil {
		return account.Account{}, mapWriteErr(err)
	}
	return out, nil
}

// Update rewrites every column, so columns of other roles end up NULL.
func (r *AccountsRepo) Update(ctx context.Context, a account.Account) (account.Account, error) {
	c := a.Columns()
	if err := account.CheckColumns(c); err != nil {
		return account.Account{}, err
	}
	if !utils.IsUUID(a.ID) {
		return account.Account{}, account.ErrNotFound
	}

	var out account.Account
	err := r.observe("users.update", func() error {
		var err error
		out, err = scanAccount(r.pool.QueryRow(ctx,
			`UPDATE users SET email = $2, password_hash = $3, first_name = $4, last_name = $5, phone = $6,
				role = $7, is_active = $8, date_of_birth = $9, address = $10, hospital_name = $11,
				hospital_address = $12, license_number = $13, lab_name = $14, lab_address = $15,
				lab_license = $16, updated_at = $17
			 WHERE id = $1
			 RETURNING id, email, password_hash, first_name, last_name, phone, role, is_active,
				date_of_birth, address, hospital_name, hospital_address, license_number,
				lab_name, lab_address, lab_license, created_at, updated_at`,
			a.ID, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Phone, string(c.Role), a.IsActive,
			c.DateOfBirth, c.Address, c.HospitalName, c.HospitalAddress, c.LicenseNumber,
			c.LabName, c.LabAddress, c.LabLicense, a.UpdatedAt,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, mapWriteErr(err)
	}
	return out, nil
}

func (r *AccountsRepo) SetActive(ctx context.Context, id string, active bool, at time.Time) (account.Account, error) {
	if !utils.IsUUID(id) {
		return account.Account{}, account.ErrNotFound
	}

	var out account.Account
	err := r.observe("users.set_active", func() error {
		var err error
		out, err = scanAccount(r.pool.QueryRow(ctx,
			`UPDATE users SET is_active = $2, updated_at = $3
			 WHERE id = $1
			 RETURNING id, email, password_hash, first_name, last_name, phone, role, is_active,
				date_of_birth, address, hospital_name, hospital_address, license_number,
				lab_name, lab_address, lab_license, created_at, updated_at`,
			id, active, at,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, err
	}
	return out, nil
}

func (r *AccountsRepo) Count(ctx context.Context, f account.Filter) (int, error) {
	where, args := utils.BuildAccountWhere(f, utils.DollarPlaceholder)

	var n int
	err := r.observe("users.count", func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&n)
	})
	return n, err
}

func (r *AccountsRepo) List(ctx context.Context, f account.Filter, skip, take int) ([]account.Account, error) {
	where, args := utils.BuildAccountWhere(f, utils.DollarPlaceholder)

	query := selectAccount + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, take, skip)

	out := make([]account.Account, 0, take)
	err := r.observe("users.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			a, err := scanAccount(rows)
			if err != nil {
				return err
			}
			out = append(out, a)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccountsRepo) GroupCountByRole(ctx context.Context) (map[account.Role]int, error) {
	out := make(map[account.Role]int)

	err := r.observe("users.group_by_role", func() error {
		rows, err := r.pool.Query(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var role string
			var n int
			if err := rows.Scan(&role, &n); err != nil {
				return err
			}
			out[account.Role(role)] = n
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *AccountsRepo) findOne(ctx context.Context, op, query string, arg any) (account.Account, error) {
	var a account.Account
	var missing bool
	err := r.observe(op, func() error {
		var err error
		a, err = scanAccount(r.pool.QueryRow(ctx, query, arg))
		// a lookup miss is an answer, not a failed query
		if errors.Is(err, pgx.ErrNoRows) {
			missing = true
			return nil
		}
		return err
	})

	if err != nil {
		return account.Account{}, err
	}
	if missing {
		return account.Account{}, account.ErrNotFound
	}
	return a, nil
}

func scanAccount(row pgx.Row) (account.Account, error) {
	var (
		a    account.Account
		c    account.Columns
		role string
	)

	err := row.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName, &a.Phone, &role, &a.IsActive,
		&c.DateOfBirth, &c.Address, &c.HospitalName, &c.HospitalAddress, &c.LicenseNumber,
		&c.LabName, &c.LabAddress, &c.LabLicense, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return account.Account{}, err
	}

	c.Role = account.Role(role)
	if c.DateOfBirth != nil {
		dob := c.DateOfBirth.UTC()
		c.DateOfBirth = &dob
	}
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()

	if a.Profile, err = c.Profile(); err != nil {
		return account.Account{}, err
	}
	return a, nil
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && (pgErr.ConstraintName == usersEmailKey || pgErr.ConstraintName == "") {
		return account.ErrDuplicateEmail
	}
	return err
}
