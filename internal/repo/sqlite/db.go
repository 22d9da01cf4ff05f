// Package sqlite stores accounts in an embedded SQLite database. It backs local
// development and the storage tests; production uses the postgres package.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Open connects to a SQLite database.
// dsn examples: "file:medid.db?cache=shared&mode=rwc" or ":memory:"
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// every connection to :memory: is a separate database
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

// AutoMigrate creates the accounts table when it does not exist yet.
func AutoMigrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id               TEXT PRIMARY KEY,
    email            TEXT NOT NULL UNIQUE,
    password_hash    TEXT NOT NULL,
    first_name       TEXT NOT NULL,
    last_name        TEXT NOT NULL,
    phone            TEXT,
    role             TEXT NOT NULL CHECK (role IN ('PATIENT','HOSPITAL','LAB','ADMIN')),
    is_active        INTEGER NOT NULL DEFAULT 1,
    date_of_birth    TEXT,
    address          TEXT,
    hospital_name    TEXT,
    hospital_address TEXT,
    license_number   TEXT,
    lab_name         TEXT,
    lab_address      TEXT,
    lab_license      TEXT,
    created_at       TEXT NOT NULL,
    updated_at       TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_users_created_at ON users (created_at DESC, id DESC);
CREATE INDEX IF NOT EXISTS idx_users_role ON users (role);
`
