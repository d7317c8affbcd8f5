package db

import (
	"context"
	"fmt"
)

const postgresMigration = `
CREATE EXTENSION IF NOT EXISTS "pgcrypto";

CREATE TABLE IF NOT EXISTS accounts (
    id uuid PRIMARY KEY DEFAULT gen_random_uuid(),
    email text NOT NULL,
    full_name text NOT NULL DEFAULT '',
    avatar_url text NOT NULL DEFAULT '',
    role text NOT NULL,
    status text NOT NULL DEFAULT 'ACTIVE',
    created_at timestamptz NOT NULL DEFAULT NOW(),
    updated_at timestamptz NOT NULL DEFAULT NOW(),
    CONSTRAINT accounts_email_unique UNIQUE (email),
    CONSTRAINT accounts_role_check
        CHECK (role IN ('ADMIN', 'STUDENT', 'GUEST', 'MENTOR')),
    CONSTRAINT accounts_status_check
        CHECK (status IN ('ACTIVE', 'BLOCKED'))
);
`

// created_at/updated_at are unix milliseconds
const sqliteMigration = `
CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    full_name TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    role TEXT NOT NULL CHECK (role IN ('ADMIN', 'STUDENT', 'GUEST', 'MENTOR')),
    status TEXT NOT NULL DEFAULT 'ACTIVE' CHECK (status IN ('ACTIVE', 'BLOCKED')),
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// RunMigration creates the accounts schema for the handle's dialect.
// It is idempotent.
func RunMigration(ctx context.Context, d *DB) error {
	var ddl string
	switch d.Dialect {
	case Postgres:
		ddl = postgresMigration
	case SQLite:
		ddl = sqliteMigration
	default:
		return fmt.Errorf("unsupported dialect %q", d.Dialect)
	}
	_, err := d.ExecContext(ctx, ddl)
	return err
}
