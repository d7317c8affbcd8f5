package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus-auth/internal/auth"
	"campus-auth/internal/db"
)

const accountColumns = `id, email, full_name, avatar_url, role, status, created_at`

// PostgresDirectory stores accounts in Postgres. Email uniqueness is
// enforced by the accounts_email_unique constraint.
type PostgresDirectory struct {
	db *db.DB
}

func NewPostgresDirectory(d *db.DB) *PostgresDirectory {
	return &PostgresDirectory{db: d}
}

func (p *PostgresDirectory) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = $1
	`, email)

	acc, err := scanPostgresAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, ErrNotFound
	}
	if err != nil {
		return auth.Account{}, unavailable("find account", err)
	}
	return acc, nil
}

func (p *PostgresDirectory) Create(ctx context.Context, in NewAccount) (auth.Account, error) {
	if err := in.validate(); err != nil {
		return auth.Account{}, err
	}

	row := p.db.QueryRowContext(ctx, `
		INSERT INTO accounts (email, full_name, avatar_url, role, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+accountColumns,
		in.Email,
		in.FullName,
		in.AvatarURL,
		string(in.Role),
		string(in.Status),
	)

	acc, err := scanPostgresAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		// lost a race on the email constraint; the winner's row is authoritative
		return p.FindByEmail(ctx, in.Email)
	}
	if err != nil {
		return auth.Account{}, unavailable("create account", err)
	}
	return acc, nil
}

func scanPostgresAccount(row *sql.Row) (auth.Account, error) {
	var (
		id, email, fullName, avatarURL, role, status string
		createdAt                                    time.Time
	)
	if err := row.Scan(&id, &email, &fullName, &avatarURL, &role, &status, &createdAt); err != nil {
		return auth.Account{}, err
	}

	acc, err := toAccount(id, email, fullName, avatarURL, role, status)
	if err != nil {
		return auth.Account{}, fmt.Errorf("decode account %s: %w", id, err)
	}
	acc.CreatedAt = createdAt.UTC()
	return acc, nil
}
