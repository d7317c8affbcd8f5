package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"campus-auth/internal/auth"
	"campus-auth/internal/db"

	"github.com/google/uuid"
)

// SQLiteDirectory stores accounts in a SQLite file. Timestamps are kept
// as unix milliseconds.
type SQLiteDirectory struct {
	db  *db.DB
	now func() time.Time
}

func NewSQLiteDirectory(d *db.DB) *SQLiteDirectory {
	return &SQLiteDirectory{db: d, now: time.Now}
}

func (s *SQLiteDirectory) FindByEmail(ctx context.Context, email string) (auth.Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE email = ?
	`, email)

	acc, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Account{}, ErrNotFound
	}
	if err != nil {
		return auth.Account{}, unavailable("find account", err)
	}
	return acc, nil
}

func (s *SQLiteDirectory) Create(ctx context.Context, in NewAccount) (auth.Account, error) {
	if err := in.validate(); err != nil {
		return auth.Account{}, err
	}

	now := s.now().UTC().UnixMilli()
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, email, full_name, avatar_url, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (email) DO NOTHING
		RETURNING `+accountColumns,
		uuid.NewString(),
		in.Email,
		in.FullName,
		in.AvatarURL,
		string(in.Role),
		string(in.Status),
		now,
		now,
	)

	acc, err := scanSQLiteAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return s.FindByEmail(ctx, in.Email)
	}
	if err != nil {
		return auth.Account{}, unavailable("create account", err)
	}
	return acc, nil
}

func scanSQLiteAccount(row *sql.Row) (auth.Account, error) {
	var (
		id, email, fullName, avatarURL, role, status string
		createdAt                                    int64
	)
	if err := row.Scan(&id, &email, &fullName, &avatarURL, &role, &status, &createdAt); err != nil {
		return auth.Account{}, err
	}

	acc, err := toAccount(id, email, fullName, avatarURL, role, status)
	if err != nil {
		return auth.Account{}, fmt.Errorf("decode account %s: %w", id, err)
	}
	acc.CreatedAt = time.UnixMilli(createdAt).UTC()
	return acc, nil
}
