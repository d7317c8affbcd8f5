package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects SQL syntax and the database/sql driver.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a migrated database handle tagged with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// OpenPostgres connects with lib/pq, pings, and applies the schema.
func OpenPostgres(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	return open(ctx, Postgres, "postgres", dsn)
}

// OpenSQLite opens (creating if needed) a SQLite file and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	d, err := open(ctx, SQLite, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer
	d.SetMaxOpenConns(1)
	return d, nil
}

func open(ctx context.Context, dialect Dialect, driver, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}

	d := &DB{DB: sqlDB, Dialect: dialect}
	if err := RunMigration(ctx, d); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate %s db: %w", dialect, err)
	}
	return d, nil
}
