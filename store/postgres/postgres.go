// Package postgres opens the PostgreSQL payroll store through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/warp/payroll-engine/store/sqlstore"
)

const uniqueViolation = "23505"

// Store is a PostgreSQL-backed payroll.Store.
type Store struct {
	*sqlstore.Store
}

// Options tunes the connection pool.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

func DefaultOptions() Options {
	return Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: 30 * time.Minute}
}

// Open connects to databaseURL, verifies the connection and migrates.
func Open(ctx context.Context, databaseURL string, opts Options) (*Store, error) {
	db, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := New(db)
	if err := store.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// New wraps an open handle whose driver name binds $n placeholders.
func New(db *sqlx.DB) *Store {
	return &Store{Store: sqlstore.New(db, sqlstore.WithUniqueViolation(isUniqueViolation))}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key")
}
