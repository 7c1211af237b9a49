/*
Package sqlite opens the default SQLite payroll store.

PURPOSE:
  Wraps sqlstore.Store with a SQLite connection. All queries live in
  sqlstore; this package picks the driver, the pragmas and the unique
  constraint detection.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Readers don't block the writer
  - Better crash recovery
  - leave, deductions and payroll rows must reference an employee

CONNECTIONS:
  A single connection is used. ":memory:" databases are per connection, and
  SQLite allows one writer at a time anyway. Queries are also serialized
  in-process (sqlstore.WithSerializedAccess).

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - store/sqlstore/sqlstore.go: Queries
  - store/postgres/postgres.go: PostgreSQL backend
*/
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"github.com/warp/payroll-engine/store/sqlstore"
)

// Store is a SQLite-backed payroll.Store.
type Store struct {
	*sqlstore.Store
}

// New creates a SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := &Store{Store: sqlstore.New(db,
		sqlstore.WithUniqueViolation(isUniqueConstraintError),
		sqlstore.WithSerializedAccess(),
	)}
	if err := store.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func isUniqueConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
