// Package sqlite provides the embedded SQLite persistence implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/editorial/pkg/persistence/sqlbase"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the SQLite flavour of the shared SQL repositories.
var Dialect = sqlbase.Dialect{
	Name:              "sqlite",
	IsUniqueViolation: isUniqueViolation,
}

// Persistence implements the persistence layer for SQLite.
type Persistence struct {
	*sqlbase.Store
}

// NewPersistence opens the SQLite database at dsn, accepting an optional
// sqlite:// prefix, and brings its schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, dsn string) (*Persistence, error) {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if dsn == "" {
		dsn = ":memory:"
	}

	database, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// SQLite allows one writer; an in-memory database also lives and dies with its connection.
	database.SetMaxOpenConns(1)

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	_, err = database.ExecContext(ctx, `PRAGMA foreign_keys = ON`)
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, Dialect, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{Store: sqlbase.NewStore(database, logger, Dialect)}, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}

	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
	default:
		return false
	}
}
