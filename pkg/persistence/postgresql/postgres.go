// Package postgresql provides PostgreSQL persistence implementation for posts,
// workflow transitions and content versions.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/editorial/pkg/persistence/sqlbase"
	"github.com/lib/pq"
)

const uniqueViolation = pq.ErrorCode("23505")

// Dialect is the PostgreSQL flavour of the shared SQL repositories.
var Dialect = sqlbase.Dialect{
	Name:                 "postgres",
	NumberedPlaceholders: true,
	IsUniqueViolation: func(err error) bool {
		var pqErr *pq.Error

		return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
	},
}

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	*sqlbase.Store
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, Dialect, migrations())

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{Store: sqlbase.NewStore(database, logger, Dialect)}, nil
}
