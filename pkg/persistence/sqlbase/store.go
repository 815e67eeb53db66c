package sqlbase

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/editorial/pkg/persistence"
)

// Store implements the persistence.Persistence repositories on top of database/sql.
// Engine packages open the connection, run their migrations and embed a Store.
type Store struct {
	db      *sql.DB
	logger  *slog.Logger
	dialect Dialect

	postRepo       *PostRepository
	transitionRepo *TransitionRepository
	versionRepo    *VersionRepository
}

// NewStore wires the repositories to an open database.
func NewStore(db *sql.DB, logger *slog.Logger, dialect Dialect) *Store {
	s := &Store{db: db, logger: logger, dialect: dialect}
	s.postRepo = &PostRepository{store: s}
	s.transitionRepo = &TransitionRepository{store: s}
	s.versionRepo = &VersionRepository{store: s}

	return s
}

// DB exposes the underlying connection pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close(_ context.Context) error {
	if s.db != nil {
		err := s.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (s *Store) HealthCheck(ctx context.Context) error {
	err := s.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// PostRepository returns the SQL post repository.
func (s *Store) PostRepository() persistence.PostRepository {
	return s.postRepo
}

// TransitionRepository returns the SQL transition log.
func (s *Store) TransitionRepository() persistence.TransitionRepository {
	return s.transitionRepo
}

// VersionRepository returns the SQL version repository.
func (s *Store) VersionRepository() persistence.VersionRepository {
	return s.versionRepo
}

func (s *Store) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}

// inTx runs fn inside a transaction, rolling back when fn fails.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	err = fn(tx)
	if err != nil {
		rollbackErr := tx.Rollback()
		if rollbackErr != nil {
			s.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
		}

		return err
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}
