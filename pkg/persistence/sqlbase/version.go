package sqlbase

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

const versionColumns = `
	id
  , post_id
  , version
  , title
  , content
  , excerpt
  , metadata
  , created_by
  , created_at
  , is_active
`

// VersionRepository handles content version database operations.
type VersionRepository struct {
	store *Store
}

// CreateVersion numbers and stores a version as the post's only active one.
//
// The post row is updated first so concurrent writers for the same post queue
// on its row lock before reading the current maximum version number.
func (r *VersionRepository) CreateVersion(ctx context.Context, version *models.ContentVersion) error {
	metadata := version.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return persistence.NewVersionError("CreateVersion", version.PostID, version.ID, fmt.Errorf("failed to marshal metadata: %w", err))
	}

	createdAt := version.CreatedAt.UTC()

	var next int

	err = r.store.inTx(ctx, func(tx *sql.Tx) error {
		touch := r.store.dialect.Rebind(`UPDATE posts SET title = ?, content = ?, excerpt = ?, updated_at = ? WHERE id = ?`)

		result, err := tx.ExecContext(ctx, touch, version.Title, version.Content, nullString(version.Excerpt), createdAt, version.PostID)
		if err != nil {
			return fmt.Errorf("failed to copy version onto post: %w", err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if affected == 0 {
			return persistence.ErrPostNotFound
		}

		err = tx.QueryRowContext(ctx,
			r.store.dialect.Rebind(`SELECT COALESCE(MAX(version), 0) + 1 FROM content_versions WHERE post_id = ?`),
			version.PostID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read next version number: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			r.store.dialect.Rebind(`UPDATE content_versions SET is_active = ? WHERE post_id = ? AND is_active = ?`),
			false, version.PostID, true,
		)
		if err != nil {
			return fmt.Errorf("failed to deactivate versions: %w", err)
		}

		insert := r.store.dialect.Rebind(`
			INSERT INTO content_versions (id, post_id, version, title, content, excerpt, metadata, created_by, created_at, is_active)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)

		_, err = tx.ExecContext(ctx, insert,
			version.ID,
			version.PostID,
			next,
			version.Title,
			version.Content,
			nullString(version.Excerpt),
			string(metadataJSON),
			version.CreatedBy,
			createdAt,
			true,
		)
		if err != nil {
			if r.store.dialect.uniqueViolation(err) {
				return persistence.ErrVersionConflict
			}

			return fmt.Errorf("failed to insert version: %w", err)
		}

		return nil
	})
	if err != nil {
		return persistence.NewVersionError("CreateVersion", version.PostID, version.ID, err)
	}

	version.Version = next
	version.IsActive = true

	return nil
}

// GetVersion retrieves a version by its ID.
func (r *VersionRepository) GetVersion(ctx context.Context, versionID string) (*models.ContentVersion, error) {
	query := r.store.dialect.Rebind(`SELECT ` + versionColumns + ` FROM content_versions WHERE id = ?`)

	version, err := scanVersion(r.store.db.QueryRowContext(ctx, query, versionID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewVersionError("GetVersion", "", versionID, persistence.ErrVersionNotFound)
		}

		return nil, persistence.NewVersionError("GetVersion", "", versionID, err)
	}

	return version, nil
}

// ListVersions returns the versions of a post, highest number first.
func (r *VersionRepository) ListVersions(ctx context.Context, postID string) ([]*models.ContentVersion, error) {
	query := r.store.dialect.Rebind(`SELECT ` + versionColumns + `
		FROM content_versions
		WHERE post_id = ?
		ORDER BY version DESC`)

	rows, err := r.store.db.QueryContext(ctx, query, postID)
	if err != nil {
		return nil, persistence.NewVersionError("ListVersions", postID, "", err)
	}

	defer r.store.closeRows(ctx, rows)

	versions := make([]*models.ContentVersion, 0)

	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, persistence.NewVersionError("ListVersions", postID, "", err)
		}

		versions = append(versions, version)
	}

	err = rows.Err()
	if err != nil {
		return nil, persistence.NewVersionError("ListVersions", postID, "", err)
	}

	return versions, nil
}

func scanVersion(row scanner) (*models.ContentVersion, error) {
	var (
		version      models.ContentVersion
		excerpt      sql.NullString
		metadataJSON []byte
	)

	err := row.Scan(
		&version.ID,
		&version.PostID,
		&version.Version,
		&version.Title,
		&version.Content,
		&excerpt,
		&metadataJSON,
		&version.CreatedBy,
		&version.CreatedAt,
		&version.IsActive,
	)
	if err != nil {
		return nil, err
	}

	version.Excerpt = stringPtr(excerpt)
	version.CreatedAt = version.CreatedAt.UTC()

	if len(metadataJSON) > 0 {
		err = json.Unmarshal(metadataJSON, &version.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal version metadata: %w", err)
		}
	}

	return &version, nil
}
