package services

import (
	"context"
	"errors"
	"maps"

	"github.com/dukex/editorial/pkg/audit"
	"github.com/dukex/editorial/pkg/events"
	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/otelhelper"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Attempts made by CreateVersion before reporting a conflict.
const maxVersionAttempts = 2

// Versions is the version store: it creates, lists, restores and compares the
// content versions of a post.
type Versions struct {
	deps Dependencies
}

// NewVersions creates a new version service.
func NewVersions(deps Dependencies) *Versions {
	return &Versions{deps: deps.withDefaults()}
}

// CreateVersion snapshots the post's content as its new active version. Fields
// missing from input keep the post's current values.
func (v *Versions) CreateVersion(ctx context.Context, postID, userID string, input models.VersionInput) (version *models.ContentVersion, err error) {
	ctx, span := v.deps.startSpan(ctx, "versions.CreateVersion",
		attribute.String(otelhelper.PostIDKey, postID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer func() { finishSpan(span, err) }()

	unlock := v.deps.Locks.Lock(postID)
	defer unlock()

	version, err = v.createLocked(ctx, postID, userID, input)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String(otelhelper.VersionIDKey, version.ID),
		attribute.Int(otelhelper.VersionKey, version.Version),
	)

	return version, nil
}

// createLocked runs with the post lock held by the caller.
func (v *Versions) createLocked(ctx context.Context, postID, userID string, input models.VersionInput) (*models.ContentVersion, error) {
	var (
		version *models.ContentVersion
		err     error
	)

	for attempt := 1; ; attempt++ {
		version, err = v.attempt(ctx, postID, userID, input)
		if !errors.Is(err, persistence.ErrVersionConflict) {
			break
		}

		if attempt >= maxVersionAttempts {
			return nil, fromPersistence("CreateVersion", err)
		}

		v.deps.Logger.InfoContext(ctx, "version number taken concurrently, retrying",
			"post_id", postID, "attempt", attempt)
	}

	if err != nil {
		return nil, err
	}

	v.deps.Logger.InfoContext(ctx, "content version created",
		"post_id", postID,
		"version_id", version.ID,
		"version", version.Version,
		"user_id", userID,
	)

	v.deps.invalidate(ctx, postID)
	v.deps.publish(ctx, postID, events.VersionCreated{
		BaseEvent: events.NewBaseEvent(v.deps.Events.GenerateID(), events.VersionCreatedEvent, postID, version.CreatedAt),
		VersionID: version.ID,
		Version:   version.Version,
		CreatedBy: version.CreatedBy,
	})

	return version, nil
}

func (v *Versions) attempt(ctx context.Context, postID, userID string, input models.VersionInput) (*models.ContentVersion, error) {
	post, err := v.deps.Persistence.PostRepository().GetPost(ctx, postID)
	if err != nil {
		return nil, fromPersistence("CreateVersion", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, newError("CreateVersion", ErrStoreUnavailable, "failed to generate version id", err)
	}

	version := &models.ContentVersion{
		ID:        id.String(),
		PostID:    post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Metadata:  maps.Clone(input.Metadata),
		CreatedBy: userID,
		CreatedAt: v.deps.now(),
	}

	if input.Title != nil {
		version.Title = *input.Title
	}

	if input.Content != nil {
		version.Content = *input.Content
	}

	if input.Excerpt != nil {
		version.Excerpt = input.Excerpt
	}

	err = v.deps.Persistence.VersionRepository().CreateVersion(ctx, version)
	if err != nil {
		if errors.Is(err, persistence.ErrVersionConflict) {
			return nil, err
		}

		return nil, fromPersistence("CreateVersion", err)
	}

	return version, nil
}

// GetVersionHistory returns every version of the post, highest number first.
func (v *Versions) GetVersionHistory(ctx context.Context, postID string) ([]*models.ContentVersion, error) {
	_, err := v.deps.Persistence.PostRepository().GetPost(ctx, postID)
	if err != nil {
		return nil, fromPersistence("GetVersionHistory", err)
	}

	versions, err := v.deps.Persistence.VersionRepository().ListVersions(ctx, postID)
	if err != nil {
		return nil, fromPersistence("GetVersionHistory", err)
	}

	return versions, nil
}

// GetVersion returns a single version by id.
func (v *Versions) GetVersion(ctx context.Context, versionID string) (*models.ContentVersion, error) {
	version, err := v.deps.Persistence.VersionRepository().GetVersion(ctx, versionID)
	if err != nil {
		return nil, fromPersistence("GetVersion", err)
	}

	return version, nil
}

// GetActiveVersion returns the post's active version. A post that never had a
// version is reported as not found.
func (v *Versions) GetActiveVersion(ctx context.Context, postID string) (*models.ContentVersion, error) {
	versions, err := v.GetVersionHistory(ctx, postID)
	if err != nil {
		return nil, err
	}

	for _, version := range versions {
		if version.IsActive {
			return version, nil
		}
	}

	return nil, newError("GetActiveVersion", ErrNotFound, "post has no active version", nil)
}

// RestoreVersion copies versionID into a new active version of postID. The
// restored version itself is left untouched. A version belonging to another
// post is reported as not found.
func (v *Versions) RestoreVersion(ctx context.Context, postID, versionID, userID string) (restored *models.ContentVersion, err error) {
	ctx, span := v.deps.startSpan(ctx, "versions.RestoreVersion",
		attribute.String(otelhelper.PostIDKey, postID),
		attribute.String(otelhelper.VersionIDKey, versionID),
		attribute.String(otelhelper.UserIDKey, userID),
	)
	defer func() { finishSpan(span, err) }()

	unlock := v.deps.Locks.Lock(postID)
	defer unlock()

	source, err := v.deps.Persistence.VersionRepository().GetVersion(ctx, versionID)
	if err != nil {
		return nil, fromPersistence("RestoreVersion", err)
	}

	if source.PostID != postID {
		return nil, newError("RestoreVersion", ErrNotFound, "version does not belong to this post", nil)
	}

	metadata := maps.Clone(source.Metadata)
	if metadata == nil {
		metadata = make(map[string]any, 1)
	}

	metadata[models.MetadataRestoredFrom] = source.ID

	restored, err = v.createLocked(ctx, postID, userID, models.VersionInput{
		Title:    &source.Title,
		Content:  &source.Content,
		Excerpt:  source.Excerpt,
		Metadata: metadata,
	})
	if err != nil {
		return nil, err
	}

	entry := audit.Entry{
		Action:   audit.ActionVersionRestored,
		Severity: audit.SeverityInfo,
		UserID:   userID,
		PostID:   postID,
		Details: map[string]any{
			"restored_from":  source.ID,
			"from_version":   source.Version,
			"new_version_id": restored.ID,
			"new_version":    restored.Version,
		},
		Timestamp: restored.CreatedAt,
	}

	v.deps.Effects.Run(ctx, "audit.log", audit.ActionVersionRestored, func(ctx context.Context) error {
		logErr := v.deps.Audit.Log(ctx, entry)
		if logErr != nil {
			return newError("RestoreVersion", ErrAuditWriteFailed, "", logErr)
		}

		return nil
	})

	v.deps.publish(ctx, postID, events.VersionRestored{
		BaseEvent:    events.NewBaseEvent(v.deps.Events.GenerateID(), events.VersionRestoredEvent, postID, restored.CreatedAt),
		VersionID:    restored.ID,
		Version:      restored.Version,
		RestoredFrom: source.ID,
		UserID:       userID,
	})

	return restored, nil
}

// CompareVersions reports which content fields differ between two versions.
// Fields are compared byte for byte; a nil excerpt differs from an empty one.
func (v *Versions) CompareVersions(ctx context.Context, versionID1, versionID2 string) (*models.VersionComparison, error) {
	repo := v.deps.Persistence.VersionRepository()

	first, err := repo.GetVersion(ctx, versionID1)
	if err != nil {
		return nil, fromPersistence("CompareVersions", err)
	}

	second, err := repo.GetVersion(ctx, versionID2)
	if err != nil {
		return nil, fromPersistence("CompareVersions", err)
	}

	return &models.VersionComparison{
		Version1: first,
		Version2: second,
		Differences: models.VersionDifferences{
			Title:   first.Title != second.Title,
			Content: first.Content != second.Content,
			Excerpt: !sameExcerpt(first.Excerpt, second.Excerpt),
		},
	}, nil
}

func sameExcerpt(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
