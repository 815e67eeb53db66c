package file

import (
	"context"
	"sort"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
)

// VersionRepository handles content versions stored in post documents.
type VersionRepository struct {
	store *Persistence
}

// CreateVersion appends the version as the post's only active one and copies
// its content onto the post, in a single document write.
func (vr *VersionRepository) CreateVersion(_ context.Context, version *models.ContentVersion) error {
	var stored models.ContentVersion

	err := vr.store.writeLocked(func() error {
		doc, err := vr.store.load(version.PostID)
		if err != nil {
			return err
		}

		if doc == nil {
			return persistence.ErrPostNotFound
		}

		next := 1
		for _, existing := range doc.Versions {
			existing.IsActive = false
			next = max(next, existing.Version+1)
		}

		stored = *version
		stored.Version = next
		stored.IsActive = true
		doc.Versions = append(doc.Versions, &stored)

		doc.Post.Title = stored.Title
		doc.Post.Content = stored.Content
		doc.Post.Excerpt = stored.Excerpt
		doc.Post.UpdatedAt = stored.CreatedAt

		return vr.store.save(doc)
	})
	if err != nil {
		return persistence.NewVersionError("CreateVersion", version.PostID, version.ID, err)
	}

	version.Version = stored.Version
	version.IsActive = true

	return nil
}

// GetVersion looks a version up by id across all posts.
func (vr *VersionRepository) GetVersion(_ context.Context, versionID string) (*models.ContentVersion, error) {
	vr.store.mu.RLock()
	defer vr.store.mu.RUnlock()

	docs, err := vr.store.loadAll()
	if err != nil {
		return nil, persistence.NewVersionError("GetVersion", "", versionID, err)
	}

	for _, doc := range docs {
		for _, version := range doc.Versions {
			if version.ID == versionID {
				return version, nil
			}
		}
	}

	return nil, persistence.NewVersionError("GetVersion", "", versionID, persistence.ErrVersionNotFound)
}

// ListVersions returns the versions of a post, highest number first.
func (vr *VersionRepository) ListVersions(_ context.Context, postID string) ([]*models.ContentVersion, error) {
	vr.store.mu.RLock()
	defer vr.store.mu.RUnlock()

	doc, err := vr.store.load(postID)
	if err != nil {
		return nil, persistence.NewVersionError("ListVersions", postID, "", err)
	}

	if doc == nil {
		return []*models.ContentVersion{}, nil
	}

	versions := append([]*models.ContentVersion(nil), doc.Versions...)
	sort.Slice(versions, func(i, j int) bool {
		return versions[i].Version > versions[j].Version
	})

	return versions, nil
}
