package models

import "time"

// MetadataRestoredFrom is the metadata key set on versions created by a restore.
const MetadataRestoredFrom = "restoredFrom"

// ContentVersion is one immutable snapshot of a post's content.
type ContentVersion struct {
	ID        string         `json:"id"`
	PostID    string         `json:"post_id"`
	Version   int            `json:"version"` // 1-based, gapless per post
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Excerpt   *string        `json:"excerpt,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	IsActive  bool           `json:"is_active"`
}

// RestoredFrom returns the id of the version this one was restored from, if any.
func (v *ContentVersion) RestoredFrom() (string, bool) {
	if v.Metadata == nil {
		return "", false
	}

	id, ok := v.Metadata[MetadataRestoredFrom].(string)

	return id, ok
}

// VersionInput carries the optional fields of a new version. Nil fields default
// to the post's current values.
type VersionInput struct {
	Title    *string        `json:"title,omitempty"`
	Content  *string        `json:"content,omitempty"`
	Excerpt  *string        `json:"excerpt,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// VersionDifferences flags which fields differ byte-for-byte.
type VersionDifferences struct {
	Title   bool `json:"title"`
	Content bool `json:"content"`
	Excerpt bool `json:"excerpt"`
}

// VersionComparison is the result of comparing two versions.
type VersionComparison struct {
	Version1    *ContentVersion    `json:"version1"`
	Version2    *ContentVersion    `json:"version2"`
	Differences VersionDifferences `json:"differences"`
}
