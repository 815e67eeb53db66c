// Package file provides file-based persistence for posts, transitions and versions.
//
// Each post lives in a single JSON document together with its transition log
// and its versions, so every multi-record write is one atomic file rename.
// Writers hold an advisory lock on <root>/.lock, which serialises them across
// every process sharing the root.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dukex/editorial/pkg/models"
	"github.com/dukex/editorial/pkg/persistence"
	"github.com/gofrs/flock"
)

const (
	lockFileName     = ".lock"
	sequenceFileName = "sequence.json"
)

// sequence is the store-wide transition counter.
type sequence struct {
	LastSeq int64 `json:"last_seq"`
}

// document is the on-disk representation of one post.
type document struct {
	Post        *models.Post                 `json:"post"`
	Transitions []*models.WorkflowTransition `json:"transitions"`
	Versions    []*models.ContentVersion     `json:"versions"`
}

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root string
	mu   sync.RWMutex

	postRepo       *PostRepository
	transitionRepo *TransitionRepository
	versionRepo    *VersionRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	p := &Persistence{root: cleanRoot}
	p.postRepo = &PostRepository{store: p}
	p.transitionRepo = &TransitionRepository{store: p}
	p.versionRepo = &VersionRepository{store: p}

	return p
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// PostRepository returns the post repository implementation for file persistence.
func (fp *Persistence) PostRepository() persistence.PostRepository {
	return fp.postRepo
}

// TransitionRepository returns the transition log implementation for file persistence.
func (fp *Persistence) TransitionRepository() persistence.TransitionRepository {
	return fp.transitionRepo
}

// VersionRepository returns the version repository implementation for file persistence.
func (fp *Persistence) VersionRepository() persistence.VersionRepository {
	return fp.versionRepo
}

// writeLocked runs fn while holding both the in-process write lock and the
// store's advisory file lock.
func (fp *Persistence) writeLocked(fn func() error) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.MkdirAll(fp.root, 0750)
	if err != nil {
		return fmt.Errorf("failed to create store root: %w", err)
	}

	lock := flock.New(filepath.Join(fp.root, lockFileName))

	err = lock.Lock()
	if err != nil {
		return fmt.Errorf("failed to lock store: %w", err)
	}

	defer func() {
		_ = lock.Unlock()
	}()

	return fn()
}

// nextSeq reserves the next transition sequence number. Callers hold the write lock.
func (fp *Persistence) nextSeq() (int64, error) {
	var seq sequence

	body, err := os.ReadFile(filepath.Join(fp.root, sequenceFileName))

	switch {
	case err == nil:
		err = json.Unmarshal(body, &seq)
		if err != nil {
			return 0, fmt.Errorf("failed to unmarshal transition sequence: %w", err)
		}
	case !os.IsNotExist(err):
		return 0, fmt.Errorf("failed to read transition sequence: %w", err)
	}

	seq.LastSeq++

	data, err := json.Marshal(seq)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal transition sequence: %w", err)
	}

	err = writeAtomic(fp.root, sequenceFileName, data)
	if err != nil {
		return 0, fmt.Errorf("failed to write transition sequence: %w", err)
	}

	return seq.LastSeq, nil
}

func (fp *Persistence) postsDir() string {
	return path.Join(fp.root, "posts")
}

func (fp *Persistence) documentPath(postID string) string {
	return filepath.Clean(path.Join(fp.postsDir(), postID+".json"))
}

// load reads one document. A missing file yields (nil, nil). Callers hold fp.mu.
func (fp *Persistence) load(postID string) (*document, error) {
	if postID == "" || strings.ContainsAny(postID, `/\`) {
		return nil, nil
	}

	body, err := os.ReadFile(fp.documentPath(postID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read post %s: %w", postID, err)
	}

	var doc document

	err = json.Unmarshal(body, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal post %s: %w", postID, err)
	}

	return &doc, nil
}

// loadAll reads every document. Callers hold fp.mu.
func (fp *Persistence) loadAll() ([]*document, error) {
	jsonFiles, err := fs.Glob(os.DirFS(fp.postsDir()), "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list post files: %w", err)
	}

	docs := make([]*document, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		doc, err := fp.load(strings.TrimSuffix(name, ".json"))
		if err != nil {
			return nil, err
		}

		if doc != nil {
			docs = append(docs, doc)
		}
	}

	return docs, nil
}

// save writes a document through a temporary file and a rename, so readers
// observe either the old or the new document. Callers hold the write lock.
func (fp *Persistence) save(doc *document) error {
	if doc.Post == nil || doc.Post.ID == "" || strings.ContainsAny(doc.Post.ID, `/\`) {
		return persistence.ErrInvalidPost
	}

	err := os.MkdirAll(fp.postsDir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create posts directory: %w", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal post %s: %w", doc.Post.ID, err)
	}

	err = writeAtomic(fp.postsDir(), doc.Post.ID+".json", data)
	if err != nil {
		return fmt.Errorf("failed to write post %s: %w", doc.Post.ID, err)
	}

	return nil
}

// writeAtomic writes data to dir/name through a temporary file and a rename.
func writeAtomic(dir, name string, data []byte) error {
	tmp, err := os.CreateTemp(dir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}

	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}

	if err == nil {
		err = os.Rename(tmp.Name(), filepath.Join(dir, name))
	}

	if err != nil {
		_ = os.Remove(tmp.Name())
	}

	return err
}
