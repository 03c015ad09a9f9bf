// Package book implements the process-wide Book Registry: a thread-safe
// map from book id to book record, with the same single-mutex,
// copy-on-read locking discipline as the Job Registry. It also owns the
// on-disk cache directory layout a book's chapter texts live in.
package book

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duskline/narrator/pkg/types"
)

// Registry owns every Book known to this process, in memory only.
type Registry struct {
	mu    sync.Mutex
	books map[string]*types.Book
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{books: make(map[string]*types.Book)}
}

// Create allocates a new book record with a fresh id and stores it.
func (r *Registry) Create(b types.Book) types.Book {
	b.ID = uuid.NewString()
	b.CreatedAt = time.Now()
	stored := b
	r.mu.Lock()
	r.books[b.ID] = &stored
	r.mu.Unlock()
	return stored
}

// Get returns a copy of the book record, or false if unknown.
func (r *Registry) Get(id string) (types.Book, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return types.Book{}, false
	}
	return *b, true
}

// SetPaths records the original upload path and the on-disk cache
// directory a book's chapter texts and manifest live in (spec 3
// Book.upload_path/cache_dir). Called once, right after Create, since the
// cache directory name is derived from the id Create assigns.
func (r *Registry) SetPaths(id, uploadPath, cacheDir string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return false
	}
	b.UploadPath = uploadPath
	b.CacheDir = cacheDir
	return true
}

// SetChapters replaces the book's chapter list and detection method, as
// produced by the Analyzer or a manual-segments build.
func (r *Registry) SetChapters(id string, chapters []types.Chapter, detectionMethod string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.books[id]
	if !ok {
		return false
	}
	b.Chapters = chapters
	b.DetectionMethod = detectionMethod
	return true
}

// CheckOwnership enforces the spec's ownership rule: a request
// authenticated with userID may operate on the book unless the record's
// own owner is set and differs. An unset record owner (legacy/anonymous
// upload) admits any caller.
func (r *Registry) CheckOwnership(id, userID string) error {
	r.mu.Lock()
	b, ok := r.books[id]
	r.mu.Unlock()
	if !ok {
		return types.ErrChapterNotFound
	}
	if b.UserID != "" && b.UserID != userID {
		return types.ErrUnauthorized
	}
	return nil
}

// Delete removes a book record. The caller is responsible for removing
// its cache directory on disk.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.books, id)
}

// SweepOlderThan removes every book record created before the cutoff and
// returns copies of the removed records. It does not touch their cache
// directories on disk.
func (r *Registry) SweepOlderThan(maxAge time.Duration) []types.Book {
	cutoff := time.Now().Add(-maxAge)
	var evicted []types.Book
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, b := range r.books {
		if b.CreatedAt.Before(cutoff) {
			evicted = append(evicted, *b)
			delete(r.books, id)
		}
	}
	return evicted
}
