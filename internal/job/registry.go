// Package job implements the process-wide Job Registry: a thread-safe map
// from job id to job state. Writes are serialized under a single
// registry-wide mutex; reads return a copy so callers never hold the lock
// across I/O (SSE writes, file deletes, and so on).
package job

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/duskline/narrator/pkg/types"
)

// Registry owns every Job known to this process. It is never persisted;
// restarting the process drops all job state, matching the spec's
// non-goal of durability across restarts.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*types.Job
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*types.Job)}
}

// Create allocates a new job in the processing state with a fresh UUID v4
// id and returns a copy of it.
func (r *Registry) Create(userID string, isPremium bool) types.Job {
	j := &types.Job{
		ID:        uuid.NewString(),
		Status:    types.JobProcessing,
		Progress:  0,
		Message:   "Starting...",
		UserID:    userID,
		IsPremium: isPremium,
		CreatedAt: time.Now(),
	}
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return *j
}

// CreateChapterJob allocates a new job in the processing state, linked back
// to the book and chapter it synthesizes (spec 3 Job.BookID/ChapterIndex),
// so a chapter job can be traced back to its owning book without a second
// lookup through the chapterJobs index.
func (r *Registry) CreateChapterJob(userID string, isPremium bool, bookID string, chapterIndex int) types.Job {
	j := &types.Job{
		ID:           uuid.NewString(),
		Status:       types.JobProcessing,
		Progress:     0,
		Message:      "Starting...",
		UserID:       userID,
		IsPremium:    isPremium,
		BookID:       bookID,
		ChapterIndex: &chapterIndex,
		CreatedAt:    time.Now(),
	}
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
	return *j
}

// Snapshot returns a copy of the job state, or false if the id is unknown.
func (r *Registry) Snapshot(id string) (types.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return types.Job{}, false
	}
	return *j, true
}

// SetProgress updates progress and message on a still-processing job.
// Updates to a terminal job are ignored: no transitions out of a terminal
// state, per the job state machine.
func (r *Registry) SetProgress(id string, progress float64, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	if progress > j.Progress {
		j.Progress = progress
	}
	j.Message = message
}

// MarkCompleted transitions a job to completed, recording its output file.
// A call against an already-terminal job is a no-op so a late completion
// can never clobber a pre-existing cancellation or error.
func (r *Registry) MarkCompleted(id, outputFile, downloadName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	j.Status = types.JobCompleted
	j.Progress = 100
	j.Message = "Completed"
	j.OutputFile = outputFile
	j.DownloadName = downloadName
}

// MarkCancelled transitions a job to cancelled. A no-op if already terminal.
func (r *Registry) MarkCancelled(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	j.Status = types.JobCancelled
	j.Message = "Cancelled"
}

// MarkError transitions a job to error with the given message. A no-op if
// already terminal, so a synthesizer failure racing a cancellation never
// overwrites the cancellation.
func (r *Registry) MarkError(id, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	j.Status = types.JobError
	j.Message = message
}

// Cancel transitions a job to cancelled on behalf of a client request. A
// no-op if the job is unknown or already terminal; returns false in that
// case so the caller can report "already finished" rather than silently
// succeeding.
func (r *Registry) Cancel(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return false
	}
	j.Status = types.JobCancelled
	j.Message = "Cancelled"
	return true
}

// IsCancelled reports whether the job has been asked to cancel. Workers
// poll this between audio chunks and while waiting on the chapter
// semaphore.
func (r *Registry) IsCancelled(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	return ok && j.Status == types.JobCancelled
}

// Sweep deletes job records older than maxAge whose status is terminal,
// mirroring the book registry's idle-cleanup age check. Processing jobs
// are never swept regardless of age.
func (r *Registry) Sweep(maxAge time.Duration) {
	cutoff := time.Now().Add(-maxAge)
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, j := range r.jobs {
		if j.Status.Terminal() && j.CreatedAt.Before(cutoff) {
			delete(r.jobs, id)
		}
	}
}
