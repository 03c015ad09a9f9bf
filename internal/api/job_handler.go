package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/duskline/narrator/internal/progress"
	"github.com/duskline/narrator/pkg/types"
)

const progressPollInterval = 500 * time.Millisecond

// GetJob handles GET /api/v1/jobs/{id}: a one-shot status snapshot.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/")
	snap, ok := h.jobs.Snapshot(jobID)
	if !ok {
		writeError(w, types.ErrChapterNotFound)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// StreamProgress handles GET /api/v1/jobs/{id}/stream: Server-Sent Events
// of job progress until a terminal status is reached.
func (h *Handler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/stream")

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := progress.Stream(r.Context(), w, h.jobs, jobID, id.UserID, progressPollInterval); err != nil {
		// The client disconnected or the context was cancelled; nothing
		// further can be written to the response.
		return
	}
}

// CancelJob handles POST /api/v1/jobs/{id}/cancel: sets the job's status
// to cancelled. The worker observes this on its own schedule (between audio
// chunks, or while waiting on the chapter semaphore) and is responsible for
// deleting its partial output file.
func (h *Handler) CancelJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/cancel")

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, ok := h.jobs.Snapshot(jobID)
	if !ok {
		writeError(w, types.ErrChapterNotFound)
		return
	}
	if snap.UserID != "" && snap.UserID != id.UserID {
		writeError(w, types.ErrUnauthorized)
		return
	}

	if !h.jobs.Cancel(jobID) {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "job already finished"})
		return
	}
	snap, _ = h.jobs.Snapshot(jobID)
	writeJSON(w, http.StatusAccepted, snap)
}

// DownloadJob handles GET /api/v1/jobs/{id}/download: serves the completed
// MP3 for a job; an unknown job gets 400 and one that isn't complete yet
// gets 409.
func (h *Handler) DownloadJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/"), "/download")

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, ok := h.jobs.Snapshot(jobID)
	if !ok {
		writeError(w, types.ErrChapterNotFound)
		return
	}
	if snap.UserID != "" && snap.UserID != id.UserID {
		writeError(w, types.ErrUnauthorized)
		return
	}
	if snap.Status != types.JobCompleted {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "job is not complete"})
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+snap.DownloadName+"\"")
	http.ServeFile(w, r, snap.OutputFile)
}
