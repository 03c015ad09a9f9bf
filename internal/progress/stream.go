// Package progress implements the Progress Stream: a server-sent lazy
// sequence of job-state snapshots that terminates once the job reaches a
// terminal status.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/duskline/narrator/internal/job"
	"github.com/duskline/narrator/pkg/types"
)

// snapshot is the wire shape of each SSE event: {status, progress, message}.
type snapshot struct {
	Status   types.JobStatus `json:"status"`
	Progress float64         `json:"progress"`
	Message  string          `json:"message"`
}

type errorEvent struct {
	Error string `json:"error"`
}

// Stream writes newline-delimited `data: <json>\n\n` events for jobID to w
// every pollInterval until the job reaches a terminal status or ctx is
// cancelled. requesterUserID is captured once, at stream initiation, and
// is never re-evaluated per tick, matching the spec's identity-capture
// rule: a job whose owner changes mid-stream (it can't) or whose
// ownership was valid at subscribe time keeps streaming.
func Stream(ctx context.Context, w http.ResponseWriter, jobs *job.Registry, jobID, requesterUserID string, pollInterval time.Duration) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return fmt.Errorf("response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	j, ok := jobs.Snapshot(jobID)
	if !ok {
		return writeEvent(w, flusher, errorEvent{Error: "job not found"})
	}
	if j.UserID != "" && j.UserID != requesterUserID {
		return writeEvent(w, flusher, errorEvent{Error: types.ErrUnauthorized.Error()})
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		j, ok := jobs.Snapshot(jobID)
		if !ok {
			return writeEvent(w, flusher, errorEvent{Error: "job not found"})
		}

		if err := writeEvent(w, flusher, snapshot{Status: j.Status, Progress: j.Progress, Message: j.Message}); err != nil {
			return err
		}
		if j.Status.Terminal() {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
