// Package api exposes the Orchestrator's four operations, job status and
// progress streaming, and audio download over plain net/http — the same
// raw ServeMux style the rest of this server uses instead of a router
// framework.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/duskline/narrator/internal/book"
	"github.com/duskline/narrator/internal/identity"
	"github.com/duskline/narrator/internal/job"
	"github.com/duskline/narrator/internal/orchestrator"
	"github.com/duskline/narrator/pkg/types"
)

// Handler wires HTTP requests to the Orchestrator and the registries it
// shares with it.
type Handler struct {
	orch       *orchestrator.Orchestrator
	jobs       *job.Registry
	books      *book.Registry
	identities identity.Provider
	uploadRoot string
}

// NewHandler returns a Handler. uploadRoot is the local directory incoming
// files are staged to before the Orchestrator reads them; it must be the
// same base directory the Orchestrator and its storage adapter use.
func NewHandler(orch *orchestrator.Orchestrator, jobs *job.Registry, books *book.Registry, identities identity.Provider, uploadRoot string) *Handler {
	return &Handler{orch: orch, jobs: jobs, books: books, identities: identities, uploadRoot: uploadRoot}
}

// resolveIdentity pulls the bearer credential (if any) from the request and
// resolves it once, at the start of the request — streaming handlers must
// not re-resolve it per tick.
func (h *Handler) resolveIdentity(r *http.Request) (*identity.Identity, error) {
	credential := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return h.identities.Resolve(r.Context(), credential)
}

// saveUpload stages a multipart file to uploads/<uuid>.<ext> on local disk
// and returns its path plus the validated extension.
func (h *Handler) saveUpload(file multipart.File, header *multipart.FileHeader) (path, ext string, err error) {
	ext, err = h.orch.ValidateUpload(header.Filename, header.Size)
	if err != nil {
		return "", "", err
	}

	dir := filepath.Join(h.uploadRoot, "uploads")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", "", err
	}
	path = filepath.Join(dir, uuid.NewString()+"."+ext)

	out, err := os.Create(path)
	if err != nil {
		return "", "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, file); err != nil {
		os.Remove(path)
		return "", "", err
	}
	return path, ext, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error           string `json:"error"`
	RequiresPremium bool   `json:"requires_premium,omitempty"`
}

// writeError maps a domain error to the HTTP status and body the error
// handling design's disposition table calls for.
func writeError(w http.ResponseWriter, err error) {
	var quota *types.QuotaError
	switch {
	case errors.As(err, &quota):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: quota.Error(), RequiresPremium: quota.RequiresPremium})
	case errors.Is(err, types.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, types.ErrUnsupportedFileType), errors.Is(err, types.ErrChapterNotFound):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}
