package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/duskline/narrator/pkg/types"
)

// Analyze handles POST /api/v1/books: a premium-only chapter breakdown of
// an uploaded PDF or EPUB, optionally overridden by a manual_segments JSON
// array of {name, start_page, end_page} objects.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing \"file\" field"})
		return
	}
	defer file.Close()

	path, _, err := h.saveUpload(file, header)
	if err != nil {
		writeError(w, err)
		return
	}

	var manualSegments []types.ManualSegment
	if raw := r.FormValue("manual_segments"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &manualSegments); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid manual_segments: " + err.Error()})
			return
		}
	}

	voice := r.FormValue("voice")
	rate := r.FormValue("rate")

	b, err := h.orch.Analyze(r.Context(), path, header.Filename, voice, rate, id.UserID, id.IsPremium, manualSegments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// GetBook handles GET /api/v1/books/{id}: returns the book's chapter list.
func (h *Handler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := strings.TrimPrefix(r.URL.Path, "/api/v1/books/")
	bookID = strings.TrimSuffix(bookID, "/")

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.books.CheckOwnership(bookID, id.UserID); err != nil {
		writeError(w, err)
		return
	}
	b, ok := h.books.Get(bookID)
	if !ok {
		writeError(w, types.ErrChapterNotFound)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func parseChapterIndex(path, prefix, suffix string) (int, bool) {
	trimmed := strings.TrimPrefix(path, prefix)
	trimmed = strings.TrimSuffix(trimmed, suffix)
	idx, err := strconv.Atoi(trimmed)
	return idx, err == nil
}
