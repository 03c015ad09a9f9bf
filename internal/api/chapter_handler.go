package api

import (
	"net/http"
	"strings"
)

// ConvertChapter handles POST /api/v1/books/{id}/chapters/{index}/convert.
func (h *Handler) ConvertChapter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bookID, index, ok := splitChapterPath(r.URL.Path)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed chapter path"})
		return
	}

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	j, err := h.orch.ConvertChapter(r.Context(), bookID, index, id.UserID, id.IsPremium)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}

// ConvertAll handles POST /api/v1/books/{id}/convert-all.
func (h *Handler) ConvertAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	bookID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/books/"), "/convert-all")

	id, err := h.resolveIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	jobs, err := h.orch.ConvertAll(r.Context(), bookID, id.UserID, id.IsPremium)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobs)
}

// splitChapterPath extracts {id} and {index} from
// /api/v1/books/{id}/chapters/{index}/convert.
func splitChapterPath(path string) (bookID string, index int, ok bool) {
	trimmed := strings.TrimPrefix(path, "/api/v1/books/")
	trimmed = strings.TrimSuffix(trimmed, "/convert")
	parts := strings.Split(trimmed, "/chapters/")
	if len(parts) != 2 {
		return "", 0, false
	}
	idx, parsedOK := parseChapterIndex(parts[1], "", "")
	return parts[0], idx, parsedOK
}
