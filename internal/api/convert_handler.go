package api

import (
	"net/http"
)

// ConvertSingle handles POST /api/v1/convert: a whole-document, no-chapter
// conversion available to every tier.
func (h *Handler) ConvertSingle(w http.ResponseWriter, r *http.Request) {
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

	voice := r.FormValue("voice")
	rate := r.FormValue("rate")

	j, err := h.orch.ConvertSingle(r.Context(), path, header.Filename, voice, rate, id.UserID, id.IsPremium)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, j)
}
