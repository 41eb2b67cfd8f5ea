package handlers

import "net/http"

// HandleArchive returns every post newest first. Clients search it locally.
func (h *HTTPHandler) HandleArchive(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Storage.ScanAll(r.Context())
	if err != nil {
		writeStorageError(w, "scanning posts", err)
		return
	}
	writeJSON(w, http.StatusOK, ListPostsResponse{Posts: posts})
}
