package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *HTTPHandler) HandlePatchPost(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["postId"]
	data, ok := decodePostInput(w, r)
	if !ok {
		return
	}

	if err := h.Storage.UpdatePost(r.Context(), postId, data); err != nil {
		writeStorageError(w, "updating post", err)
		return
	}
	post, err := h.Storage.GetPost(r.Context(), postId)
	if err != nil {
		writeStorageError(w, "reading updated post", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
