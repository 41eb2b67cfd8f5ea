package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *HTTPHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["postId"]
	if err := h.Storage.RemovePost(r.Context(), postId); err != nil {
		writeStorageError(w, "deleting post", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
