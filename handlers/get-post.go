package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *HTTPHandler) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	postId := mux.Vars(r)["postId"]
	post, err := h.Storage.GetPost(r.Context(), postId)
	if err != nil {
		writeStorageError(w, "getting post", err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(post.ToJson())
}
