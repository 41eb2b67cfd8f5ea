package handlers

import (
	"net/http"
	"postboard/storage"
	"postboard/storage/models"
)

type ListPostsResponse struct {
	Posts      []models.Post `json:"posts"`
	NextCursor *string       `json:"nextCursor,omitempty"`
}

func (h *HTTPHandler) HandleGetPosts(w http.ResponseWriter, r *http.Request) {
	size, ok := parsePageSize(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid size."})
		return
	}
	cursor := storage.Cursor(r.URL.Query().Get("cursor"))

	page, err := h.Storage.ListPage(r.Context(), size, cursor)
	if err != nil {
		writeStorageError(w, "listing posts", err)
		return
	}

	response := ListPostsResponse{Posts: page.Posts}
	if page.Next != "" {
		next := string(page.Next)
		response.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, response)
}
