package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"postboard/storage"
	"postboard/storage/models"
)

type CreatePostResponse struct {
	Id string `json:"id"`
}

func decodePostInput(w http.ResponseWriter, r *http.Request) (models.PostInput, bool) {
	var data models.PostInput
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		log.Printf("Failed to decode post data: %s", err.Error())
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Malformed request body."})
		return models.PostInput{}, false
	}
	data = storage.TrimPostInput(data)
	if err := storage.ValidatePostInput(data); err != nil {
		writeStorageError(w, "validating post", err)
		return models.PostInput{}, false
	}
	return data, true
}

func (h *HTTPHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	data, ok := decodePostInput(w, r)
	if !ok {
		return
	}
	id, err := h.Storage.AddPost(r.Context(), data)
	if err != nil {
		writeStorageError(w, "creating post", err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatePostResponse{Id: id})
}
