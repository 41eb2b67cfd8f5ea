package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"postboard/storage"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

const INTERNAL_ERROR_MESSAGE = "Internal server error."

var (
	DEFAULT_PAGE_SIZE = 10
	MAX_PAGE_SIZE     = 100
)

type HTTPHandler struct {
	Storage storage.Storage
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func NewRouter(s storage.Storage) *mux.Router {
	handler := &HTTPHandler{Storage: s}

	r := mux.NewRouter()
	r.Use(LogRequests)
	r.HandleFunc("/maintenance/ping", handler.HealthCheck).Methods("GET")
	r.HandleFunc("/api/v1/posts", handler.HandleGetPosts).Methods("GET")
	r.HandleFunc("/api/v1/posts", handler.HandleCreatePost).Methods("POST")
	r.HandleFunc("/api/v1/posts/{postId}", handler.HandleGetPost).Methods("GET")
	r.HandleFunc("/api/v1/posts/{postId}", handler.HandlePatchPost).Methods("PATCH")
	r.HandleFunc("/api/v1/posts/{postId}", handler.HandleDeletePost).Methods("DELETE")
	r.HandleFunc("/api/v1/archive", handler.HandleArchive).Methods("GET")
	return r
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	rawResponse, err := json.Marshal(v)
	if err != nil {
		log.Printf("Failed to dump response to json: %s", err.Error())
		http.Error(w, INTERNAL_ERROR_MESSAGE, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(rawResponse); err != nil {
		log.Printf("Failed to write response: %s", err.Error())
	}
}

// writeStorageError maps the storage error taxonomy onto HTTP statuses.
func writeStorageError(w http.ResponseWriter, action string, err error) {
	var validationErr *storage.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: validationErr.Message, Field: validationErr.Field})
	case errors.Is(err, storage.InvalidCursor):
		log.Printf("Client error while %s: %s", action, err.Error())
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: storage.InvalidCursorMessage})
	case errors.Is(err, storage.NotFoundError):
		log.Printf("Not Found error while %s: %s", action, err.Error())
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: storage.NotFoundMessage})
	default:
		log.Printf("Internal error while %s: %s", action, err.Error())
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: storage.Message(err)})
	}
}

func parsePageSize(r *http.Request) (int, bool) {
	cgiSize, found := r.URL.Query()["size"]
	if !found {
		return DEFAULT_PAGE_SIZE, true
	}
	size, err := strconv.Atoi(cgiSize[0])
	if err != nil || size < 1 || size > MAX_PAGE_SIZE {
		return 0, false
	}
	return size, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d (%s)", r.Method, r.URL.RequestURI(), rec.status, time.Since(start))
	})
}
