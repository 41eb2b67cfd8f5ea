package remote_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"postboard/handlers"
	"postboard/storage"
	"postboard/storage/in_memory"
	"postboard/storage/models"
	"postboard/storage/remote"
	"postboard/storage/storagetest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestRemoteStorage(t *testing.T) {
	suite.Run(t, &storagetest.StorageSuite{
		Open: func(t *testing.T) (storage.Storage, func()) {
			srv := httptest.NewServer(handlers.NewRouter(in_memory.CreateInMemoryStorage()))
			return remote.CreateClient(srv.URL), srv.Close
		},
	})
}

// brokenStorage fails every call the way a store with a dead connection would.
type brokenStorage struct{}

var errBroken = errors.New("connection refused")

func (brokenStorage) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	return storage.Page{}, errors.Join(errBroken, storage.ReadFailed)
}

func (brokenStorage) GetPost(ctx context.Context, id string) (models.Post, error) {
	return models.Post{}, storage.ReadFailed
}

func (brokenStorage) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	return "", storage.WriteFailed
}

func (brokenStorage) UpdatePost(ctx context.Context, id string, in models.PostInput) error {
	return storage.WriteFailed
}

func (brokenStorage) RemovePost(ctx context.Context, id string) error {
	return storage.DeleteFailed
}

func (brokenStorage) ScanAll(ctx context.Context) ([]models.Post, error) {
	return nil, storage.ReadFailed
}

func TestServerFailuresMapToTaxonomy(t *testing.T) {
	srv := httptest.NewServer(handlers.NewRouter(brokenStorage{}))
	defer srv.Close()
	client := remote.CreateClient(srv.URL)
	ctx := context.Background()
	valid := models.PostInput{Title: "title", Content: "valid content"}

	_, err := client.ListPage(ctx, 10, "")
	require.ErrorIs(t, err, storage.ReadFailed)
	require.NotErrorIs(t, err, storage.InvalidCursor)

	_, err = client.ScanAll(ctx)
	require.ErrorIs(t, err, storage.ReadFailed)

	_, err = client.AddPost(ctx, valid)
	require.ErrorIs(t, err, storage.WriteFailed)

	require.ErrorIs(t, client.UpdatePost(ctx, "some-id", valid), storage.WriteFailed)
	require.ErrorIs(t, client.RemovePost(ctx, "some-id"), storage.DeleteFailed)
}

func TestValidationErrorsCarryTheField(t *testing.T) {
	srv := httptest.NewServer(handlers.NewRouter(in_memory.CreateInMemoryStorage()))
	defer srv.Close()
	client := remote.CreateClient(srv.URL)

	_, err := client.AddPost(context.Background(), models.PostInput{Title: "title", Content: "short"})
	require.ErrorIs(t, err, storage.ValidationFailed)

	var validationErr *storage.ValidationError
	require.True(t, errors.As(err, &validationErr))
	require.Equal(t, "content", validationErr.Field)
}

func TestUnreachableServerIsReadFailed(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := remote.CreateClient(url).ListPage(context.Background(), 10, "")
	require.ErrorIs(t, err, storage.ReadFailed)
}

func TestPageSizeIsCheckedBeforeSending(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	client := remote.CreateClient(srv.URL)

	for _, size := range []int{0, 101} {
		_, err := client.ListPage(context.Background(), size, "")
		require.ErrorIs(t, err, storage.ReadFailed)
		require.NotErrorIs(t, err, storage.InvalidCursor)
	}
	require.Zero(t, requests)
}

func TestOnlyCursorRejectionsAreInvalidCursor(t *testing.T) {
	message := ""
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error": %q}`, message)
	}))
	defer srv.Close()
	client := remote.CreateClient(srv.URL)

	message = "Invalid size."
	_, err := client.ListPage(context.Background(), 10, "")
	require.ErrorIs(t, err, storage.ValidationFailed)
	require.NotErrorIs(t, err, storage.InvalidCursor)

	message = storage.InvalidCursorMessage
	_, err = client.ListPage(context.Background(), 10, "c")
	require.ErrorIs(t, err, storage.InvalidCursor)
}
