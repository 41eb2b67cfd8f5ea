package storage

import (
	"context"
	"postboard/storage/models"
)

// Cursor is an opaque pagination token pointing at the last post of a page.
// The zero value means "start from the newest post".
type Cursor string

type Page struct {
	Posts []models.Post
	// Next is empty when there is nothing after this page.
	Next Cursor
}

type Storage interface {
	ListPage(ctx context.Context, size int, after Cursor) (Page, error)
	GetPost(ctx context.Context, id string) (models.Post, error)
	AddPost(ctx context.Context, in models.PostInput) (string, error)
	UpdatePost(ctx context.Context, id string, in models.PostInput) error
	RemovePost(ctx context.Context, id string) error
	ScanAll(ctx context.Context) ([]models.Post, error)
}
