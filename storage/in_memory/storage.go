package in_memory

import (
	"context"
	"fmt"
	"postboard/storage"
	"postboard/storage/models"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InMemoryStorage struct {
	mut   sync.RWMutex
	posts map[string]models.Post
	now   func() time.Time
}

type Option func(*InMemoryStorage)

// WithClock replaces time.Now, mostly so tests get distinct timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *InMemoryStorage) {
		s.now = now
	}
}

func CreateInMemoryStorage(opts ...Option) *InMemoryStorage {
	s := &InMemoryStorage{
		posts: make(map[string]models.Post),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ordered returns every post sorted newest first. Callers hold the read lock.
func (s *InMemoryStorage) ordered() []models.Post {
	posts := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, clonePost(p))
	}
	sort.Slice(posts, func(i, j int) bool {
		return storage.OlderThan(posts[j].CreatedAt, posts[j].Id, posts[i].CreatedAt, posts[i].Id)
	})
	return posts
}

func (s *InMemoryStorage) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	if size < 1 {
		return storage.Page{}, fmt.Errorf("page size %d: %w", size, storage.ReadFailed)
	}
	var (
		hasCursor bool
		cursorAt  time.Time
		cursorId  string
	)
	if after != "" {
		var err error
		cursorAt, cursorId, err = storage.DecodeCursor(after)
		if err != nil {
			return storage.Page{}, err
		}
		hasCursor = true
	}

	s.mut.RLock()
	defer s.mut.RUnlock()

	posts := make([]models.Post, 0, size)
	for _, p := range s.ordered() {
		if hasCursor && !storage.OlderThan(p.CreatedAt, p.Id, cursorAt, cursorId) {
			continue
		}
		if len(posts) == size {
			last := posts[len(posts)-1]
			return storage.Page{Posts: posts, Next: storage.EncodeCursor(last.CreatedAt, last.Id)}, nil
		}
		posts = append(posts, p)
	}
	return storage.Page{Posts: posts}, nil
}

func (s *InMemoryStorage) GetPost(ctx context.Context, id string) (models.Post, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	post, found := s.posts[id]
	if !found {
		return models.Post{}, fmt.Errorf("no post with id %v: %w", id, storage.NotFoundError)
	}
	return clonePost(post), nil
}

func (s *InMemoryStorage) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	s.mut.Lock()
	defer s.mut.Unlock()

	now := s.now().UTC()
	p := models.Post{
		Id:        uuid.New().String(),
		Title:     in.Title,
		Content:   in.Content,
		Author:    models.AnonymousAuthor,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      in.NormalizedTags(),
	}
	s.posts[p.Id] = p
	return p.Id, nil
}

func (s *InMemoryStorage) UpdatePost(ctx context.Context, id string, in models.PostInput) error {
	s.mut.Lock()
	defer s.mut.Unlock()

	p, found := s.posts[id]
	if !found {
		return fmt.Errorf("no post with id %v: %w", id, storage.NotFoundError)
	}
	now := s.now().UTC()
	if now.Before(p.UpdatedAt) {
		now = p.UpdatedAt
	}
	p.Title = in.Title
	p.Content = in.Content
	p.Tags = in.NormalizedTags()
	p.UpdatedAt = now
	s.posts[id] = p
	return nil
}

func (s *InMemoryStorage) RemovePost(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("empty post id: %w", storage.NotFoundError)
	}
	s.mut.Lock()
	defer s.mut.Unlock()

	delete(s.posts, id)
	return nil
}

func (s *InMemoryStorage) ScanAll(ctx context.Context) ([]models.Post, error) {
	s.mut.RLock()
	defer s.mut.RUnlock()

	return s.ordered(), nil
}

func clonePost(p models.Post) models.Post {
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	p.Tags = tags
	return p
}
