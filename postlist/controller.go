// Package postlist keeps the list of posts a view is showing in sync with the
// store: first page, infinite scrolling, refresh and client-side search.
//
// Every fetch is tagged with a generation. When a fetch completes after a newer
// one was started its result is dropped, so a slow load-more can never append
// to a list that a refresh or search has already replaced.
package postlist

import (
	"context"
	"postboard/storage"
	"postboard/storage/models"
	"strings"
	"sync"
)

const PageSize = 10

const SearchFailedMessage = "Failed to search posts."

// Source is the part of storage.Storage the controller reads from.
type Source interface {
	ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error)
	ScanAll(ctx context.Context) ([]models.Post, error)
}

type Controller struct {
	src Source

	mu         sync.Mutex
	state      State
	cursor     storage.Cursor
	generation uint64

	// notifyMu keeps listener calls in transition order.
	notifyMu sync.Mutex
	listener func(State)
}

type Option func(*Controller)

// WithListener registers fn to receive a snapshot after every transition.
// fn must not call controller actions synchronously.
func WithListener(fn func(State)) Option {
	return func(c *Controller) {
		c.listener = fn
	}
}

// New builds a controller and loads the first page before returning.
func New(ctx context.Context, src Source, opts ...Option) *Controller {
	c := &Controller{src: src}
	for _, opt := range opts {
		opt(c)
	}
	c.LoadFirstPage(ctx)
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// LoadFirstPage fetches the newest page and replaces the list with it. On
// failure the previous list and cursor are kept.
func (c *Controller) LoadFirstPage(ctx context.Context) error {
	c.mu.Lock()
	gen := c.start()
	c.unlockAndNotify()

	page, err := c.src.ListPage(ctx, PageSize, "")

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.fail(storage.Message(err))
	} else {
		c.state.Posts = page.Posts
		c.state.HasMore = hasMore(page)
		c.state.Mode = ModeList
		c.state.Term = ""
		c.state.Status = StatusReady
		c.cursor = page.Next
	}
	c.unlockAndNotify()
	return err
}

// Refresh reloads the first page and always leaves search mode.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.LoadFirstPage(ctx)
}

// LoadMore appends the next page. It does nothing while another fetch is in
// flight, once the list is exhausted, or in search mode.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.state.Status == StatusLoading || !c.state.HasMore || c.state.Mode == ModeSearch {
		c.mu.Unlock()
		return nil
	}
	gen := c.start()
	cursor := c.cursor
	c.unlockAndNotify()

	page, err := c.src.ListPage(ctx, PageSize, cursor)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.fail(storage.Message(err))
	} else {
		posts := make([]models.Post, 0, len(c.state.Posts)+len(page.Posts))
		posts = append(posts, c.state.Posts...)
		c.state.Posts = append(posts, page.Posts...)
		c.state.HasMore = hasMore(page)
		c.state.Status = StatusReady
		c.cursor = page.Next
	}
	c.unlockAndNotify()
	return err
}

// Search replaces the list with every post matching term. A blank term
// behaves like Refresh.
func (c *Controller) Search(ctx context.Context, term string) error {
	if strings.TrimSpace(term) == "" {
		return c.Refresh(ctx)
	}

	c.mu.Lock()
	gen := c.start()
	c.unlockAndNotify()

	posts, err := c.src.ScanAll(ctx)

	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return nil
	}
	if err != nil {
		c.fail(SearchFailedMessage)
	} else {
		c.state.Posts = Filter(posts, term)
		c.state.HasMore = false
		c.state.Mode = ModeSearch
		c.state.Term = term
		c.state.Status = StatusReady
		c.cursor = ""
	}
	c.unlockAndNotify()
	return err
}

// start opens a new generation. Callers hold mu.
func (c *Controller) start() uint64 {
	c.generation++
	c.state.Status = StatusLoading
	c.state.Err = ""
	return c.generation
}

// fail keeps whatever is already shown. Callers hold mu.
func (c *Controller) fail(message string) {
	c.state.Status = StatusFailed
	c.state.Err = message
}

func (c *Controller) unlockAndNotify() {
	if c.listener == nil {
		c.mu.Unlock()
		return
	}
	snapshot := c.state.clone()
	c.notifyMu.Lock()
	c.mu.Unlock()
	defer c.notifyMu.Unlock()
	c.listener(snapshot)
}

func hasMore(page storage.Page) bool {
	return len(page.Posts) == PageSize && page.Next != ""
}

// Matches reports whether term appears, ignoring case, in the title, the
// content or any tag of p.
func Matches(p models.Post, term string) bool {
	needle := strings.ToLower(term)
	if strings.Contains(strings.ToLower(p.Title), needle) ||
		strings.Contains(strings.ToLower(p.Content), needle) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

// Filter keeps the matching posts in their original order.
func Filter(posts []models.Post, term string) []models.Post {
	matches := make([]models.Post, 0)
	for _, p := range posts {
		if Matches(p, term) {
			matches = append(matches, p)
		}
	}
	return matches
}
