package postlist_test

import (
	"context"
	"errors"
	"fmt"
	"postboard/postlist"
	"postboard/storage"
	"postboard/storage/in_memory"
	"postboard/storage/models"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// seed creates n posts one minute apart and returns their ids oldest first.
func seed(t *testing.T, n int, tags func(i int) []string) (*in_memory.InMemoryStorage, []string) {
	t.Helper()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store := in_memory.CreateInMemoryStorage(in_memory.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		in := models.PostInput{
			Title:   fmt.Sprintf("Post %02d", i),
			Content: fmt.Sprintf("Body of post number %02d", i),
		}
		if tags != nil {
			in.Tags = tags(i)
		}
		id, err := store.AddPost(ctx, in)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return store, ids
}

func newestFirst(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func postIds(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Id)
	}
	return ids
}

// gatedSource counts calls and can hold ListPage until released.
type gatedSource struct {
	inner postlist.Source

	mu        sync.Mutex
	listCalls int
	scanCalls int
	gate      chan struct{}
	entered   chan struct{}
	failList  bool
	failScan  bool
}

func (g *gatedSource) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	g.mu.Lock()
	g.listCalls++
	gate, entered, fail := g.gate, g.entered, g.failList
	g.mu.Unlock()

	if gate != nil {
		entered <- struct{}{}
		<-gate
	}
	if fail {
		return storage.Page{}, fmt.Errorf("connection reset: %w", storage.ReadFailed)
	}
	return g.inner.ListPage(ctx, size, after)
}

func (g *gatedSource) ScanAll(ctx context.Context) ([]models.Post, error) {
	g.mu.Lock()
	g.scanCalls++
	fail := g.failScan
	g.mu.Unlock()

	if fail {
		return nil, fmt.Errorf("connection reset: %w", storage.ReadFailed)
	}
	return g.inner.ScanAll(ctx)
}

// hold makes the next ListPage call block. entered fires once it is waiting.
func (g *gatedSource) hold() (<-chan struct{}, func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	gate := make(chan struct{})
	entered := make(chan struct{}, 1)
	g.gate, g.entered = gate, entered
	return entered, func() {
		g.mu.Lock()
		g.gate, g.entered = nil, nil
		g.mu.Unlock()
		close(gate)
	}
}

func (g *gatedSource) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.listCalls, g.scanCalls
}

func (g *gatedSource) setFailures(list, scan bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failList, g.failScan = list, scan
}

func TestFifteenPostsPaginateInTwoPages(t *testing.T) {
	store, ids := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	expected := newestFirst(ids)

	c := postlist.New(ctx, src)
	state := c.State()
	require.Equal(t, postlist.StatusReady, state.Status)
	require.Equal(t, postlist.ModeList, state.Mode)
	require.Equal(t, expected[:10], postIds(state.Posts))
	require.True(t, state.HasMore)

	require.NoError(t, c.LoadMore(ctx))
	state = c.State()
	require.Equal(t, expected, postIds(state.Posts))
	require.False(t, state.HasMore)

	require.NoError(t, c.LoadMore(ctx))
	listCalls, _ := src.calls()
	require.Equal(t, 2, listCalls)
	require.Equal(t, expected, postIds(c.State().Posts))
}

func TestPaginationIsCompleteAndNonDuplicating(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 20, 37} {
		t.Run(fmt.Sprintf("%d posts", n), func(t *testing.T) {
			store, ids := seed(t, n, nil)
			c := postlist.New(ctx, store)
			for c.State().HasMore {
				require.NoError(t, c.LoadMore(ctx))
			}
			state := c.State()
			require.Equal(t, postlist.StatusReady, state.Status)
			require.Equal(t, newestFirst(ids), postIds(state.Posts))
			for i := 1; i < len(state.Posts); i++ {
				require.False(t, state.Posts[i].CreatedAt.After(state.Posts[i-1].CreatedAt))
			}
		})
	}
}

func TestExactPageDoesNotOfferMore(t *testing.T) {
	store, _ := seed(t, postlist.PageSize, nil)
	c := postlist.New(ctx, store)
	require.Len(t, c.State().Posts, postlist.PageSize)
	require.False(t, c.State().HasMore)
}

func TestSearchMatchesTitleContentAndTags(t *testing.T) {
	store, _ := seed(t, 12, func(i int) []string {
		if i%4 == 0 {
			return []string{"GoLang", "misc"}
		}
		return []string{"misc"}
	})
	_, err := store.AddPost(ctx, models.PostInput{Title: "Why GOLANG", Content: "no tags on this one"})
	require.NoError(t, err)
	_, err = store.AddPost(ctx, models.PostInput{Title: "Plain", Content: "I write golang at work"})
	require.NoError(t, err)

	c := postlist.New(ctx, store)
	require.NoError(t, c.Search(ctx, "goLANG"))

	all, err := store.ScanAll(ctx)
	require.NoError(t, err)
	expected := make([]string, 0)
	for _, p := range all {
		if postlist.Matches(p, "golang") {
			expected = append(expected, p.Id)
		}
	}

	state := c.State()
	require.Equal(t, postlist.ModeSearch, state.Mode)
	require.Equal(t, postlist.StatusReady, state.Status)
	require.Equal(t, "goLANG", state.Term)
	require.False(t, state.HasMore)
	require.Equal(t, expected, postIds(state.Posts))
	require.Len(t, state.Posts, 5)
}

func TestSearchWithNoMatches(t *testing.T) {
	store, _ := seed(t, 3, nil)
	c := postlist.New(ctx, store)
	require.NoError(t, c.Search(ctx, "nothing like this"))
	state := c.State()
	require.Equal(t, postlist.ModeSearch, state.Mode)
	require.Empty(t, state.Posts)
}

func TestBlankSearchIsRefresh(t *testing.T) {
	store, ids := seed(t, 15, nil)
	c := postlist.New(ctx, store)
	require.NoError(t, c.Search(ctx, "Post 03"))
	require.Equal(t, postlist.ModeSearch, c.State().Mode)

	require.NoError(t, c.Search(ctx, "   "))
	state := c.State()
	require.Equal(t, postlist.ModeList, state.Mode)
	require.Empty(t, state.Term)
	require.True(t, state.HasMore)
	require.Equal(t, newestFirst(ids)[:10], postIds(state.Posts))
}

func TestRefreshLeavesSearchModeAndResetsCursor(t *testing.T) {
	store, ids := seed(t, 15, nil)
	c := postlist.New(ctx, store)
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.Search(ctx, "post"))

	require.NoError(t, c.Refresh(ctx))
	state := c.State()
	require.Equal(t, postlist.ModeList, state.Mode)
	require.Equal(t, newestFirst(ids)[:10], postIds(state.Posts))

	require.NoError(t, c.LoadMore(ctx))
	require.Equal(t, newestFirst(ids), postIds(c.State().Posts))
}

func TestLoadMoreIsNoopInSearchMode(t *testing.T) {
	store, _ := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)
	require.NoError(t, c.Search(ctx, "post"))

	require.NoError(t, c.LoadMore(ctx))
	listCalls, _ := src.calls()
	require.Equal(t, 1, listCalls)
	require.Len(t, c.State().Posts, 15)
}

func TestOverlappingLoadMoreAppendsOnePage(t *testing.T) {
	store, ids := seed(t, 25, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)

	entered, release := src.hold()
	done := make(chan error, 1)
	go func() { done <- c.LoadMore(ctx) }()
	<-entered

	require.True(t, c.State().IsLoading())
	require.NoError(t, c.LoadMore(ctx))
	require.NoError(t, c.LoadMore(ctx))

	release()
	require.NoError(t, <-done)

	listCalls, _ := src.calls()
	require.Equal(t, 2, listCalls)
	state := c.State()
	require.Equal(t, newestFirst(ids)[:20], postIds(state.Posts))
	require.True(t, state.HasMore)
}

func TestLateLoadMoreIsDiscardedAfterSearch(t *testing.T) {
	store, _ := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)

	entered, release := src.hold()
	done := make(chan error, 1)
	go func() { done <- c.LoadMore(ctx) }()
	<-entered

	require.NoError(t, c.Search(ctx, "Post 1"))
	searched := c.State()
	require.Equal(t, postlist.ModeSearch, searched.Mode)

	release()
	require.NoError(t, <-done)

	state := c.State()
	require.Equal(t, postlist.ModeSearch, state.Mode)
	require.Equal(t, postlist.StatusReady, state.Status)
	require.Equal(t, postIds(searched.Posts), postIds(state.Posts))
	require.False(t, state.HasMore)
}

func TestLateRefreshIsDiscardedAfterSearch(t *testing.T) {
	store, _ := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)

	entered, release := src.hold()
	done := make(chan error, 1)
	go func() { done <- c.Refresh(ctx) }()
	<-entered

	require.NoError(t, c.Search(ctx, "Post 0"))
	release()
	require.NoError(t, <-done)

	state := c.State()
	require.Equal(t, postlist.ModeSearch, state.Mode)
	require.Len(t, state.Posts, 10)
}

func TestFailedLoadMoreKeepsPostsAndCanBeRetried(t *testing.T) {
	store, ids := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)

	src.setFailures(true, false)
	err := c.LoadMore(ctx)
	require.True(t, errors.Is(err, storage.ReadFailed))

	state := c.State()
	require.Equal(t, postlist.StatusFailed, state.Status)
	require.Equal(t, storage.ReadFailedMessage, state.Err)
	require.Equal(t, newestFirst(ids)[:10], postIds(state.Posts))
	require.True(t, state.HasMore)

	src.setFailures(false, false)
	require.NoError(t, c.LoadMore(ctx))
	state = c.State()
	require.Equal(t, postlist.StatusReady, state.Status)
	require.Empty(t, state.Err)
	require.Equal(t, newestFirst(ids), postIds(state.Posts))
}

func TestFailedFirstLoad(t *testing.T) {
	store, _ := seed(t, 5, nil)
	src := &gatedSource{inner: store, failList: true}
	c := postlist.New(ctx, src)

	state := c.State()
	require.Equal(t, postlist.StatusFailed, state.Status)
	require.Equal(t, storage.ReadFailedMessage, state.Err)
	require.Empty(t, state.Posts)
	require.False(t, state.HasMore)

	src.setFailures(false, false)
	require.NoError(t, c.Refresh(ctx))
	require.Len(t, c.State().Posts, 5)
}

func TestFailedRefreshKeepsSearchResults(t *testing.T) {
	store, _ := seed(t, 15, nil)
	src := &gatedSource{inner: store}
	c := postlist.New(ctx, src)
	require.NoError(t, c.Search(ctx, "Post 1"))
	searched := c.State()

	src.setFailures(true, false)
	require.Error(t, c.Refresh(ctx))
	state := c.State()
	require.Equal(t, postlist.StatusFailed, state.Status)
	require.Equal(t, postlist.ModeSearch, state.Mode)
	require.Equal(t, postIds(searched.Posts), postIds(state.Posts))
}

func TestFailedSearch(t *testing.T) {
	store, ids := seed(t, 15, nil)
	src := &gatedSource{inner: store, failScan: true}
	c := postlist.New(ctx, src)

	require.Error(t, c.Search(ctx, "post"))
	state := c.State()
	require.Equal(t, postlist.StatusFailed, state.Status)
	require.Equal(t, postlist.SearchFailedMessage, state.Err)
	require.Equal(t, postlist.ModeList, state.Mode)
	require.Equal(t, newestFirst(ids)[:10], postIds(state.Posts))
	require.True(t, state.HasMore)
}

func TestListenerSeesEveryTransition(t *testing.T) {
	store, _ := seed(t, 12, nil)
	var statuses []postlist.Status
	var sizes []int
	c := postlist.New(ctx, store, postlist.WithListener(func(s postlist.State) {
		statuses = append(statuses, s.Status)
		sizes = append(sizes, len(s.Posts))
	}))
	require.NoError(t, c.LoadMore(ctx))

	assert.Equal(t, []postlist.Status{
		postlist.StatusLoading, postlist.StatusReady,
		postlist.StatusLoading, postlist.StatusReady,
	}, statuses)
	assert.Equal(t, []int{0, 10, 10, 12}, sizes)
}

func TestStateIsACopy(t *testing.T) {
	store, _ := seed(t, 3, func(int) []string { return []string{"orig"} })
	c := postlist.New(ctx, store)
	state := c.State()
	state.Posts[0].Title = "changed"
	state.Posts[0].Tags[0] = "changed"
	require.NotEqual(t, "changed", c.State().Posts[0].Title)
	require.Equal(t, []string{"orig"}, c.State().Posts[0].Tags)
}

func TestListenerSnapshotsDoNotShareTags(t *testing.T) {
	store, _ := seed(t, 2, func(int) []string { return []string{"orig"} })
	c := postlist.New(ctx, store, postlist.WithListener(func(s postlist.State) {
		for _, p := range s.Posts {
			p.Tags[0] = "changed"
		}
	}))
	for _, p := range c.State().Posts {
		require.Equal(t, []string{"orig"}, p.Tags)
	}
}

func TestMatches(t *testing.T) {
	p := models.Post{Title: "Hello World", Content: "Some Text here", Tags: []string{"News", "Go"}}
	cases := []struct {
		term  string
		match bool
	}{
		{"hello", true},
		{"WORLD", true},
		{"text HERE", true},
		{"news", true},
		{"gO", true},
		{"rust", false},
		{"hello text", false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.match, postlist.Matches(p, tc.term), tc.term)
	}
}
