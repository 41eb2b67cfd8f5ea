// Package storagetest holds the behaviour every storage.Storage must share.
// Each store package runs StorageSuite against its own backend.
package storagetest

import (
	"context"
	"fmt"
	"postboard/storage"
	"postboard/storage/models"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite

	// Open returns an empty store and a func releasing it.
	Open func(t *testing.T) (storage.Storage, func())

	ctx     context.Context
	store   storage.Storage
	cleanup func()
}

func (s *StorageSuite) SetupTest() {
	s.ctx = context.Background()
	s.store, s.cleanup = s.Open(s.T())
}

func (s *StorageSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

// addPosts creates n posts with increasing createdAt and returns their ids oldest first.
func (s *StorageSuite) addPosts(n int) []string {
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := s.store.AddPost(s.ctx, models.PostInput{
			Title:   fmt.Sprintf("post %02d", i),
			Content: fmt.Sprintf("content of post %02d", i),
			Tags:    []string{"seed"},
		})
		s.Require().NoError(err)
		ids = append(ids, id)
		time.Sleep(2 * time.Millisecond)
	}
	return ids
}

func reversed(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func idsOf(posts []models.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.Id)
	}
	return ids
}

func (s *StorageSuite) TestCreateThenGet() {
	in := models.PostInput{
		Title:   "First post",
		Content: "Hello from the first post",
		Tags:    []string{"intro", "hello"},
	}
	id, err := s.store.AddPost(s.ctx, in)
	s.Require().NoError(err)
	s.Require().NotEmpty(id)

	post, err := s.store.GetPost(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(id, post.Id)
	s.Equal(in.Title, post.Title)
	s.Equal(in.Content, post.Content)
	s.Equal(in.Tags, post.Tags)
	s.Equal(models.AnonymousAuthor, post.Author)
	s.False(post.CreatedAt.IsZero())
	s.True(post.CreatedAt.Equal(post.UpdatedAt))
}

func (s *StorageSuite) TestCreateWithoutTags() {
	id, err := s.store.AddPost(s.ctx, models.PostInput{Title: "No tags", Content: "This post has no tags"})
	s.Require().NoError(err)

	post, err := s.store.GetPost(s.ctx, id)
	s.Require().NoError(err)
	s.NotNil(post.Tags)
	s.Empty(post.Tags)
}

func (s *StorageSuite) TestGetMissing() {
	_, err := s.store.GetPost(s.ctx, "missing-id")
	s.Require().ErrorIs(err, storage.NotFoundError)
}

func (s *StorageSuite) TestUpdate() {
	id, err := s.store.AddPost(s.ctx, models.PostInput{Title: "Draft", Content: "Draft content here", Tags: []string{"draft"}})
	s.Require().NoError(err)
	before, err := s.store.GetPost(s.ctx, id)
	s.Require().NoError(err)
	time.Sleep(5 * time.Millisecond)

	update := models.PostInput{Title: "Final", Content: "Final content here", Tags: []string{"final", "done"}}
	s.Require().NoError(s.store.UpdatePost(s.ctx, id, update))

	after, err := s.store.GetPost(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(update.Title, after.Title)
	s.Equal(update.Content, after.Content)
	s.Equal(update.Tags, after.Tags)
	s.Equal(before.Author, after.Author)
	s.True(before.CreatedAt.Equal(after.CreatedAt))
	s.False(after.UpdatedAt.Before(before.UpdatedAt))
	s.False(after.UpdatedAt.Before(after.CreatedAt))
}

func (s *StorageSuite) TestUpdateMissing() {
	err := s.store.UpdatePost(s.ctx, "missing-id", models.PostInput{Title: "x", Content: "missing post"})
	s.Require().ErrorIs(err, storage.NotFoundError)
}

func (s *StorageSuite) TestRemove() {
	ids := s.addPosts(2)
	s.Require().NoError(s.store.RemovePost(s.ctx, ids[0]))

	_, err := s.store.GetPost(s.ctx, ids[0])
	s.Require().ErrorIs(err, storage.NotFoundError)

	// Removing twice is accepted.
	s.Require().NoError(s.store.RemovePost(s.ctx, ids[0]))

	posts, err := s.store.ScanAll(s.ctx)
	s.Require().NoError(err)
	s.Equal([]string{ids[1]}, idsOf(posts))
}

func (s *StorageSuite) TestEmptyIdIsNotFound() {
	s.addPosts(1)

	_, err := s.store.GetPost(s.ctx, "")
	s.Require().ErrorIs(err, storage.NotFoundError)
	err = s.store.UpdatePost(s.ctx, "", models.PostInput{Title: "x", Content: "no such post"})
	s.Require().ErrorIs(err, storage.NotFoundError)
	s.Require().ErrorIs(s.store.RemovePost(s.ctx, ""), storage.NotFoundError)

	posts, err := s.store.ScanAll(s.ctx)
	s.Require().NoError(err)
	s.Len(posts, 1)
}

func (s *StorageSuite) TestEmptyStore() {
	page, err := s.store.ListPage(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Empty(page.Posts)
	s.Empty(page.Next)

	posts, err := s.store.ScanAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(posts)
}

func (s *StorageSuite) TestFifteenPostsInTwoPages() {
	expected := reversed(s.addPosts(15))

	first, err := s.store.ListPage(s.ctx, 10, "")
	s.Require().NoError(err)
	s.Equal(expected[:10], idsOf(first.Posts))
	s.Require().NotEmpty(first.Next)

	second, err := s.store.ListPage(s.ctx, 10, first.Next)
	s.Require().NoError(err)
	s.Equal(expected[10:], idsOf(second.Posts))
	s.Empty(second.Next)
}

func (s *StorageSuite) TestPagesCoverEverythingOnce() {
	expected := reversed(s.addPosts(13))

	var (
		seen   []string
		cursor storage.Cursor
	)
	for i := 0; i < 10; i++ {
		page, err := s.store.ListPage(s.ctx, 4, cursor)
		s.Require().NoError(err)
		s.Require().LessOrEqual(len(page.Posts), 4)
		seen = append(seen, idsOf(page.Posts)...)
		if page.Next == "" {
			break
		}
		cursor = page.Next
	}
	s.Equal(expected, seen)
}

func (s *StorageSuite) TestExactPageHasNoNextCursor() {
	s.addPosts(5)
	page, err := s.store.ListPage(s.ctx, 5, "")
	s.Require().NoError(err)
	s.Len(page.Posts, 5)
	s.Empty(page.Next)
}

func (s *StorageSuite) TestCursorIsStableUnderInserts() {
	expected := reversed(s.addPosts(6))

	first, err := s.store.ListPage(s.ctx, 3, "")
	s.Require().NoError(err)
	s.Equal(expected[:3], idsOf(first.Posts))

	s.addPosts(2)

	second, err := s.store.ListPage(s.ctx, 3, first.Next)
	s.Require().NoError(err)
	s.Equal(expected[3:], idsOf(second.Posts))
}

func (s *StorageSuite) TestScanAllNewestFirst() {
	expected := reversed(s.addPosts(4))
	posts, err := s.store.ScanAll(s.ctx)
	s.Require().NoError(err)
	s.Equal(expected, idsOf(posts))
}

func (s *StorageSuite) TestInvalidCursor() {
	s.addPosts(1)
	_, err := s.store.ListPage(s.ctx, 10, "not a cursor!")
	s.Require().ErrorIs(err, storage.InvalidCursor)
	s.Require().ErrorIs(err, storage.ReadFailed)
}
