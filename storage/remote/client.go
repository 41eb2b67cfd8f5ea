// Package remote implements storage.Storage on top of the postboard JSON API,
// so a browser process can page through posts served by another instance.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"postboard/storage"
	"postboard/storage/models"
	"strconv"
	"strings"
	"time"

	"github.com/motemen/go-loghttp"
)

// maxPageSize is the largest page the API serves.
const maxPageSize = 100

type Client struct {
	baseUrl    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

func CreateClient(baseUrl string, opts ...Option) *Client {
	c := &Client{
		baseUrl: strings.TrimRight(baseUrl, "/"),
		httpClient: &http.Client{
			Transport: &loghttp.Transport{Transport: http.DefaultTransport},
			Timeout:   15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type listPostsResponse struct {
	Posts      []models.Post `json:"posts"`
	NextCursor *string       `json:"nextCursor,omitempty"`
}

type createPostResponse struct {
	Id string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// do sends a request and decodes a JSON body into out when out is non-nil.
// Transport failures are logged and reported as the given taxonomy error.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}, failure error) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", failure)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseUrl+path, reader)
	if err != nil {
		log.Printf("Failed to build request %s %s: %s", method, path, err.Error())
		return fmt.Errorf("build request: %w", failure)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Request %s %s failed: %s", method, path, err.Error())
		return fmt.Errorf("%s %s: %w", method, path, failure)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp, method, path, failure)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Printf("Failed to decode response of %s %s: %s", method, path, err.Error())
		return fmt.Errorf("decode %s %s: %w", method, path, failure)
	}
	return nil
}

func statusError(resp *http.Response, method, path string, failure error) error {
	var body errorResponse
	_ = json.NewDecoder(resp.Body).Decode(&body)

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, storage.NotFoundError)
	case http.StatusBadRequest:
		if body.Field != "" {
			return storage.NewValidationError(body.Field, body.Error)
		}
		if body.Error == storage.InvalidCursorMessage {
			return fmt.Errorf("%s %s: %s: %w", method, path, body.Error, storage.InvalidCursor)
		}
		return fmt.Errorf("%s %s: %s: %w", method, path, body.Error, storage.ValidationFailed)
	default:
		log.Printf("Request %s %s answered %d: %s", method, path, resp.StatusCode, body.Error)
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, failure)
	}
}

func postPath(id string) string {
	return "/api/v1/posts/" + url.PathEscape(id)
}

func (c *Client) ListPage(ctx context.Context, size int, after storage.Cursor) (storage.Page, error) {
	if size < 1 || size > maxPageSize {
		return storage.Page{}, fmt.Errorf("page size %d: %w", size, storage.ReadFailed)
	}
	query := url.Values{}
	query.Set("size", strconv.Itoa(size))
	if after != "" {
		query.Set("cursor", string(after))
	}
	var resp listPostsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/posts?"+query.Encode(), nil, &resp, storage.ReadFailed); err != nil {
		return storage.Page{}, err
	}
	page := storage.Page{Posts: resp.Posts}
	if page.Posts == nil {
		page.Posts = []models.Post{}
	}
	if resp.NextCursor != nil {
		page.Next = storage.Cursor(*resp.NextCursor)
	}
	return page, nil
}

func (c *Client) ScanAll(ctx context.Context) ([]models.Post, error) {
	var resp listPostsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/archive", nil, &resp, storage.ReadFailed); err != nil {
		return nil, err
	}
	if resp.Posts == nil {
		return []models.Post{}, nil
	}
	return resp.Posts, nil
}

func (c *Client) GetPost(ctx context.Context, id string) (models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, postPath(id), nil, &post, storage.ReadFailed); err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (c *Client) AddPost(ctx context.Context, in models.PostInput) (string, error) {
	var resp createPostResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/posts", in, &resp, storage.WriteFailed); err != nil {
		return "", err
	}
	return resp.Id, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, in models.PostInput) error {
	return c.do(ctx, http.MethodPatch, postPath(id), in, nil, storage.WriteFailed)
}

func (c *Client) RemovePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, postPath(id), nil, nil, storage.DeleteFailed)
}
