package postlist

import "postboard/storage/models"

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Mode int

const (
	ModeList Mode = iota
	ModeSearch
)

func (m Mode) String() string {
	if m == ModeSearch {
		return "search"
	}
	return "list"
}

// State is a snapshot of what a view should render.
type State struct {
	Posts   []models.Post
	Status  Status
	Mode    Mode
	HasMore bool
	// Err holds the message of the last failed fetch while Status is StatusFailed.
	Err string
	// Term is the active search term in search mode.
	Term string
}

func (s State) IsLoading() bool {
	return s.Status == StatusLoading
}

func (s State) clone() State {
	posts := make([]models.Post, len(s.Posts))
	for i, p := range s.Posts {
		tags := make([]string, len(p.Tags))
		copy(tags, p.Tags)
		p.Tags = tags
		posts[i] = p
	}
	s.Posts = posts
	return s
}
