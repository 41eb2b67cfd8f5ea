package models

import (
	"encoding/json"
	"log"
	"time"
)

// AnonymousAuthor is stamped on every post until users can sign in.
const AnonymousAuthor = "Anonymous"

const (
	TitleMinLength   = 1
	TitleMaxLength   = 100
	ContentMinLength = 10
	ContentMaxLength = 10000
	MaxTags          = 5
)

type Post struct {
	Id        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Tags      []string  `json:"tags"`
}

// PostInput carries the user-editable fields of a post.
type PostInput struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags,omitempty"`
}

// NormalizedTags never returns nil so stored documents always carry a tag list.
func (in PostInput) NormalizedTags() []string {
	if in.Tags == nil {
		return []string{}
	}
	tags := make([]string, len(in.Tags))
	copy(tags, in.Tags)
	return tags
}

func (p *Post) ToJson() []byte {
	j, err := json.Marshal(p)
	if err != nil {
		log.Fatalf("Failed to dump post to json: %s", err.Error())
	}
	return j
}
