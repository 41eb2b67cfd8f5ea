package storage

import (
	"fmt"
	"postboard/storage/models"
	"strings"
	"unicode/utf8"
)

// ValidatePostInput applies the form rules for create and update requests.
// Stores never call it; the API layer does before writing.
func ValidatePostInput(in models.PostInput) error {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return NewValidationError("title", "Title is required.")
	}
	if utf8.RuneCountInString(title) > models.TitleMaxLength {
		return NewValidationError("title", fmt.Sprintf("Title must be at most %d characters.", models.TitleMaxLength))
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		return NewValidationError("content", "Content is required.")
	}
	length := utf8.RuneCountInString(content)
	if length < models.ContentMinLength {
		return NewValidationError("content", fmt.Sprintf("Content must be at least %d characters.", models.ContentMinLength))
	}
	if length > models.ContentMaxLength {
		return NewValidationError("content", fmt.Sprintf("Content must be at most %d characters.", models.ContentMaxLength))
	}

	if len(in.Tags) > models.MaxTags {
		return NewValidationError("tags", fmt.Sprintf("At most %d tags are allowed.", models.MaxTags))
	}
	for _, tag := range in.Tags {
		if strings.TrimSpace(tag) == "" {
			return NewValidationError("tags", "Tags must not be empty.")
		}
	}
	return nil
}

// TrimPostInput strips surrounding whitespace the way the form submits it.
func TrimPostInput(in models.PostInput) models.PostInput {
	out := models.PostInput{
		Title:   strings.TrimSpace(in.Title),
		Content: strings.TrimSpace(in.Content),
	}
	if in.Tags != nil {
		out.Tags = make([]string, 0, len(in.Tags))
		for _, tag := range in.Tags {
			out.Tags = append(out.Tags, strings.TrimSpace(tag))
		}
	}
	return out
}
