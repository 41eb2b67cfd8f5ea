package storage

import (
	"errors"
	"fmt"
)

var (
	InternalError = errors.New("storage internal error")
	ClientError   = errors.New("storage client error")

	NotFoundError    = fmt.Errorf("%w.not_found", ClientError)
	ValidationFailed = fmt.Errorf("%w.validation", ClientError)

	ReadFailed    = fmt.Errorf("%w.read", InternalError)
	WriteFailed   = fmt.Errorf("%w.write", InternalError)
	DeleteFailed  = fmt.Errorf("%w.delete", InternalError)
	InvalidCursor = fmt.Errorf("%w.invalid_cursor", ReadFailed)
)

const (
	NotFoundMessage      = "Post not found."
	InvalidCursorMessage = "Invalid cursor."
	ValidationMessage    = "Post is invalid."
	ReadFailedMessage    = "Failed to load posts."
	WriteFailedMessage   = "Failed to save post."
	DeleteFailedMessage  = "Failed to delete post."
)

// Message turns any storage error into a fixed sentence that can be shown to a user.
func Message(err error) string {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Message
	case errors.Is(err, NotFoundError):
		return NotFoundMessage
	case errors.Is(err, ValidationFailed):
		return ValidationMessage
	case errors.Is(err, WriteFailed):
		return WriteFailedMessage
	case errors.Is(err, DeleteFailed):
		return DeleteFailedMessage
	default:
		return ReadFailedMessage
	}
}

// ValidationError points at the input field that was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ValidationFailed
}

func NewValidationError(field, message string) error {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
