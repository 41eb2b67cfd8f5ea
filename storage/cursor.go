package storage

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const cursorDelimiter = "::"

// EncodeCursor builds the token for stores ordered by (createdAt desc, id desc).
func EncodeCursor(createdAt time.Time, id string) Cursor {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + cursorDelimiter + id
	return Cursor(base64.URLEncoding.EncodeToString([]byte(raw)))
}

// DecodeCursor is the inverse of EncodeCursor. Only the store that issued a
// cursor should decode it.
func DecodeCursor(c Cursor) (time.Time, string, error) {
	decoded, err := base64.URLEncoding.DecodeString(string(c))
	if err != nil {
		return time.Time{}, "", fmt.Errorf("cursor encoding: %w", InvalidCursor)
	}
	parts := strings.SplitN(string(decoded), cursorDelimiter, 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("cursor format: %w", InvalidCursor)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", fmt.Errorf("cursor timestamp: %w", InvalidCursor)
	}
	return createdAt, parts[1], nil
}

// OlderThan reports whether a post sorts after the cursor position in list order.
func OlderThan(createdAt time.Time, id string, cursorAt time.Time, cursorId string) bool {
	if createdAt.Before(cursorAt) {
		return true
	}
	return createdAt.Equal(cursorAt) && id < cursorId
}
