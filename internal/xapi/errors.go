package xapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRateLimitExhausted is returned when the API keeps answering 429 after
	// every allowed retry.
	ErrRateLimitExhausted = errors.New("x api rate limit exceeded")

	// ErrSequenceConsumed is yielded when a bookmarks sequence is ranged over twice.
	ErrSequenceConsumed = errors.New("bookmarks sequence already consumed")
)

// APIError is a non-rate-limit HTTP failure from the X API.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("x api %s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("x api %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, body)
}
