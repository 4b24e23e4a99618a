package discogs

import (
	"errors"
	"fmt"
	"time"
)

// ErrAuth indicates rejected or insufficient credentials (HTTP 401/403).
var ErrAuth = errors.New("discogs: authentication failed")

// RateLimitError is returned when the server answers HTTP 429. RetryAfter
// carries the server-suggested wait, or zero when the header was absent.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("discogs: rate limit exceeded, retry after %s", e.RetryAfter)
	}
	return "discogs: rate limit exceeded"
}

// APIError is a non-2xx response other than 429/401/403. Body holds a
// snippet of the response body for diagnostics.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discogs: API error %d on %s: %s", e.Status, e.URL, e.Body)
}

// Retryable reports whether the API error is worth retrying (5xx).
func (e *APIError) Retryable() bool {
	return e.Status >= 500
}
