package syncer

import (
	"context"
	"errors"

	"github.com/asetate/asetate/internal/discogs"
)

var (
	// ErrNoMorePages is returned by PageFetcher.Next after the last page.
	ErrNoMorePages = errors.New("no more pages")

	// ErrRateExceeded marks a fetch that failed because the remote quota was
	// exhausted even after honoring Retry-After.
	ErrRateExceeded = errors.New("rate limit exceeded")

	// ErrTransient marks a fetch that failed on a server error or a network
	// fault; retrying later may succeed.
	ErrTransient = errors.New("transient fetch error")

	// ErrPermanent marks a fetch that will not succeed on retry, such as a
	// revoked token or a malformed request.
	ErrPermanent = errors.New("permanent fetch error")

	// ErrAlreadyRunning is returned when a sync is requested for a user who
	// already has one in flight.
	ErrAlreadyRunning = errors.New("sync already running")

	// ErrNotRunning is returned by pause/cancel when no sync is in flight.
	ErrNotRunning = errors.New("no sync running")

	// ErrNoCheckpoint is returned by resume when the paused run left no
	// resume pointer behind.
	ErrNoCheckpoint = errors.New("no checkpoint to resume from")

	// ErrNotResumable is returned when the latest run is not paused or failed.
	ErrNotResumable = errors.New("latest run is not resumable")
)

// classify maps a client error onto the fetcher's sentinel taxonomy.
// Context errors pass through untouched so callers can tell deliberate
// stops from failures.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}

	var rle *discogs.RateLimitError
	if errors.As(err, &rle) {
		return errors.Join(ErrRateExceeded, err)
	}

	var apiErr *discogs.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Retryable() {
			return errors.Join(ErrTransient, err)
		}
		return errors.Join(ErrPermanent, err)
	}

	if errors.Is(err, discogs.ErrAuth) {
		return errors.Join(ErrPermanent, err)
	}

	return errors.Join(ErrTransient, err)
}
