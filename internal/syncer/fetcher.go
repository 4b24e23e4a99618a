package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/asetate/asetate/internal/discogs"
	"github.com/asetate/asetate/internal/ratelimit"
)

// CollectionAPI is the slice of the Discogs client the fetcher needs.
type CollectionAPI interface {
	CollectionPage(ctx context.Context, username string, folderID, page, perPage int) (*discogs.CollectionPage, error)
	ReleaseDetails(ctx context.Context, releaseID int64) (*discogs.ReleaseDetails, error)
}

const (
	retryBaseDelay = time.Second
	retryMaxDelay  = time.Minute
	retryJitterPct = 10
)

// PageFetcher walks a user's collection one page at a time. Every request,
// including retries and detail lookups, first takes a token from the shared
// limiter, so pacing holds across concurrent runs.
//
// Not safe for concurrent use; each run owns one fetcher.
type PageFetcher struct {
	api        CollectionAPI
	limiter    *ratelimit.Limiter
	username   string
	perPage    int
	maxRetries int

	// baseDelay seeds the exponential backoff; tests shrink it.
	baseDelay time.Duration

	page       int
	totalPages int
	totalItems int
	started    bool
}

// NewPageFetcher builds a fetcher starting at startPage (1-indexed). Pass a
// checkpoint's NextPage to resume mid-collection.
func NewPageFetcher(api CollectionAPI, limiter *ratelimit.Limiter, username string, perPage, maxRetries, startPage int) *PageFetcher {
	if startPage < 1 {
		startPage = 1
	}
	return &PageFetcher{
		api:        api,
		limiter:    limiter,
		username:   username,
		perPage:    perPage,
		maxRetries: maxRetries,
		baseDelay:  retryBaseDelay,
		page:       startPage,
	}
}

// NextPage is the page the next call to Next will fetch. Persisting it before
// that call makes crash recovery at worst re-fetch one page.
func (f *PageFetcher) NextPage() int { return f.page }

// TotalPages is the page count reported by the remote, 0 before the first page.
func (f *PageFetcher) TotalPages() int { return f.totalPages }

// TotalItems is the item count reported by the remote, 0 before the first page.
func (f *PageFetcher) TotalItems() int { return f.totalItems }

// Next fetches the next collection page, blocking on the limiter first.
// It returns ErrNoMorePages once the collection is exhausted, the ctx error
// if the ctx ends while waiting, and a classified sentinel (ErrRateExceeded,
// ErrTransient, ErrPermanent) once retries are spent.
func (f *PageFetcher) Next(ctx context.Context) (*discogs.CollectionPage, error) {
	if f.started && f.page > f.totalPages {
		return nil, ErrNoMorePages
	}

	var cp *discogs.CollectionPage
	err := f.do(ctx, func(ctx context.Context) error {
		var err error
		cp, err = f.api.CollectionPage(ctx, f.username, 0, f.page, f.perPage)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching page %d: %w", f.page, err)
	}

	f.started = true
	f.totalPages = cp.Pagination.Pages
	f.totalItems = cp.Pagination.Items
	f.page++

	// An empty collection reports zero pages; report it as exhaustion on
	// the following call, after the caller has seen the empty page.
	return cp, nil
}

// Details fetches the full release resource through the same limiter and
// retry policy as page fetches.
func (f *PageFetcher) Details(ctx context.Context, releaseID int64) (*discogs.ReleaseDetails, error) {
	var rd *discogs.ReleaseDetails
	err := f.do(ctx, func(ctx context.Context) error {
		var err error
		rd, err = f.api.ReleaseDetails(ctx, releaseID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetching release %d: %w", releaseID, err)
	}
	return rd, nil
}

func (f *PageFetcher) do(ctx context.Context, fn func(ctx context.Context) error) error {
	exp := retry.WithJitterPercent(retryJitterPct,
		retry.WithCappedDuration(retryMaxDelay,
			retry.NewExponential(f.baseDelay)))

	// When a 429 carries Retry-After, that wait replaces the next backoff
	// step; the server already said how long to hold off. retry.Do calls the
	// attempt and the backoff strictly in turn, so no locking is needed.
	var retryAfter time.Duration
	backoff := retry.WithMaxRetries(uint64(f.maxRetries),
		retry.BackoffFunc(func() (time.Duration, bool) {
			if retryAfter > 0 {
				d := retryAfter
				retryAfter = 0
				return d, false
			}
			return exp.Next()
		}))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := f.limiter.Acquire(ctx); err != nil {
			return err
		}

		err := classify(fn(ctx))
		if err == nil {
			return nil
		}

		var rle *discogs.RateLimitError
		if errors.As(err, &rle) && rle.RetryAfter > 0 {
			retryAfter = rle.RetryAfter
		}

		if errors.Is(err, ErrRateExceeded) || errors.Is(err, ErrTransient) {
			return retry.RetryableError(err)
		}
		return err
	})
}
