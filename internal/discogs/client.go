// Package discogs is a minimal client for the Discogs REST API: the
// collection and release endpoints the sync engine needs, with response
// classification the fetcher's retry policy relies on.
//
// The client does no pacing or retrying itself; that belongs to the caller.
package discogs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://api.discogs.com"

	userAgent = "Asetate/0.1.0 +https://github.com/asetate/asetate"

	// bodySnippetLimit caps how much of an error response body is kept.
	bodySnippetLimit = 512
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client authenticated with a Discogs personal access
// token. timeout bounds each HTTP request independently of any retries.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Identity returns the authenticated user's identity.
func (c *Client) Identity(ctx context.Context) (*Identity, error) {
	var ident Identity
	if err := c.get(ctx, "/oauth/identity", nil, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}

// CollectionPage fetches one page of a user's collection folder.
// folderID 0 means "all releases". Pages are 1-indexed; perPage is capped
// at 100 by the API.
func (c *Client) CollectionPage(ctx context.Context, username string, folderID, page, perPage int) (*CollectionPage, error) {
	endpoint := fmt.Sprintf("/users/%s/collection/folders/%d/releases", url.PathEscape(username), folderID)
	params := url.Values{
		"page":       {strconv.Itoa(page)},
		"per_page":   {strconv.Itoa(perPage)},
		"sort":       {"added"},
		"sort_order": {"desc"},
	}

	var cp CollectionPage
	if err := c.get(ctx, endpoint, params, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// ReleaseDetails fetches the full release resource, including the tracklist.
func (c *Client) ReleaseDetails(ctx context.Context, releaseID int64) (*ReleaseDetails, error) {
	var rd ReleaseDetails
	if err := c.get(ctx, fmt.Sprintf("/releases/%d", releaseID), nil, &rd); err != nil {
		return nil, err
	}
	return &rd, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	u := c.baseURL + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Discogs token="+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := classifyStatus(resp, u); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("discogs: decoding %s: %w", u, err)
	}
	return nil
}

func classifyStatus(resp *http.Response, u string) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w (status %d)", ErrAuth, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, bodySnippetLimit))
		return &APIError{Status: resp.StatusCode, URL: u, Body: string(body)}
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
