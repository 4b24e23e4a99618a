package discogs

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collectionBody(page, pages, items int) string {
	return fmt.Sprintf(`{
		"pagination": {"page": %d, "pages": %d, "per_page": 2, "items": %d},
		"releases": [
			{"instance_id": 1, "basic_information": {"id": 101, "title": "Xtal EP", "year": 1992,
				"artists": [{"name": "Mirage (2)"}], "labels": [{"name": "Warp"}],
				"cover_image": "https://img.discogs.com/101.jpg"}},
			{"instance_id": 2, "basic_information": {"id": 102, "title": "Untrue", "year": 2007,
				"artists": [{"name": "Burial"}], "labels": []}}
		]
	}`, page, pages, items)
}

func TestCollectionPage_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/alice/collection/folders/0/releases", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "2", r.URL.Query().Get("per_page"))
		assert.Equal(t, "Discogs token=tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, collectionBody(1, 3, 6))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	page, err := c.CollectionPage(context.Background(), "alice", 0, 1, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, page.Pagination.Pages)
	assert.Equal(t, 6, page.Pagination.Items)
	require.Len(t, page.Releases, 2)
	assert.Equal(t, int64(101), page.Releases[0].BasicInformation.ID)
	assert.NotEmpty(t, page.Releases[0].Raw, "raw payload must be captured for hashing")
}

func TestCollectionPage_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	_, err := c.CollectionPage(context.Background(), "alice", 0, 1, 100)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, 7*time.Second, rl.RetryAfter)
}

func TestCollectionPage_RateLimited_NoHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	_, err := c.CollectionPage(context.Background(), "alice", 0, 1, 100)

	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	assert.Equal(t, time.Duration(0), rl.RetryAfter)
}

func TestCollectionPage_AuthError(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := NewClient(srv.URL, "bad", 5*time.Second)
		_, err := c.CollectionPage(context.Background(), "alice", 0, 1, 100)
		assert.True(t, errors.Is(err, ErrAuth), "status %d should map to ErrAuth", status)

		srv.Close()
	}
}

func TestCollectionPage_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	_, err := c.CollectionPage(context.Background(), "alice", 0, 1, 100)

	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.Equal(t, http.StatusBadGateway, api.Status)
	assert.Contains(t, api.Body, "upstream exploded")
	assert.True(t, api.Retryable())
}

func TestCollectionPage_NotFoundIsNotRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	_, err := c.CollectionPage(context.Background(), "nobody", 0, 1, 100)

	var api *APIError
	require.ErrorAs(t, err, &api)
	assert.False(t, api.Retryable())
}

func TestReleaseDetails_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/releases/101", r.URL.Path)
		fmt.Fprint(w, `{"id": 101, "tracklist": [
			{"position": "A1", "type_": "track", "title": "Xtal", "duration": "4:51"},
			{"position": "", "type_": "heading", "title": "Side B"},
			{"position": "B1", "type_": "track", "title": "Pulsewidth", "duration": "3:47"}
		]}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	details, err := c.ReleaseDetails(context.Background(), 101)
	require.NoError(t, err)
	assert.Len(t, details.Tracklist, 3)
}

func TestIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/identity", r.URL.Path)
		fmt.Fprint(w, `{"id": 42, "username": "alice"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", 5*time.Second)
	ident, err := c.Identity(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "alice", ident.Username)
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient(srv.URL, "tok", time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.CollectionPage(ctx, "alice", 0, 1, 100)
	require.Error(t, err)
}
