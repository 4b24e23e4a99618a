package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asetate/asetate/internal/config"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/repositories/repomanager"
)

func collectionHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/users/dj/collection/folders/0/releases", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Discogs token=test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"pagination": {"page": 1, "pages": 1, "per_page": 100, "items": 2},
			"releases": [
				{"instance_id": 1, "basic_information": {"id": 100, "title": "First", "year": 1995,
					"artists": [{"name": "Artist (2)"}], "labels": [{"name": "Label"}]}},
				{"instance_id": 2, "basic_information": {"id": 200, "title": "Second", "year": 2001,
					"artists": [{"name": "Other"}], "labels": []}}
			]
		}`)
	})
	return mux
}

func newTestApp(t *testing.T, baseURL string) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DiscogsBaseURL = baseURL
	cfg.RateLimitQuota = 1000
	cfg.RateLimitPeriod = time.Second
	cfg.FetchTrackDetails = false
	cfg.BackupDir = t.TempDir()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	a := newApp(cfg, logger, repomanager.NewMemoryRepositoryManager())
	require.NoError(t, a.Init(context.Background()))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func staticPrompt(token string) TokenPrompt {
	return func(username string) (string, error) { return token, nil }
}

func TestSync_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(collectionHandler(t))
	defer srv.Close()

	a := newTestApp(t, srv.URL)
	ctx := context.Background()

	run, err := a.Sync(ctx, "dj", false, staticPrompt("test-token"))
	require.NoError(t, err)
	assert.Equal(t, models.SyncCompleted, run.Status)
	assert.Equal(t, 2, run.Added)

	rel, err := a.repos.Releases().GetByDiscogsID(ctx, run.UserID, 100)
	require.NoError(t, err)
	assert.Equal(t, "Artist", rel.Artist, "numeric disambiguation suffix is stripped")

	// Second pass changes nothing.
	run2, err := a.Sync(ctx, "dj", false, staticPrompt("test-token"))
	require.NoError(t, err)
	assert.Equal(t, 2, run2.Unchanged)
	assert.Equal(t, 0, run2.Added)
}

func TestSync_BadTokenFails(t *testing.T) {
	srv := httptest.NewServer(collectionHandler(t))
	defer srv.Close()

	a := newTestApp(t, srv.URL)

	run, err := a.Sync(context.Background(), "dj", false, staticPrompt("wrong"))
	require.Error(t, err)
	require.NotNil(t, run)
	assert.Equal(t, models.SyncFailed, run.Status)
	assert.NotEmpty(t, run.LastError)
}

func TestEnsureUser_PromptsOnceAndStoresToken(t *testing.T) {
	a := newTestApp(t, "http://unused.invalid")
	ctx := context.Background()

	calls := 0
	prompt := func(username string) (string, error) {
		calls++
		return "tok", nil
	}

	u1, err := a.EnsureUser(ctx, "dj", prompt)
	require.NoError(t, err)
	assert.True(t, u1.HasToken())
	assert.Equal(t, 1, calls)

	u2, err := a.EnsureUser(ctx, "dj", prompt)
	require.NoError(t, err)
	assert.Equal(t, u1.ID, u2.ID)
	assert.Equal(t, 1, calls, "existing token is not re-prompted")
}

func TestBackupAndRestore(t *testing.T) {
	srv := httptest.NewServer(collectionHandler(t))
	defer srv.Close()

	a := newTestApp(t, srv.URL)
	ctx := context.Background()

	run, err := a.Sync(ctx, "dj", false, staticPrompt("test-token"))
	require.NoError(t, err)

	// Annotate one release, then back up.
	rel, err := a.repos.Releases().GetByDiscogsID(ctx, run.UserID, 100)
	require.NoError(t, err)
	rel.Notes = "white label promo"
	require.NoError(t, a.repos.Releases().UpdateUserFields(ctx, rel))

	path, key, err := a.Backup(ctx, "dj", false)
	require.NoError(t, err)
	assert.NotEmpty(t, path)
	assert.Empty(t, key, "no upload requested")

	// Wipe the note and restore it from the archive.
	rel.Notes = ""
	require.NoError(t, a.repos.Releases().UpdateUserFields(ctx, rel))

	applied, skipped, err := a.Restore(ctx, "dj", path)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 0, skipped)

	got, err := a.repos.Releases().GetByDiscogsID(ctx, run.UserID, 100)
	require.NoError(t, err)
	assert.Equal(t, "white label promo", got.Notes)
}
