package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asetate/asetate/internal/discogs"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/repositories/releases"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// makeItem builds a CollectionItem through JSON so Raw (and thus the payload
// hash) is populated the same way it is for real API responses.
func makeItem(t *testing.T, id int64, title, artist string, year int) discogs.CollectionItem {
	t.Helper()
	payload := fmt.Sprintf(
		`{"instance_id":%d,"basic_information":{"id":%d,"title":%q,"year":%d,"artists":[{"name":%q}],"labels":[{"name":"Test Records"}]}}`,
		id, id, title, year, artist)

	var item discogs.CollectionItem
	require.NoError(t, json.Unmarshal([]byte(payload), &item))
	return item
}

func parsed(t *testing.T, id int64, title, artist string, year int) discogs.Release {
	t.Helper()
	return discogs.ParseRelease(makeItem(t, id, title, artist, year), nil)
}

func TestApply_CreatesNewRelease(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	outcome, err := rec.Apply(ctx, "u1", parsed(t, 100, "Energy Flash", "Joey Beltram", 1990), time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)

	rel, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, "Energy Flash", rel.Title)
	assert.Equal(t, "Joey Beltram", rel.Artist)
	assert.True(t, rel.SeenInSync)
	assert.NotEmpty(t, rel.PayloadHash)
}

func TestApply_UnchangedMarksSeenOnly(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	remote := parsed(t, 100, "Energy Flash", "Joey Beltram", 1990)
	_, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)

	require.NoError(t, rec.BeginSweep(ctx, "u1"))

	outcome, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	rel, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	assert.True(t, rel.SeenInSync)
}

func TestApply_UpdatePreservesUserFields(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	_, err := rec.Apply(ctx, "u1", parsed(t, 100, "Old Title", "Mirage", 1990), time.Now())
	require.NoError(t, err)

	// User annotates the release between syncs.
	rel, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	rel.Notes = "mint condition, bought in Berlin"
	rel.UserCorrections = map[string]string{"artist": "Mirage (UK)"}
	require.NoError(t, repo.UpdateUserFields(ctx, rel))

	outcome, err := rec.Apply(ctx, "u1", parsed(t, 100, "New Title", "Mirage", 1991), time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUpdated, outcome)

	got, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	assert.Equal(t, "New Title", got.Title)
	assert.Equal(t, 1991, got.Year)
	assert.Equal(t, "mint condition, bought in Berlin", got.Notes)
	assert.Equal(t, "Mirage (UK)", got.UserCorrections["artist"])
	assert.Equal(t, "Mirage (UK)", got.DisplayArtist())
}

func TestApply_RemovalRoundTrip(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	_, err := rec.Apply(ctx, "u1", parsed(t, 100, "Kept", "A", 1990), time.Now())
	require.NoError(t, err)
	_, err = rec.Apply(ctx, "u1", parsed(t, 200, "Gone", "B", 1991), time.Now())
	require.NoError(t, err)

	// Next sweep only sees release 100.
	require.NoError(t, rec.BeginSweep(ctx, "u1"))
	_, err = rec.Apply(ctx, "u1", parsed(t, 100, "Kept", "A", 1990), time.Now())
	require.NoError(t, err)

	removed, err := rec.FinishSweep(ctx, "u1", time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	gone, err := repo.GetByDiscogsID(ctx, "u1", 200)
	require.NoError(t, err)
	assert.True(t, gone.IsRemovedFromDiscogs())

	kept, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	assert.False(t, kept.IsRemovedFromDiscogs())

	// The release reappears: removal flag is cleared on update.
	require.NoError(t, rec.BeginSweep(ctx, "u1"))
	_, err = rec.Apply(ctx, "u1", parsed(t, 200, "Gone But Back", "B", 1991), time.Now())
	require.NoError(t, err)

	back, err := repo.GetByDiscogsID(ctx, "u1", 200)
	require.NoError(t, err)
	assert.False(t, back.IsRemovedFromDiscogs())
}

func TestApply_UnchangedClearsRemovalFlag(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	remote := parsed(t, 100, "Back", "A", 1990)
	_, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)

	// A sweep misses the release and flags it removed.
	require.NoError(t, rec.BeginSweep(ctx, "u1"))
	removed, err := rec.FinishSweep(ctx, "u1", time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	// It reappears with an identical payload: the cheap mark-seen path must
	// still clear the removal flags.
	require.NoError(t, rec.BeginSweep(ctx, "u1"))
	outcome, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnchanged, outcome)

	back, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)
	assert.False(t, back.IsRemovedFromDiscogs())
	assert.False(t, back.KeptAfterRemoval)
}

func TestMergeTracks_PreservesUserTaggedTracks(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	remote := parsed(t, 100, "EP", "C", 1995)
	remote.Tracks = []discogs.TrackInfo{
		{Position: "A1", Title: "Intro", Duration: "1:00"},
		{Position: "A2", Title: "Banger", Duration: "6:30"},
		{Position: "B1", Title: "Filler", Duration: "4:00"},
	}
	_, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)

	rel, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)

	// User tags A2.
	tracks, err := repo.ListTracks(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, tracks, 3)
	bpm := 138
	for _, tr := range tracks {
		if tr.Position == "A2" {
			tr.BPM = &bpm
			tr.Camelot = "8A"
			require.NoError(t, repo.UpdateTrackUserFields(ctx, tr))
		}
	}

	// Remote drops A2 and B1, renames A1.
	updated := parsed(t, 100, "EP", "C", 1996)
	updated.Tracks = []discogs.TrackInfo{
		{Position: "A1", Title: "Intro (Remastered)", Duration: "1:05"},
	}
	_, err = rec.Apply(ctx, "u1", updated, time.Now())
	require.NoError(t, err)

	got, err := repo.ListTracks(ctx, rel.ID)
	require.NoError(t, err)
	require.Len(t, got, 2, "untagged B1 deleted, tagged A2 kept")

	byPos := map[string]*models.Track{}
	for _, tr := range got {
		byPos[tr.Position] = tr
	}
	assert.Equal(t, "Intro (Remastered)", byPos["A1"].Title)
	require.NotNil(t, byPos["A2"], "track with user data survives remote removal")
	require.NotNil(t, byPos["A2"].BPM)
	assert.Equal(t, 138, *byPos["A2"].BPM)
	assert.Equal(t, "8A", byPos["A2"].Camelot)
}

func TestMergeTracks_EmptyRemoteLeavesLocalAlone(t *testing.T) {
	repo := releases.NewMemoryRepository()
	rec := NewReconciler(repo, discardLogger())
	ctx := context.Background()

	remote := parsed(t, 100, "LP", "D", 2000)
	remote.Tracks = []discogs.TrackInfo{{Position: "A1", Title: "One", Duration: "5:00"}}
	_, err := rec.Apply(ctx, "u1", remote, time.Now())
	require.NoError(t, err)

	rel, err := repo.GetByDiscogsID(ctx, "u1", 100)
	require.NoError(t, err)

	// Details fetching off: the payload changes but no tracklist comes along.
	updated := parsed(t, 100, "LP Deluxe", "D", 2000)
	_, err = rec.Apply(ctx, "u1", updated, time.Now())
	require.NoError(t, err)

	tracks, err := repo.ListTracks(ctx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}
