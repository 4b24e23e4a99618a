package syncer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/discogs"
	"github.com/asetate/asetate/internal/logging"
	"github.com/asetate/asetate/internal/models"
	"github.com/asetate/asetate/internal/repositories/releases"
)

// Outcome is the reconciliation result for one remote item.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

// Reconciler applies remote collection items to local storage without ever
// touching user-owned fields. Change detection is by payload hash, so an
// unchanged item costs one read and one flag write.
type Reconciler struct {
	repo   releases.Repository
	logger logging.Logger
}

func NewReconciler(repo releases.Repository, logger logging.Logger) *Reconciler {
	return &Reconciler{repo: repo, logger: logger.With("component", "reconciler")}
}

// BeginSweep clears presence flags ahead of a full pass over the collection.
// Called once per fresh run, never on resume.
func (r *Reconciler) BeginSweep(ctx context.Context, userID string) error {
	return r.repo.ResetSeen(ctx, userID)
}

// FinishSweep flags releases the pass never saw as removed from Discogs and
// returns how many. Only meaningful after a run has visited every page.
func (r *Reconciler) FinishSweep(ctx context.Context, userID string, at time.Time) (int64, error) {
	return r.repo.MarkMissing(ctx, userID, at)
}

// Apply reconciles one parsed remote item against local storage.
func (r *Reconciler) Apply(ctx context.Context, userID string, remote discogs.Release, now time.Time) (Outcome, error) {
	local, err := r.repo.GetByDiscogsID(ctx, userID, remote.DiscogsID)
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return OutcomeCreated, r.create(ctx, userID, remote, now)
	case err != nil:
		return 0, err
	}

	if local.PayloadHash == remote.PayloadHash {
		if err := r.repo.MarkSeen(ctx, userID, remote.DiscogsID); err != nil {
			return 0, err
		}
		return OutcomeUnchanged, nil
	}

	local.Title = remote.Title
	local.Artist = remote.Artist
	local.Label = remote.Label
	local.Year = remote.Year
	local.CoverArtURL = remote.CoverArtURL
	local.DiscogsURI = remote.DiscogsURI
	local.PayloadHash = remote.PayloadHash
	local.SyncedAt = now

	if err := r.repo.UpdateRemoteFields(ctx, local); err != nil {
		return 0, err
	}
	if err := r.mergeTracks(ctx, local.ID, remote.Tracks); err != nil {
		return 0, err
	}

	r.logger.Debug(ctx, "release updated", "discogs_id", remote.DiscogsID)
	return OutcomeUpdated, nil
}

func (r *Reconciler) create(ctx context.Context, userID string, remote discogs.Release, now time.Time) error {
	rel := &models.Release{
		UserID:      userID,
		DiscogsID:   remote.DiscogsID,
		Title:       remote.Title,
		Artist:      remote.Artist,
		Label:       remote.Label,
		Year:        remote.Year,
		CoverArtURL: remote.CoverArtURL,
		DiscogsURI:  remote.DiscogsURI,
		PayloadHash: remote.PayloadHash,
		SyncedAt:    now,
		SeenInSync:  true,
	}
	for _, t := range remote.Tracks {
		rel.Tracks = append(rel.Tracks, &models.Track{
			Position: t.Position,
			Title:    t.Title,
			Duration: t.Duration,
		})
	}

	if err := r.repo.Create(ctx, rel); err != nil {
		return fmt.Errorf("creating release %d: %w", remote.DiscogsID, err)
	}
	r.logger.Debug(ctx, "release created", "discogs_id", remote.DiscogsID)
	return nil
}

// mergeTracks reconciles the local tracklist against the remote one, keyed
// by position. Local tracks missing remotely are deleted only when they
// carry no user metadata. An empty remote tracklist means details fetching
// was off; local tracks are then left untouched.
func (r *Reconciler) mergeTracks(ctx context.Context, releaseID int64, remote []discogs.TrackInfo) error {
	if len(remote) == 0 {
		return nil
	}

	local, err := r.repo.ListTracks(ctx, releaseID)
	if err != nil {
		return err
	}

	byPosition := make(map[string]*models.Track, len(local))
	for _, t := range local {
		byPosition[t.Position] = t
	}

	seen := make(map[string]bool, len(remote))
	for _, rt := range remote {
		seen[rt.Position] = true

		existing, ok := byPosition[rt.Position]
		if !ok {
			t := &models.Track{
				ReleaseID: releaseID,
				Position:  rt.Position,
				Title:     rt.Title,
				Duration:  rt.Duration,
			}
			if err := r.repo.CreateTrack(ctx, t); err != nil {
				return err
			}
			continue
		}

		if existing.Title != rt.Title || existing.Duration != rt.Duration {
			existing.Title = rt.Title
			existing.Duration = rt.Duration
			if err := r.repo.UpdateTrackRemoteFields(ctx, existing); err != nil {
				return err
			}
		}
	}

	for _, t := range local {
		if seen[t.Position] {
			continue
		}
		if t.HasUserData() {
			r.logger.Debug(ctx, "keeping vanished track with user data",
				"release_id", releaseID, "position", t.Position)
			continue
		}
		if err := r.repo.DeleteTrack(ctx, t.ID); err != nil {
			return err
		}
	}
	return nil
}
