// Package releases persists catalog releases and their tracks.
package releases

import (
	"context"
	"time"

	"github.com/asetate/asetate/internal/models"
)

// Repository is the storage contract the reconciler and backup service
// depend on. Implementations return common.ErrorNotFound for missing rows.
//
// Only the sync engine writes remote-owned columns; user-owned columns are
// deliberately absent from UpdateRemoteFields and UpdateTrackRemoteFields.
type Repository interface {
	GetByDiscogsID(ctx context.Context, userID string, discogsID int64) (*models.Release, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Release, error)

	// Create inserts a release together with its tracks, atomically.
	Create(ctx context.Context, r *models.Release) error

	// UpdateRemoteFields overwrites the Discogs-owned columns of a release
	// and clears its removal flags; user-owned columns are untouched.
	UpdateRemoteFields(ctx context.Context, r *models.Release) error

	// UpdateUserFields overwrites the user-owned columns of a release
	// (notes, corrections, keep flag); remote-owned columns are untouched.
	UpdateUserFields(ctx context.Context, r *models.Release) error

	// MarkSeen flips the presence flag and clears the removal flags, so an
	// unchanged release that reappears after a removal sweep is unflagged
	// without a full field write.
	MarkSeen(ctx context.Context, userID string, discogsID int64) error

	// ResetSeen clears the presence flag on every synced release of the
	// user; called once at the start of a fresh sweep.
	ResetSeen(ctx context.Context, userID string) error

	// MarkMissing stamps removed_from_discogs_at on releases not seen by
	// the sweep and returns how many were stamped.
	MarkMissing(ctx context.Context, userID string, at time.Time) (int64, error)

	ListTracks(ctx context.Context, releaseID int64) ([]*models.Track, error)
	CreateTrack(ctx context.Context, t *models.Track) error
	UpdateTrackRemoteFields(ctx context.Context, t *models.Track) error
	UpdateTrackUserFields(ctx context.Context, t *models.Track) error
	DeleteTrack(ctx context.Context, trackID int64) error
}
