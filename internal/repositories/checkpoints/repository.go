// Package checkpoints persists the durable resume pointers of sync runs.
package checkpoints

import (
	"context"

	"github.com/asetate/asetate/internal/models"
)

// Repository stores at most one checkpoint per user. Save upserts, so a new
// run's first checkpoint silently replaces a stale one from a prior run.
type Repository interface {
	// Save writes the checkpoint, replacing any existing one for the user.
	Save(ctx context.Context, cp *models.Checkpoint) error

	// Load returns the user's checkpoint or common.ErrorNotFound.
	Load(ctx context.Context, userID string) (*models.Checkpoint, error)

	// Clear removes the checkpoint belonging to the given run. Clearing a
	// run that has no checkpoint is not an error.
	Clear(ctx context.Context, runID string) error
}
