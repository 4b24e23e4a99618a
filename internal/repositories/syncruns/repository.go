// Package syncruns persists sync run records and their progress counters.
package syncruns

import (
	"context"

	"github.com/asetate/asetate/internal/models"
)

// Repository stores sync runs. Runs are append-then-update: the orchestrator
// creates one per started sync and updates it as pages complete. Finished
// runs are kept for history.
type Repository interface {
	Create(ctx context.Context, run *models.SyncRun) error

	// Update overwrites status, counters and timestamps of an existing run.
	Update(ctx context.Context, run *models.SyncRun) error

	GetByID(ctx context.Context, id string) (*models.SyncRun, error)

	// GetLatest returns the most recently created run of the user, or
	// common.ErrorNotFound if the user has never synced.
	GetLatest(ctx context.Context, userID string) (*models.SyncRun, error)
}
