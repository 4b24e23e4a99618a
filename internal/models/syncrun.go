package models

import "time"

// SyncRunStatus is the lifecycle state of a SyncRun.
type SyncRunStatus string

const (
	SyncPending   SyncRunStatus = "pending"
	SyncRunning   SyncRunStatus = "running"
	SyncPaused    SyncRunStatus = "paused"
	SyncCompleted SyncRunStatus = "completed"
	SyncFailed    SyncRunStatus = "failed"
	SyncCancelled SyncRunStatus = "cancelled"
)

// SyncRun is one attempt to synchronize a user's Discogs collection.
// Runs are retained after they finish for audit history; the engine never
// deletes them.
type SyncRun struct {
	ID     string
	UserID string
	Status SyncRunStatus

	// Progress. TotalPages and TotalItems stay zero until the first page
	// has been parsed.
	TotalPages     int
	PagesCompleted int
	TotalItems     int
	ProcessedItems int

	// Reconciliation counters.
	Added     int
	Updated   int
	Unchanged int
	Removed   int

	LastError string

	StartedAt      *time.Time
	LastProgressAt *time.Time
	CompletedAt    *time.Time
	CreatedAt      time.Time
}

// ProgressPercent reports how far the run has advanced, 0..100.
func (r *SyncRun) ProgressPercent() float64 {
	if r.TotalItems == 0 {
		return 0
	}
	return float64(r.ProcessedItems) / float64(r.TotalItems) * 100
}

// IsTerminal reports whether the run has reached a final state.
func (r *SyncRun) IsTerminal() bool {
	switch r.Status {
	case SyncCompleted, SyncFailed, SyncCancelled:
		return true
	}
	return false
}

// CanResume reports whether the run can be continued from its checkpoint.
func (r *SyncRun) CanResume() bool {
	return r.Status == SyncPaused || r.Status == SyncFailed
}

// Start marks the run as running.
func (r *SyncRun) Start(now time.Time) {
	r.Status = SyncRunning
	if r.StartedAt == nil {
		r.StartedAt = &now
	}
}

// Pause marks the run as paused; its checkpoint stays valid.
func (r *SyncRun) Pause() {
	r.Status = SyncPaused
}

// Complete marks the run as successfully finished.
func (r *SyncRun) Complete(now time.Time) {
	r.Status = SyncCompleted
	r.CompletedAt = &now
}

// Fail marks the run as failed with a human-readable cause.
func (r *SyncRun) Fail(cause string) {
	r.Status = SyncFailed
	r.LastError = cause
}

// Cancel marks the run as deliberately abandoned.
func (r *SyncRun) Cancel(now time.Time) {
	r.Status = SyncCancelled
	r.CompletedAt = &now
}
