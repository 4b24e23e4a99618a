package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSyncRun_ProgressPercent(t *testing.T) {
	r := &SyncRun{}
	assert.Equal(t, 0.0, r.ProgressPercent())

	r.TotalItems = 200
	r.ProcessedItems = 50
	assert.InDelta(t, 25.0, r.ProgressPercent(), 0.001)
}

func TestSyncRun_Transitions(t *testing.T) {
	now := time.Now()

	r := &SyncRun{Status: SyncPending}
	r.Start(now)
	assert.Equal(t, SyncRunning, r.Status)
	assert.Equal(t, now, *r.StartedAt)

	// Start on resume must not reset the original timestamp.
	later := now.Add(time.Hour)
	r.Pause()
	assert.Equal(t, SyncPaused, r.Status)
	assert.True(t, r.CanResume())
	r.Start(later)
	assert.Equal(t, now, *r.StartedAt)

	r.Complete(later)
	assert.Equal(t, SyncCompleted, r.Status)
	assert.True(t, r.IsTerminal())
	assert.False(t, r.CanResume())
}

func TestSyncRun_FailKeepsResumable(t *testing.T) {
	r := &SyncRun{Status: SyncRunning}
	r.Fail("page 2: boom")

	assert.Equal(t, SyncFailed, r.Status)
	assert.Equal(t, "page 2: boom", r.LastError)
	assert.True(t, r.IsTerminal())
	assert.True(t, r.CanResume())
}

func TestSyncRun_Cancel(t *testing.T) {
	r := &SyncRun{Status: SyncRunning}
	r.Cancel(time.Now())

	assert.Equal(t, SyncCancelled, r.Status)
	assert.True(t, r.IsTerminal())
	assert.False(t, r.CanResume())
}
