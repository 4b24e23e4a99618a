package syncruns

import (
	"context"
	"sync"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	runs map[string]*models.SyncRun
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{runs: make(map[string]*models.SyncRun)}
}

func (r *MemoryRepository) Create(ctx context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return common.ErrorInternal
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	r.runs[run.ID] = copyRun(run)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, run *models.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.runs[run.ID]
	if !ok {
		return common.ErrorNotFound
	}
	c := copyRun(run)
	c.CreatedAt = stored.CreatedAt
	r.runs[run.ID] = c
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyRun(run), nil
}

func (r *MemoryRepository) GetLatest(ctx context.Context, userID string) (*models.SyncRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *models.SyncRun
	for _, run := range r.runs {
		if run.UserID != userID {
			continue
		}
		if latest == nil || run.CreatedAt.After(latest.CreatedAt) {
			latest = run
		}
	}
	if latest == nil {
		return nil, common.ErrorNotFound
	}
	return copyRun(latest), nil
}

func copyRun(run *models.SyncRun) *models.SyncRun {
	c := *run
	if run.StartedAt != nil {
		t := *run.StartedAt
		c.StartedAt = &t
	}
	if run.LastProgressAt != nil {
		t := *run.LastProgressAt
		c.LastProgressAt = &t
	}
	if run.CompletedAt != nil {
		t := *run.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}
