package checkpoints

import (
	"context"
	"sync"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

type MemoryRepository struct {
	mu     sync.RWMutex
	byUser map[string]*models.Checkpoint
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byUser: make(map[string]*models.Checkpoint)}
}

func (r *MemoryRepository) Save(ctx context.Context, cp *models.Checkpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := *cp
	c.UpdatedAt = time.Now()
	r.byUser[cp.UserID] = &c
	return nil
}

func (r *MemoryRepository) Load(ctx context.Context, userID string) (*models.Checkpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp, ok := r.byUser[userID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *cp
	return &c, nil
}

func (r *MemoryRepository) Clear(ctx context.Context, runID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, cp := range r.byUser {
		if cp.RunID == runID {
			delete(r.byUser, userID)
		}
	}
	return nil
}
