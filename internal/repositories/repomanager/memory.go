package repomanager

import (
	"context"

	"github.com/asetate/asetate/internal/repositories/checkpoints"
	"github.com/asetate/asetate/internal/repositories/releases"
	"github.com/asetate/asetate/internal/repositories/syncruns"
	"github.com/asetate/asetate/internal/repositories/users"
)

// MemoryRepositoryManager backs every repository with process memory.
// Used by tests and by ad-hoc runs without a database.
type MemoryRepositoryManager struct {
	users       *users.MemoryRepository
	releases    *releases.MemoryRepository
	syncRuns    *syncruns.MemoryRepository
	checkpoints *checkpoints.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:       users.NewMemoryRepository(),
		releases:    releases.NewMemoryRepository(),
		syncRuns:    syncruns.NewMemoryRepository(),
		checkpoints: checkpoints.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Init(ctx context.Context) error { return nil }

func (m *MemoryRepositoryManager) Users() users.Repository { return m.users }

func (m *MemoryRepositoryManager) Releases() releases.Repository { return m.releases }

func (m *MemoryRepositoryManager) SyncRuns() syncruns.Repository { return m.syncRuns }

func (m *MemoryRepositoryManager) Checkpoints() checkpoints.Repository { return m.checkpoints }

func (m *MemoryRepositoryManager) Close() error { return nil }
