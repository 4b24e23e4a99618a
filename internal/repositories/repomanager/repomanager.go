// Package repomanager wires repository implementations to a storage backend
// and owns schema migrations for the PostgreSQL one.
package repomanager

import (
	"context"

	"github.com/asetate/asetate/internal/repositories/checkpoints"
	"github.com/asetate/asetate/internal/repositories/releases"
	"github.com/asetate/asetate/internal/repositories/syncruns"
	"github.com/asetate/asetate/internal/repositories/users"
)

// RepositoryManager vends the repositories the engine depends on. Close
// releases the underlying storage.
type RepositoryManager interface {
	Init(ctx context.Context) error
	Users() users.Repository
	Releases() releases.Repository
	SyncRuns() syncruns.Repository
	Checkpoints() checkpoints.Repository
	Close() error
}
