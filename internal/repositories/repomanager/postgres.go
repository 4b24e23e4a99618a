package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/asetate/asetate/internal/migrations"
	"github.com/asetate/asetate/internal/repositories/checkpoints"
	"github.com/asetate/asetate/internal/repositories/releases"
	"github.com/asetate/asetate/internal/repositories/syncruns"
	"github.com/asetate/asetate/internal/repositories/users"
)

// PostgresRepositoryManager owns the database handle and vends
// PostgreSQL-backed repositories.
type PostgresRepositoryManager struct {
	db *sql.DB
}

func NewPostgresRepositoryManager(dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return &PostgresRepositoryManager{db: db}, nil
}

// gooseUpContext is a seam for testing Init.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Init verifies connectivity and applies the embedded schema migrations.
func (m *PostgresRepositoryManager) Init(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return fmt.Errorf("pinging database: %w", err)
	}

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Releases() releases.Repository {
	return releases.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) SyncRuns() syncruns.Repository {
	return syncruns.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Checkpoints() checkpoints.Repository {
	return checkpoints.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
