package syncruns

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const runColumns = `id, user_id, status, total_pages, pages_completed,
	total_items, processed_items, added, updated, unchanged, removed,
	last_error, started_at, last_progress_at, completed_at, created_at`

func (r *PostgresRepository) Create(ctx context.Context, run *models.SyncRun) error {
	query := `INSERT INTO sync_runs (id, user_id, status) VALUES ($1, $2, $3)
		RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query, run.ID, run.UserID, run.Status).
		Scan(&run.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, run *models.SyncRun) error {
	query := `UPDATE sync_runs SET
			status = $1, total_pages = $2, pages_completed = $3,
			total_items = $4, processed_items = $5,
			added = $6, updated = $7, unchanged = $8, removed = $9,
			last_error = $10, started_at = $11, last_progress_at = $12,
			completed_at = $13
		WHERE id = $14`

	res, err := r.db.ExecContext(ctx, query,
		run.Status, run.TotalPages, run.PagesCompleted,
		run.TotalItems, run.ProcessedItems,
		run.Added, run.Updated, run.Unchanged, run.Removed,
		run.LastError, run.StartedAt, run.LastProgressAt,
		run.CompletedAt, run.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs WHERE id = $1`
	return r.scanRun(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetLatest(ctx context.Context, userID string) (*models.SyncRun, error) {
	query := `SELECT ` + runColumns + ` FROM sync_runs
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanRun(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) scanRun(row *sql.Row) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	var started, progressed, completed sql.NullTime

	err := row.Scan(&run.ID, &run.UserID, &run.Status,
		&run.TotalPages, &run.PagesCompleted, &run.TotalItems, &run.ProcessedItems,
		&run.Added, &run.Updated, &run.Unchanged, &run.Removed,
		&run.LastError, &started, &progressed, &completed, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if started.Valid {
		t := started.Time
		run.StartedAt = &t
	}
	if progressed.Valid {
		t := progressed.Time
		run.LastProgressAt = &t
	}
	if completed.Valid {
		t := completed.Time
		run.CompletedAt = &t
	}
	return run, nil
}
