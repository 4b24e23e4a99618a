package checkpoints

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

func (r *PostgresRepository) Save(ctx context.Context, cp *models.Checkpoint) error {
	query := `INSERT INTO checkpoints (user_id, run_id, next_page, cursor, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			next_page = EXCLUDED.next_page,
			cursor = EXCLUDED.cursor,
			updated_at = now()`

	if _, err := r.db.ExecContext(ctx, query, cp.UserID, cp.RunID, cp.NextPage, cp.Cursor); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Load(ctx context.Context, userID string) (*models.Checkpoint, error) {
	query := `SELECT user_id, run_id, next_page, cursor, updated_at
		FROM checkpoints WHERE user_id = $1`

	cp := &models.Checkpoint{}
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&cp.UserID, &cp.RunID, &cp.NextPage, &cp.Cursor, &cp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return cp, nil
}

func (r *PostgresRepository) Clear(ctx context.Context, runID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE run_id = $1`, runID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
