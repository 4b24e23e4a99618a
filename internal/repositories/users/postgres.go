package users

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

func (r *PostgresRepository) Create(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (id, discogs_username, token_ciphertext, token_nonce)
		VALUES ($1, $2, $3, $4) RETURNING created_at`

	err := r.db.QueryRowContext(ctx, query,
		u.ID, u.DiscogsUsername, u.TokenCiphertext, u.TokenNonce).
		Scan(&u.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, discogs_username, token_ciphertext, token_nonce, created_at
		FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, discogsUsername string) (*models.User, error) {
	query := `SELECT id, discogs_username, token_ciphertext, token_nonce, created_at
		FROM users WHERE discogs_username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, discogsUsername))
}

func (r *PostgresRepository) UpdateToken(ctx context.Context, id string, ciphertext, nonce []byte) error {
	query := `UPDATE users SET token_ciphertext = $1, token_nonce = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, ciphertext, nonce, id)
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

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.DiscogsUsername, &u.TokenCiphertext, &u.TokenNonce, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
