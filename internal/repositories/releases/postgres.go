package releases

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/dbx"
	"github.com/asetate/asetate/internal/models"
)

type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const releaseColumns = `id, user_id, discogs_id, title, artist, label, year,
	cover_art_url, discogs_uri, payload_hash, synced_at, seen_in_sync,
	removed_from_discogs_at, notes, user_corrections, kept_after_removal,
	created_at, updated_at`

func (r *PostgresRepository) GetByDiscogsID(ctx context.Context, userID string, discogsID int64) (*models.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE user_id = $1 AND discogs_id = $2`

	rel, err := scanRelease(r.db.QueryRowContext(ctx, query, userID, discogsID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return rel, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Release, error) {
	query := `SELECT ` + releaseColumns + ` FROM releases WHERE user_id = $1 ORDER BY artist, title`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Release
	for rows.Next() {
		rel, err := scanRelease(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, rel)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) Create(ctx context.Context, rel *models.Release) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		corrections, err := marshalCorrections(rel.UserCorrections)
		if err != nil {
			return err
		}

		query := `INSERT INTO releases
			(user_id, discogs_id, title, artist, label, year, cover_art_url,
			 discogs_uri, payload_hash, synced_at, seen_in_sync, notes, user_corrections)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING id, created_at`

		err = tx.QueryRowContext(ctx, query,
			rel.UserID, rel.DiscogsID, rel.Title, rel.Artist, rel.Label, rel.Year,
			rel.CoverArtURL, rel.DiscogsURI, rel.PayloadHash, rel.SyncedAt,
			rel.SeenInSync, rel.Notes, corrections,
		).Scan(&rel.ID, &rel.CreatedAt)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}

		for _, track := range rel.Tracks {
			track.ReleaseID = rel.ID
			if err := insertTrack(ctx, tx, track); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *PostgresRepository) UpdateRemoteFields(ctx context.Context, rel *models.Release) error {
	query := `UPDATE releases SET
			title = $1, artist = $2, label = $3, year = $4, cover_art_url = $5,
			discogs_uri = $6, payload_hash = $7, synced_at = $8, seen_in_sync = TRUE,
			removed_from_discogs_at = NULL, kept_after_removal = FALSE, updated_at = now()
		WHERE id = $9`

	res, err := r.db.ExecContext(ctx, query,
		rel.Title, rel.Artist, rel.Label, rel.Year, rel.CoverArtURL,
		rel.DiscogsURI, rel.PayloadHash, rel.SyncedAt, rel.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateUserFields(ctx context.Context, rel *models.Release) error {
	corrections, err := marshalCorrections(rel.UserCorrections)
	if err != nil {
		return err
	}

	query := `UPDATE releases SET
			notes = $1, user_corrections = $2, kept_after_removal = $3,
			updated_at = now()
		WHERE id = $4`

	res, err := r.db.ExecContext(ctx, query,
		rel.Notes, corrections, rel.KeptAfterRemoval, rel.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) MarkSeen(ctx context.Context, userID string, discogsID int64) error {
	query := `UPDATE releases SET seen_in_sync = TRUE, removed_from_discogs_at = NULL,
			kept_after_removal = FALSE
		WHERE user_id = $1 AND discogs_id = $2`

	res, err := r.db.ExecContext(ctx, query, userID, discogsID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) ResetSeen(ctx context.Context, userID string) error {
	query := `UPDATE releases SET seen_in_sync = FALSE WHERE user_id = $1`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) MarkMissing(ctx context.Context, userID string, at time.Time) (int64, error) {
	query := `UPDATE releases SET removed_from_discogs_at = $1
		WHERE user_id = $2 AND seen_in_sync = FALSE AND removed_from_discogs_at IS NULL`

	res, err := r.db.ExecContext(ctx, query, at, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListTracks(ctx context.Context, releaseID int64) ([]*models.Track, error) {
	query := `SELECT id, release_id, position, title, duration, bpm, musical_key,
			camelot, energy, is_playable, notes
		FROM tracks WHERE release_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, releaseID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Track
	for rows.Next() {
		t := &models.Track{}
		var bpm, energy sql.NullInt64
		err := rows.Scan(&t.ID, &t.ReleaseID, &t.Position, &t.Title, &t.Duration,
			&bpm, &t.MusicalKey, &t.Camelot, &energy, &t.IsPlayable, &t.Notes)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if bpm.Valid {
			v := int(bpm.Int64)
			t.BPM = &v
		}
		if energy.Valid {
			v := int(energy.Int64)
			t.Energy = &v
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *PostgresRepository) CreateTrack(ctx context.Context, t *models.Track) error {
	return insertTrack(ctx, r.db, t)
}

func (r *PostgresRepository) UpdateTrackRemoteFields(ctx context.Context, t *models.Track) error {
	query := `UPDATE tracks SET title = $1, duration = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, t.Title, t.Duration, t.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) UpdateTrackUserFields(ctx context.Context, t *models.Track) error {
	query := `UPDATE tracks SET bpm = $1, musical_key = $2, camelot = $3,
			energy = $4, is_playable = $5, notes = $6
		WHERE id = $7`

	res, err := r.db.ExecContext(ctx, query,
		t.BPM, t.MusicalKey, t.Camelot, t.Energy, t.IsPlayable, t.Notes, t.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func (r *PostgresRepository) DeleteTrack(ctx context.Context, trackID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = $1`, trackID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireRow(res)
}

func insertTrack(ctx context.Context, db dbx.DBTX, t *models.Track) error {
	query := `INSERT INTO tracks
			(release_id, position, title, duration, bpm, musical_key, camelot,
			 energy, is_playable, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	err := db.QueryRowContext(ctx, query,
		t.ReleaseID, t.Position, t.Title, t.Duration, t.BPM, t.MusicalKey,
		t.Camelot, t.Energy, t.IsPlayable, t.Notes,
	).Scan(&t.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// scanner lets scanRelease work on both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRelease(row scanner) (*models.Release, error) {
	rel := &models.Release{}
	var (
		syncedAt    sql.NullTime
		removedAt   sql.NullTime
		updatedAt   sql.NullTime
		corrections []byte
	)

	err := row.Scan(&rel.ID, &rel.UserID, &rel.DiscogsID, &rel.Title, &rel.Artist,
		&rel.Label, &rel.Year, &rel.CoverArtURL, &rel.DiscogsURI, &rel.PayloadHash,
		&syncedAt, &rel.SeenInSync, &removedAt, &rel.Notes, &corrections,
		&rel.KeptAfterRemoval, &rel.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if syncedAt.Valid {
		rel.SyncedAt = syncedAt.Time
	}
	if removedAt.Valid {
		t := removedAt.Time
		rel.RemovedFromDiscogsAt = &t
	}
	if updatedAt.Valid {
		rel.UpdatedAt = updatedAt.Time
	}
	if len(corrections) > 0 {
		if err := json.Unmarshal(corrections, &rel.UserCorrections); err != nil {
			return nil, fmt.Errorf("decoding user_corrections: %w", err)
		}
	}
	return rel, nil
}

func marshalCorrections(m map[string]string) (any, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding user_corrections: %w", err)
	}
	return b, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
