package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

func newMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newMock(t)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("u1", "djtest", []byte("ct"), []byte("nonce")).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	u := &models.User{
		ID: "u1", DiscogsUsername: "djtest",
		TokenCiphertext: []byte("ct"), TokenNonce: []byte("nonce"),
	}
	require.NoError(t, repo.Create(context.Background(), u))
	assert.Equal(t, now, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByUsername(t *testing.T) {
	repo, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "discogs_username", "token_ciphertext", "token_nonce", "created_at"}).
		AddRow("u1", "djtest", []byte("ct"), []byte("nonce"), time.Now())

	mock.ExpectQuery(regexp.QuoteMeta("WHERE discogs_username = $1")).
		WithArgs("djtest").
		WillReturnRows(rows)

	u, err := repo.GetByUsername(context.Background(), "djtest")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.True(t, u.HasToken())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery("FROM users").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "discogs_username", "token_ciphertext", "token_nonce", "created_at"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestUpdateToken(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET token_ciphertext = $1, token_nonce = $2")).
		WithArgs([]byte("new"), []byte("n2"), "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateToken(context.Background(), "u1", []byte("new"), []byte("n2")))
	require.NoError(t, mock.ExpectationsWereMet())
}
