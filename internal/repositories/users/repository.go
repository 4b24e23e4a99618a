// Package users persists catalog owners and their encrypted Discogs tokens.
package users

import (
	"context"

	"github.com/asetate/asetate/internal/models"
)

type Repository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, discogsUsername string) (*models.User, error)

	// UpdateToken replaces the stored token ciphertext and nonce.
	UpdateToken(ctx context.Context, id string, ciphertext, nonce []byte) error
}
