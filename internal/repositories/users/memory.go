package users

import (
	"context"
	"sync"
	"time"

	"github.com/asetate/asetate/internal/common"
	"github.com/asetate/asetate/internal/models"
)

type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[string]*models.User
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.User)}
}

func (r *MemoryRepository) Create(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[u.ID]; ok {
		return common.ErrorInternal
	}
	for _, existing := range r.byID {
		if existing.DiscogsUsername == u.DiscogsUsername {
			return common.ErrorInternal
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	r.byID[u.ID] = copyUser(u)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *MemoryRepository) GetByUsername(ctx context.Context, discogsUsername string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.DiscogsUsername == discogsUsername {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) UpdateToken(ctx context.Context, id string, ciphertext, nonce []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.TokenCiphertext = append([]byte(nil), ciphertext...)
	u.TokenNonce = append([]byte(nil), nonce...)
	return nil
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.TokenCiphertext = append([]byte(nil), u.TokenCiphertext...)
	c.TokenNonce = append([]byte(nil), u.TokenNonce...)
	return &c
}
