package principal

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository implements Repository over a mutex-guarded map,
// with the same uniqueness rules the postgres schema enforces. It
// backs local development and tests.
type MemoryRepository struct {
	mu         sync.RWMutex
	byID       map[string]*Principal
	emailIdx   map[string]string
	subjectIdx map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:       make(map[string]*Principal),
		emailIdx:   make(map[string]string),
		subjectIdx: make(map[string]string),
	}
}

func (r *MemoryRepository) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.emailIdx[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOf(r.byID[id]), nil
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOf(p), nil
}

func (r *MemoryRepository) FindByExternalID(ctx context.Context, externalID string) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.subjectIdx[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	return copyOf(r.byID[id]), nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *Principal) (*Principal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	emailKey := strings.ToLower(p.Email)
	if _, exists := r.emailIdx[emailKey]; exists {
		return nil, ErrConflict
	}
	if p.ExternalID != "" {
		if _, exists := r.subjectIdx[p.ExternalID]; exists {
			return nil, ErrConflict
		}
	}

	created := *p
	created.ID = uuid.NewString()
	now := time.Now()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.byID[created.ID] = &created
	r.emailIdx[emailKey] = created.ID
	if created.ExternalID != "" {
		r.subjectIdx[created.ExternalID] = created.ID
	}

	return copyOf(&created), nil
}

func (r *MemoryRepository) UpdatePassword(ctx context.Context, id string, passwordHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.PasswordHash = passwordHash
	p.UpdatedAt = time.Now()
	return nil
}

func (r *MemoryRepository) UpdateTFA(ctx context.Context, id string, enabled bool, secret string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	p.TFAEnabled = enabled
	p.TFASecret = secret
	p.UpdatedAt = time.Now()
	return nil
}

func copyOf(p *Principal) *Principal {
	cp := *p
	return &cp
}
