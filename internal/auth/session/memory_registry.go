package session

import (
	"context"
	"sync"
)

// MemoryRegistry implements Registry over a mutex-guarded map. It
// backs local development and tests with the exact semantics of the
// redis registry, including atomic Swap.
type MemoryRegistry struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{entries: make(map[string]string)}
}

func (r *MemoryRegistry) Put(ctx context.Context, principalID, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[principalID] = sessionID
	return nil
}

func (r *MemoryRegistry) Validate(ctx context.Context, principalID, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	current, ok := r.entries[principalID]
	if !ok || current != sessionID {
		return ErrSessionInvalid
	}
	return nil
}

func (r *MemoryRegistry) Swap(ctx context.Context, principalID, oldID, newID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.entries[principalID]
	if !ok || current != oldID {
		return ErrSessionInvalid
	}

	r.entries[principalID] = newID
	return nil
}

func (r *MemoryRegistry) Invalidate(ctx context.Context, principalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, principalID)
	return nil
}
