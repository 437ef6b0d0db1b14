package principal

import "context"

// Repository defines the identity lookups and mutations the auth core
// needs. Implementations must return ErrNotFound when no row matches
// and ErrConflict on unique-constraint violations.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Principal, error)
	FindByID(ctx context.Context, id string) (*Principal, error)
	FindByExternalID(ctx context.Context, externalID string) (*Principal, error)

	Create(ctx context.Context, p *Principal) (*Principal, error)

	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	UpdateTFA(ctx context.Context, id string, enabled bool, secret string) error
}
