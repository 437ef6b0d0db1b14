package google

import (
	"context"
	"errors"

	"github.com/valtervalik/InstaShare/internal/auth"
	"github.com/valtervalik/InstaShare/internal/notify"
	"github.com/valtervalik/InstaShare/internal/principal"
)

// AssertionVerifier validates a third-party identity assertion and
// returns the asserted subject id and email.
type AssertionVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (subject, email string, err error)
}

// Service maps verified google identities onto local principals:
// found principals sign straight in, unknown ones are created on the
// spot with no password.
type Service struct {
	verifier AssertionVerifier
	repo     principal.Repository
	sessions *auth.Service
	notifier notify.Notifier
}

func NewService(
	verifier AssertionVerifier,
	repo principal.Repository,
	sessions *auth.Service,
	notifier notify.Notifier,
) *Service {
	return &Service{
		verifier: verifier,
		repo:     repo,
		sessions: sessions,
		notifier: notifier,
	}
}

// Authenticate verifies the assertion and issues tokens with the same
// session semantics as a password login. Every verification failure
// collapses to ErrUnauthorized so the endpoint cannot be used as an
// oracle.
func (s *Service) Authenticate(ctx context.Context, assertion string) (*auth.TokenPair, error) {
	subject, email, err := s.verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, auth.ErrUnauthorized
	}

	p, err := s.repo.FindByExternalID(ctx, subject)

	switch {
	case err == nil:

	case errors.Is(err, principal.ErrNotFound):
		p, err = s.repo.Create(ctx, &principal.Principal{
			Email:      email,
			ExternalID: subject,
			Role:       "user",
		})
		if err != nil {
			// The email may already belong to a password-based
			// principal. Accounts are never merged implicitly.
			return nil, err
		}

		s.notifier.Emit(notify.EventPrincipalCreated, map[string]any{
			"email": p.Email,
		})

	default:
		return nil, err
	}

	return s.sessions.GenerateTokens(ctx, p)
}
