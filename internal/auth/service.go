package auth

import (
	"context"
	"errors"
	"time"

	"github.com/valtervalik/InstaShare/internal/auth/credentials"
	"github.com/valtervalik/InstaShare/internal/auth/session"
	"github.com/valtervalik/InstaShare/internal/auth/token"
	"github.com/valtervalik/InstaShare/internal/principal"
)

// ErrUnauthorized covers every renewal failure: bad signature, expired
// token, rotated-away session id. A registry mismatch is deliberately
// not distinguished from a bad signature.
var ErrUnauthorized = errors.New("unauthorized")

// TokenPair is what an authentication yields. The access token goes in
// the response body; the session token and its TTL are for the
// transport layer to place in the protected cookie, never the body.
type TokenPair struct {
	AccessToken  string
	SessionToken string
	SessionTTL   time.Duration
}

// Service is the façade over credential validation, token issuance and
// the session registry. It owns the per-principal session state
// machine: login and renewal move the registry pointer, logout clears
// it.
type Service struct {
	validator *credentials.Service
	issuer    *token.Issuer
	registry  session.Registry
	repo      principal.Repository
}

func NewService(
	validator *credentials.Service,
	issuer *token.Issuer,
	registry session.Registry,
	repo principal.Repository,
) *Service {
	return &Service{
		validator: validator,
		issuer:    issuer,
		registry:  registry,
		repo:      repo,
	}
}

// Login authenticates password credentials and opens a session.
// Validator errors pass through untouched so the transport can map
// them onto the taxonomy.
func (s *Service) Login(
	ctx context.Context,
	email string,
	password string,
	tfaCode string,
) (*TokenPair, error) {

	p, err := s.validator.Validate(ctx, email, password, tfaCode)
	if err != nil {
		return nil, err
	}

	return s.GenerateTokens(ctx, p)
}

// GenerateTokens mints a fresh session id, issues both tokens and
// records the session id in the registry, silently replacing any
// session the principal already had. Shared by password login and the
// external sign-in path.
func (s *Service) GenerateTokens(ctx context.Context, p *principal.Principal) (*TokenPair, error) {
	sessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}

	sessionToken, err := s.issuer.IssueSessionToken(p, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.registry.Put(ctx, p.ID, sessionID); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		SessionToken: sessionToken,
		SessionTTL:   s.issuer.SessionTTL(),
	}, nil
}

// Renew exchanges a valid session token for fresh tokens, rotating the
// registry entry atomically. After a successful renewal the old
// session token is dead for further renewals even though its signature
// stays valid until expiry.
func (s *Service) Renew(ctx context.Context, sessionToken string) (*TokenPair, error) {
	claims, err := s.issuer.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	p, err := s.repo.FindByID(ctx, claims.Subject)
	if errors.Is(err, principal.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	newSessionID, err := session.GenerateID()
	if err != nil {
		return nil, err
	}

	// Compare-and-swap: if another renewal already advanced the
	// pointer, this one loses.
	if err := s.registry.Swap(ctx, p.ID, claims.SessionID, newSessionID); err != nil {
		if errors.Is(err, session.ErrSessionInvalid) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}

	accessToken, err := s.issuer.IssueAccessToken(p)
	if err != nil {
		return nil, err
	}

	newSessionToken, err := s.issuer.IssueSessionToken(p, newSessionID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		SessionToken: newSessionToken,
		SessionTTL:   s.issuer.SessionTTL(),
	}, nil
}

// Describe verifies a session token's signature and expiry and
// returns its claims without consulting the registry. Used by logout
// to learn whose entry to drop.
func (s *Service) Describe(sessionToken string) (*token.SessionClaims, error) {
	claims, err := s.issuer.VerifySessionToken(sessionToken)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// Logout drops the registry entry. Logging out twice is not an error.
func (s *Service) Logout(ctx context.Context, principalID string) error {
	return s.registry.Invalidate(ctx, principalID)
}
