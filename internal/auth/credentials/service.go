package credentials

import (
	"context"
	"errors"

	"github.com/valtervalik/InstaShare/internal/auth/twofactor"
	"github.com/valtervalik/InstaShare/internal/notify"
	"github.com/valtervalik/InstaShare/internal/principal"
	"github.com/valtervalik/InstaShare/internal/secrets"
)

var (
	// ErrBadCredentials covers both "no such principal" and "wrong
	// password". The two cases are indistinguishable on purpose so the
	// endpoint cannot be used to probe which emails have accounts.
	ErrBadCredentials = errors.New("bad credentials")

	// ErrExternalIdentityRequired tells the caller this principal has
	// no password and must sign in through the external flow.
	ErrExternalIdentityRequired = errors.New("external identity required")

	// ErrSecondFactorRequired means the password checked out but a
	// 2FA code must accompany it.
	ErrSecondFactorRequired = errors.New("second factor required")
)

// Service validates password credentials, optionally gated by a second
// factor, and owns the registration and password-change paths.
type Service struct {
	repo     principal.Repository
	cipher   *secrets.Cipher
	notifier notify.Notifier
}

func NewService(repo principal.Repository, cipher *secrets.Cipher, notifier notify.Notifier) *Service {
	return &Service{
		repo:     repo,
		cipher:   cipher,
		notifier: notifier,
	}
}

// Validate authenticates email+password (+optional 2FA code) and
// returns the principal with its password hash and second-factor
// secret stripped. Read-only: no side effects on success or failure.
func (s *Service) Validate(
	ctx context.Context,
	email string,
	password string,
	tfaCode string,
) (*principal.Principal, error) {

	p, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, principal.ErrNotFound) {
		// hide whether the principal exists or not
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}

	switch {
	case p.PasswordHash != "":
		if err := VerifyPassword(p.PasswordHash, password); err != nil {
			return nil, ErrBadCredentials
		}
	case p.ExternalID != "":
		return nil, ErrExternalIdentityRequired
	default:
		// unreachable for well-formed principals, fail closed anyway
		return nil, ErrBadCredentials
	}

	if p.TFAEnabled {
		if tfaCode == "" {
			return nil, ErrSecondFactorRequired
		}

		secret, err := s.cipher.Decrypt(p.TFASecret)
		if err != nil {
			return nil, err
		}

		if !twofactor.VerifyCode(secret, tfaCode) {
			return nil, twofactor.ErrInvalidCode
		}
	}

	return p.Sanitized(), nil
}

// Register creates a password-based principal and announces it.
func (s *Service) Register(
	ctx context.Context,
	email string,
	password string,
) (*principal.Principal, error) {

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Create(ctx, &principal.Principal{
		Email:        email,
		PasswordHash: hash,
		Role:         "user",
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Emit(notify.EventPrincipalCreated, map[string]any{
		"email": p.Email,
	})

	return p.Sanitized(), nil
}

// ChangePassword rehashes only after the old password verifies.
func (s *Service) ChangePassword(
	ctx context.Context,
	principalID string,
	oldPassword string,
	newPassword string,
) error {

	p, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		return err
	}

	if p.PasswordHash == "" || VerifyPassword(p.PasswordHash, oldPassword) != nil {
		return ErrBadCredentials
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, p.ID, hash)
}
