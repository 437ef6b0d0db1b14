package twofactor

import (
	"context"
	"errors"
	"time"

	"github.com/valtervalik/InstaShare/internal/principal"
	"github.com/valtervalik/InstaShare/internal/secrets"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

var (
	ErrInvalidCode     = errors.New("invalid 2FA code")
	ErrNoPendingSecret = errors.New("no pending 2FA secret")
)

// Service owns the second-factor lifecycle. A generated secret sits
// encrypted but inactive until the owner proves possession of it once;
// only then does the enabled flag flip.
type Service struct {
	repo   principal.Repository
	cipher *secrets.Cipher
	issuer string
}

func NewService(repo principal.Repository, cipher *secrets.Cipher, issuer string) *Service {
	return &Service{
		repo:   repo,
		cipher: cipher,
		issuer: issuer,
	}
}

// GenerateSecret mints a fresh TOTP secret for the principal and
// persists it encrypted as pending. The plaintext secret and the
// otpauth provisioning URI go back to the caller exactly once.
func (s *Service) GenerateSecret(ctx context.Context, principalID string) (secret string, uri string, err error) {
	p, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		return "", "", err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: p.Email,
	})
	if err != nil {
		return "", "", err
	}

	ciphertext, err := s.cipher.Encrypt(key.Secret())
	if err != nil {
		return "", "", err
	}

	if err := s.repo.UpdateTFA(ctx, p.ID, false, ciphertext); err != nil {
		return "", "", err
	}

	return key.Secret(), key.URL(), nil
}

// Enable activates the pending secret once the submitted code checks
// out. A failed check discards the pending secret entirely; the caller
// has to start over with a new one.
func (s *Service) Enable(ctx context.Context, principalID, code string) error {
	p, err := s.repo.FindByID(ctx, principalID)
	if err != nil {
		return err
	}

	if p.TFASecret == "" {
		return ErrNoPendingSecret
	}

	secret, err := s.cipher.Decrypt(p.TFASecret)
	if err != nil {
		return err
	}

	if !VerifyCode(secret, code) {
		if err := s.repo.UpdateTFA(ctx, p.ID, false, ""); err != nil {
			return err
		}
		return ErrInvalidCode
	}

	return s.repo.UpdateTFA(ctx, p.ID, true, p.TFASecret)
}

// Disable clears the secret and the flag unconditionally. No code is
// required: it only runs in an already-authenticated context.
func (s *Service) Disable(ctx context.Context, principalID string) error {
	return s.repo.UpdateTFA(ctx, principalID, false, "")
}

// VerifyCode checks a 6-digit time-based code against the plaintext
// secret, tolerating one 30s step of clock skew either way.
func VerifyCode(secret, code string) bool {
	ok, err := totp.ValidateCustom(code, secret, time.Now().UTC(), totp.ValidateOpts{
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}
