package twofactor

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/valtervalik/InstaShare/internal/principal"
	"github.com/valtervalik/InstaShare/internal/secrets"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *principal.MemoryRepository, *secrets.Cipher) {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cipher := secrets.NewFromKey(key)

	repo := principal.NewMemoryRepository()
	return NewService(repo, cipher, "InstaShare"), repo, cipher
}

func seedPrincipal(t *testing.T, repo *principal.MemoryRepository) *principal.Principal {
	t.Helper()
	p, err := repo.Create(context.Background(), &principal.Principal{
		Email:        "u@x.com",
		PasswordHash: "irrelevant",
		Role:         "user",
	})
	require.NoError(t, err)
	return p
}

func currentCode(t *testing.T, secret string) string {
	t.Helper()
	code, err := totp.GenerateCode(secret, time.Now().UTC())
	require.NoError(t, err)
	return code
}

func TestGenerateSecretPersistsPendingCiphertext(t *testing.T) {
	ctx := context.Background()
	svc, repo, cipher := newTestService(t)
	p := seedPrincipal(t, repo)

	secret, uri, err := svc.GenerateSecret(ctx, p.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, secret)
	assert.Contains(t, uri, "otpauth://totp/")
	assert.Contains(t, uri, "InstaShare")

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.TFAEnabled, "secret must stay pending until verified")
	assert.NotEmpty(t, stored.TFASecret)
	assert.NotEqual(t, secret, stored.TFASecret, "only ciphertext may be persisted")

	decrypted, err := cipher.Decrypt(stored.TFASecret)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)
}

func TestEnableActivatesOnValidCode(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	p := seedPrincipal(t, repo)

	secret, _, err := svc.GenerateSecret(ctx, p.ID)
	require.NoError(t, err)

	require.NoError(t, svc.Enable(ctx, p.ID, currentCode(t, secret)))

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, stored.TFAEnabled)
	assert.NotEmpty(t, stored.TFASecret)
}

func TestEnableDiscardsPendingSecretOnBadCode(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	p := seedPrincipal(t, repo)

	_, _, err := svc.GenerateSecret(ctx, p.ID)
	require.NoError(t, err)

	err = svc.Enable(ctx, p.ID, "000000")
	assert.ErrorIs(t, err, ErrInvalidCode)

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.TFAEnabled)
	assert.Empty(t, stored.TFASecret, "failed enable must discard the pending secret")
}

func TestEnableWithoutPendingSecret(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	p := seedPrincipal(t, repo)

	err := svc.Enable(ctx, p.ID, "123456")
	assert.ErrorIs(t, err, ErrNoPendingSecret)
}

func TestDisableClearsSecretAndFlag(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService(t)
	p := seedPrincipal(t, repo)

	secret, _, err := svc.GenerateSecret(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, svc.Enable(ctx, p.ID, currentCode(t, secret)))

	require.NoError(t, svc.Disable(ctx, p.ID))

	stored, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, stored.TFAEnabled)
	assert.Empty(t, stored.TFASecret)
}

func TestVerifyCodeToleratesOneStepOfSkew(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      "InstaShare",
		AccountName: "u@x.com",
	})
	require.NoError(t, err)
	secret := key.Secret()

	now := time.Now().UTC()

	current, err := totp.GenerateCode(secret, now)
	require.NoError(t, err)
	assert.True(t, VerifyCode(secret, current))

	previous, err := totp.GenerateCode(secret, now.Add(-30*time.Second))
	require.NoError(t, err)
	assert.True(t, VerifyCode(secret, previous), "one step of drift is tolerated")

	stale, err := totp.GenerateCode(secret, now.Add(-120*time.Second))
	require.NoError(t, err)
	assert.False(t, VerifyCode(secret, stale), "codes beyond the skew window must fail")

	assert.False(t, VerifyCode(secret, "000000"))
	assert.False(t, VerifyCode(secret, "not-a-code"))
}
