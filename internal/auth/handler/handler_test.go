package handler

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/valtervalik/InstaShare/internal/auth"
	"github.com/valtervalik/InstaShare/internal/auth/credentials"
	"github.com/valtervalik/InstaShare/internal/auth/google"
	"github.com/valtervalik/InstaShare/internal/auth/session"
	"github.com/valtervalik/InstaShare/internal/auth/token"
	"github.com/valtervalik/InstaShare/internal/auth/twofactor"
	"github.com/valtervalik/InstaShare/internal/middleware"
	"github.com/valtervalik/InstaShare/internal/notify"
	"github.com/valtervalik/InstaShare/internal/principal"
	"github.com/valtervalik/InstaShare/internal/secrets"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	subject string
	email   string
}

func (f *fakeVerifier) Verify(context.Context, string) (string, string, error) {
	return f.subject, f.email, nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *principal.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	cipher := secrets.NewFromKey(key)

	repo := principal.NewMemoryRepository()
	registry := session.NewMemoryRegistry()
	issuer := token.NewIssuer("test-signing-secret", 15*time.Minute, 24*time.Hour)
	notifier := notify.NewLogNotifier()

	credentialService := credentials.NewService(repo, cipher, notifier)
	twoFAService := twofactor.NewService(repo, cipher, "InstaShare")
	sessions := auth.NewService(credentialService, issuer, registry, repo)
	googleService := google.NewService(
		&fakeVerifier{subject: "g-123", email: "ext@x.com"},
		repo,
		sessions,
		notifier,
	)

	h := NewHandler(sessions, credentialService, twoFAService, googleService, nil)

	router := gin.New()
	h.RegisterRoutes(router, middleware.NewAuthMiddleware(issuer))
	return router, repo
}

func doJSON(router *gin.Engine, method, path string, body any, mutate func(*http.Request)) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if mutate != nil {
		mutate(req)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func accessToken(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.AccessToken)
	return body.AccessToken
}

func TestRegisterLoginRefreshLogoutFlow(t *testing.T) {
	router, _ := newTestRouter(t)

	// Register: 201, cookie set, access token in body.
	rec := doJSON(router, http.MethodPost, "/authenticate/register", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	accessToken(t, rec)
	first := sessionCookie(t, rec)
	assert.True(t, first.HttpOnly)
	assert.Equal(t, int((24 * time.Hour).Seconds()), first.MaxAge)

	// Login: 200 with a fresh session.
	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	loginCookie := sessionCookie(t, rec)

	// Wrong password: coarse 401.
	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Refresh rotates the cookie.
	rec = doJSON(router, http.MethodPost, "/authenticate/refresh", nil, func(r *http.Request) {
		r.AddCookie(loginCookie)
	})
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := sessionCookie(t, rec)
	assert.NotEqual(t, loginCookie.Value, rotated.Value)

	// The consumed session token cannot refresh again.
	rec = doJSON(router, http.MethodPost, "/authenticate/refresh", nil, func(r *http.Request) {
		r.AddCookie(loginCookie)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Logout clears the cookie and is idempotent.
	rec = doJSON(router, http.MethodPost, "/authenticate/logout", nil, func(r *http.Request) {
		r.AddCookie(rotated)
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)

	rec = doJSON(router, http.MethodPost, "/authenticate/logout", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// After logout the rotated token cannot refresh.
	rec = doJSON(router, http.MethodPost, "/authenticate/refresh", nil, func(r *http.Request) {
		r.AddCookie(rotated)
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshWithoutCookie(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/authenticate/refresh", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExternalAssertionFlow(t *testing.T) {
	router, repo := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/authenticate/external", gin.H{
		"token": "assertion",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	accessToken(t, rec)
	sessionCookie(t, rec)

	created, err := repo.FindByExternalID(context.Background(), "g-123")
	require.NoError(t, err)
	assert.Equal(t, "ext@x.com", created.Email)
}

func TestTwoFactorEndpointsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/authenticate/2fa/enable", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTwoFactorEnableVerifyLoginDisable(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/authenticate/register", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	access := accessToken(t, rec)

	withAuth := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access)
	}

	// Generate the pending secret.
	rec = doJSON(router, http.MethodPost, "/authenticate/2fa/enable", nil, withAuth)
	require.Equal(t, http.StatusOK, rec.Code)

	var enableBody struct {
		Secret string `json:"secret"`
		URI    string `json:"uri"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enableBody))
	require.NotEmpty(t, enableBody.Secret)
	assert.Contains(t, enableBody.URI, "otpauth://totp/")

	// Confirm with a live code.
	code, err := totp.GenerateCode(enableBody.Secret, time.Now().UTC())
	require.NoError(t, err)

	rec = doJSON(router, http.MethodPost, "/authenticate/2fa/verify", gin.H{
		"code": code,
	}, withAuth)
	require.Equal(t, http.StatusOK, rec.Code)

	// Password alone no longer logs in.
	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Password plus code does.
	code, err = totp.GenerateCode(enableBody.Secret, time.Now().UTC())
	require.NoError(t, err)

	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
		"tfaCode":  code,
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Disable drops the requirement again.
	rec = doJSON(router, http.MethodPost, "/authenticate/2fa/disable", nil, withAuth)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "secret-password",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangePasswordEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(router, http.MethodPost, "/authenticate/register", gin.H{
		"email":    "u@x.com",
		"password": "old-password",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	access := accessToken(t, rec)

	withAuth := func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+access)
	}

	rec = doJSON(router, http.MethodPost, "/authenticate/password", gin.H{
		"oldPassword": "wrong",
		"newPassword": "new-password",
	}, withAuth)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(router, http.MethodPost, "/authenticate/password", gin.H{
		"oldPassword": "old-password",
		"newPassword": "new-password",
	}, withAuth)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(router, http.MethodPost, "/authenticate", gin.H{
		"email":    "u@x.com",
		"password": "new-password",
	}, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
