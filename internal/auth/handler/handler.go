package handler

import (
	"errors"
	"net/http"

	"github.com/valtervalik/InstaShare/internal/auth"
	"github.com/valtervalik/InstaShare/internal/auth/credentials"
	"github.com/valtervalik/InstaShare/internal/auth/google"
	"github.com/valtervalik/InstaShare/internal/auth/session"
	"github.com/valtervalik/InstaShare/internal/auth/twofactor"
	"github.com/valtervalik/InstaShare/internal/middleware"
	"github.com/valtervalik/InstaShare/internal/principal"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	sessions    *auth.Service
	credentials *credentials.Service
	twoFA       *twofactor.Service
	google      *google.Service
	provider    *google.Provider
	cookieOpts  session.CookieOptions
}

func NewHandler(
	sessions *auth.Service,
	credentialService *credentials.Service,
	twoFA *twofactor.Service,
	googleService *google.Service,
	provider *google.Provider,
) *Handler {
	return &Handler{
		sessions:    sessions,
		credentials: credentialService,
		twoFA:       twoFA,
		google:      googleService,
		provider:    provider,
		cookieOpts: session.CookieOptions{
			Secure:   true,
			SameSite: http.SameSiteStrictMode,
		},
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, authMW *middleware.AuthMiddleware) {
	r.POST("/authenticate", h.Login)
	r.POST("/authenticate/register", h.Register)
	r.POST("/authenticate/refresh", h.Refresh)
	r.POST("/authenticate/logout", h.Logout)
	r.POST("/authenticate/external", h.External)

	r.GET("/oauth/login/google", h.oauthLogin)
	r.GET("/oauth/callback/google", h.oauthCallback)

	protected := r.Group("/authenticate")
	protected.Use(middleware.GinRequireAuth(authMW))
	protected.POST("/password", h.ChangePassword)
	protected.POST("/2fa/enable", h.EnableTFA)
	protected.POST("/2fa/verify", h.VerifyTFA)
	protected.POST("/2fa/disable", h.DisableTFA)
}

// setSession places the session token in the protected cookie. The
// JSON body only ever carries the access token.
func (h *Handler) setSession(c *gin.Context, pair *auth.TokenPair) {
	session.SetCookie(c.Writer, pair.SessionToken, pair.SessionTTL, h.cookieOpts)
}

// renderAuthError maps core failures onto transport responses.
// IO errors become a generic unavailability response, never an
// authentication verdict.
func renderAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, credentials.ErrBadCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "bad credentials"})
	case errors.Is(err, credentials.ErrExternalIdentityRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "please login with google"})
	case errors.Is(err, credentials.ErrSecondFactorRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "second factor required"})
	case errors.Is(err, twofactor.ErrInvalidCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid 2FA code"})
	case errors.Is(err, twofactor.ErrNoPendingSecret):
		c.JSON(http.StatusBadRequest, gin.H{"error": "no pending 2FA secret"})
	case errors.Is(err, auth.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, principal.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "account already exists"})
	case errors.Is(err, principal.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	}
}

func requirePrincipal(c *gin.Context) (string, bool) {
	id, ok := middleware.PrincipalFromContext(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return "", false
	}
	return id, true
}
