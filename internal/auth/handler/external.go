package handler

import (
	"net/http"

	"github.com/valtervalik/InstaShare/internal/logger"

	"github.com/gin-gonic/gin"
)

type externalRequest struct {
	Token string `json:"token"`
}

// External authenticates a directly posted google ID-token assertion.
func (h *Handler) External(c *gin.Context) {
	var req externalRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.google.Authenticate(c.Request.Context(), req.Token)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	h.setSession(c, pair)

	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}

// oauthLogin starts the browser OAuth code flow with PKCE.
func (h *Handler) oauthLogin(c *gin.Context) {
	state := generateState(c)
	_, codeChallenge := generatePKCE(c)

	authURL := h.provider.AuthCodeURL(state, codeChallenge)
	c.Redirect(http.StatusFound, authURL)
}

// oauthCallback finishes the code flow: the exchanged ID token runs
// through the exact same assertion path as External.
func (h *Handler) oauthCallback(c *gin.Context) {
	if !validateState(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid state"})
		return
	}

	if errParam := c.Query("error"); errParam != "" {
		logger.Warn("oauth callback returned error", map[string]any{
			"error": errParam,
			"desc":  c.Query("error_description"),
		})
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	code := c.Query("code")
	if code == "" {
		logger.Error("oauth callback missing code and error", nil)
		c.AbortWithStatus(http.StatusBadRequest)
		return
	}

	codeVerifier := getPKCEVerifier(c)
	if codeVerifier == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing pkce verifier"})
		return
	}

	rawIDToken, err := h.provider.ExchangeCode(c.Request.Context(), code, codeVerifier)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	pair, err := h.google.Authenticate(c.Request.Context(), rawIDToken)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	h.setSession(c, pair)

	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}
