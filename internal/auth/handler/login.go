package handler

import (
	"net/http"

	"github.com/valtervalik/InstaShare/internal/auth/session"
	"github.com/valtervalik/InstaShare/internal/logger"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TFACode  string `json:"tfaCode"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	pair, err := h.sessions.Login(
		c.Request.Context(),
		req.Email,
		req.Password,
		req.TFACode,
	)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	h.setSession(c, pair)

	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}

func (h *Handler) Refresh(c *gin.Context) {
	cookie, err := c.Request.Cookie(session.CookieName)
	if err != nil || cookie.Value == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	pair, err := h.sessions.Renew(c.Request.Context(), cookie.Value)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	h.setSession(c, pair)

	c.JSON(http.StatusOK, gin.H{"accessToken": pair.AccessToken})
}

func (h *Handler) Logout(c *gin.Context) {
	// Best effort: a missing or invalid cookie still logs out cleanly.
	cookie, err := c.Request.Cookie(session.CookieName)
	if err == nil && cookie.Value != "" {
		if claims, err := h.sessions.Describe(cookie.Value); err == nil {
			if err := h.sessions.Logout(c.Request.Context(), claims.Subject); err != nil {
				logger.Warn("logout: failed to drop session entry", map[string]any{
					"error": err.Error(),
				})
			}
		}
	}

	session.ClearCookie(c.Writer, h.cookieOpts)

	c.Status(http.StatusNoContent)
}
