package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p, err := h.credentials.Register(
		c.Request.Context(),
		req.Email,
		req.Password,
	)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	// Auto-login after registration
	pair, err := h.sessions.GenerateTokens(c.Request.Context(), p)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	h.setSession(c, pair)

	c.JSON(http.StatusCreated, gin.H{"accessToken": pair.AccessToken})
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	principalID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	err := h.credentials.ChangePassword(
		c.Request.Context(),
		principalID,
		req.OldPassword,
		req.NewPassword,
	)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
