package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) EnableTFA(c *gin.Context) {
	principalID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	secret, uri, err := h.twoFA.GenerateSecret(c.Request.Context(), principalID)
	if err != nil {
		renderAuthError(c, err)
		return
	}

	// The plaintext secret and provisioning URI leave the server
	// exactly once; only ciphertext is persisted.
	c.JSON(http.StatusOK, gin.H{
		"secret": secret,
		"uri":    uri,
	})
}

type verifyTFARequest struct {
	Code string `json:"code"`
}

func (h *Handler) VerifyTFA(c *gin.Context) {
	principalID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	var req verifyTFARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if err := h.twoFA.Enable(c.Request.Context(), principalID, req.Code); err != nil {
		renderAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "enabled"})
}

func (h *Handler) DisableTFA(c *gin.Context) {
	principalID, ok := requirePrincipal(c)
	if !ok {
		return
	}

	if err := h.twoFA.Disable(c.Request.Context(), principalID); err != nil {
		renderAuthError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
