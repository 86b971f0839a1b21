package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// гостевой токен: по нему участник переподключается к своей игре
func (h *Handler) GuestLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	name := strings.TrimSpace(req.Username)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}

	token, claims, err := h.Tokens.IssueGuest(name)
	if err != nil {
		h.Log.Error("failed to issue token", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"profile_id": claims.ProfileID,
		"username":   claims.Username,
		"expires_at": claims.ExpiresAt.Time,
	})
}
