package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// последние сыгранные игры
func (h *Handler) RecentGames(c *gin.Context) {
	if h.Games == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	games, err := h.Games.Recent(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.Log.Error("failed to load recent games", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get games"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"games": games})
}

// топ по победам
func (h *Handler) GetLeaderboard(c *gin.Context) {
	if h.Games == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history is disabled"})
		return
	}
	top, err := h.Games.Leaderboard(c.Request.Context(), queryLimit(c))
	if err != nil {
		h.Log.Error("failed to load leaderboard", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": top})
}
