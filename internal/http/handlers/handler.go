package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"lootrun/internal/domain"
	"lootrun/internal/game"
	"lootrun/internal/service"
	"lootrun/internal/ws"

	"github.com/gin-gonic/gin"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// GameStore история игр; nil если база не настроена
type GameStore interface {
	Recent(ctx context.Context, limit int) ([]domain.GameRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

type Handler struct {
	Hub     *ws.Hub
	Games   GameStore
	Tokens  *service.TokenService
	Catalog *game.Catalog
	Version string
	Log     *slog.Logger
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.Version,
		"rooms":   h.Hub.Len(),
	})
}

// queryLimit читает ?limit=, ограничивая его сверху
func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return defaultLimit
	}
	return min(n, maxLimit)
}
