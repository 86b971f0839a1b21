package http

import (
	"lootrun/internal/http/handlers"
	"lootrun/internal/http/middleware"
	"lootrun/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes вешает REST, websocket и метрики на движок
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, wsHandler *ws.Handler, allowedOrigin string) {
	r.Use(middleware.CORS(allowedOrigin))
	if h.Log != nil {
		r.Use(middleware.RequestLogger(h.Log))
	}

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", wsHandler.HandleWS)

	api := r.Group("/api")
	{
		api.POST("/auth/guest", h.GuestLogin)

		api.GET("/rooms", h.ListRooms)
		api.POST("/rooms", h.CreateRoom)
		api.GET("/rooms/:code", h.GetRoom)
		api.GET("/catalog", h.GetCatalog)

		api.GET("/games/recent", h.RecentGames)
		api.GET("/leaderboard", h.GetLeaderboard)
	}
}
