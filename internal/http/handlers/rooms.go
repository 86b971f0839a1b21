package handlers

import (
	"net/http"

	"lootrun/internal/game"

	"github.com/gin-gonic/gin"
)

// открытые комнаты
func (h *Handler) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.Hub.List()})
}

// новая комната со случайным кодом
func (h *Handler) CreateRoom(c *gin.Context) {
	room, err := h.Hub.Create()
	if err != nil {
		h.Log.Error("failed to create room", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}
	c.JSON(http.StatusCreated, room.Info())
}

func (h *Handler) GetRoom(c *gin.Context) {
	room, ok := h.Hub.Get(c.Param("code"))
	if !ok || room.Finished() {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, room.Info())
}

// локации и магазин для клиента
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"locations": h.Catalog.Locations(),
		"passives":  game.Passives(),
	})
}
