package ws

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"lootrun/internal/service"
)

// Handler обновляет HTTP-запрос до websocket и подключает клиента к комнате
type Handler struct {
	hub      *Hub
	tokens   *service.TokenService
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewHandler(hub *Hub, tokens *service.TokenService, allowedOrigin string, log *slog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		tokens: tokens,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

// HandleWS: GET /ws?room=CODE&token=JWT&username=NAME
// без токена участник получает одноразовый id и не сможет переподключиться
func (h *Handler) HandleWS(c *gin.Context) {
	participantID := uuid.NewString()
	profileID := ""
	username := c.Query("username")

	if token := c.Query("token"); token != "" {
		if h.tokens == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "tokens are not accepted"})
			return
		}
		claims, err := h.tokens.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		participantID = claims.ProfileID
		profileID = claims.ProfileID
		if username == "" {
			username = claims.Username
		}
	}

	var (
		room *Room
		err  error
	)
	if code := c.Query("room"); code != "" {
		room, err = h.hub.GetOrCreate(code)
	} else {
		room, err = h.hub.Create()
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "error", err)
		return
	}

	client := NewClient(participantID, conn, h.log.With("room", room.Code))
	if !room.Attach(client, username, profileID) {
		_ = conn.Close()
		return
	}
	go client.Serve(room)
}
