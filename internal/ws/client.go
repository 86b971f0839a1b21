package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Peer is one connected participant as seen by a Room.
type Peer interface {
	ID() string
	// Deliver queues a frame without blocking; false means the peer is too slow or gone.
	Deliver(frame []byte) bool
	Close()
}

// Client websocket-соединение участника
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	log  *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

func NewClient(id string, conn *websocket.Conn, log *slog.Logger) *Client {
	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    log.With("participant", id),
		closed: make(chan struct{}),
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) Deliver(frame []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Serve запускает writePump и блокирует на readPump до разрыва соединения
func (c *Client) Serve(room *Room) {
	go c.writePump()
	c.readPump(room)
}

func (c *Client) readPump(room *Room) {
	defer func() {
		room.Detach(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", "error", err)
			}
			return
		}
		ev, err := Decode(c.id, msg)
		if err != nil {
			c.log.Debug("bad frame", "error", err)
			continue
		}
		if !room.Post(ev) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.log.Debug("write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			// дописываем то, что уже в очереди
			for {
				select {
				case msg := <-c.send:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				default:
					_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
			}
		}
	}
}
