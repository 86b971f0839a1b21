package ws

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"math/big"
	"sort"
	"strings"
	"sync"
	"time"
)

const codeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

var ErrBadRoomCode = errors.New("bad room code")

// Hub реестр комнат по коду
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	deps  RoomDeps
	log   *slog.Logger
}

func NewHub(deps RoomDeps) *Hub {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms: make(map[string]*Room),
		deps:  deps,
		log:   log,
	}
}

// NormalizeCode приводит код комнаты к каноничному виду
func NormalizeCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < 4 || len(code) > 12 {
		return "", ErrBadRoomCode
	}
	for _, ch := range code {
		if !strings.ContainsRune(codeChars, ch) {
			return "", ErrBadRoomCode
		}
	}
	return code, nil
}

// GetOrCreate возвращает комнату по коду, создавая ее при первом входе
func (h *Hub) GetOrCreate(code string) (*Room, error) {
	code, err := NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[code]; ok && !r.Finished() {
		return r, nil
	}
	return h.newRoomLocked(code)
}

// Create создает комнату со свободным случайным кодом
func (h *Hub) Create() (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		code := generateCode(6)
		if _, exists := h.rooms[code]; exists {
			continue
		}
		return h.newRoomLocked(code)
	}
}

func (h *Hub) newRoomLocked(code string) (*Room, error) {
	r, err := NewRoom(code, h.deps)
	if err != nil {
		return nil, err
	}
	r.OnClose = func(c string) { h.remove(c, r) }
	if old, ok := h.rooms[code]; ok {
		old.Stop()
	}
	h.rooms[code] = r
	go r.Run()
	h.log.Info("room created", "room", code, "rooms", len(h.rooms))
	return r, nil
}

func (h *Hub) Get(code string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	r, ok := h.rooms[strings.ToUpper(code)]
	return r, ok
}

func (h *Hub) remove(code string, r *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.rooms[code]; ok && cur == r {
		delete(h.rooms, code)
	}
}

// List возвращает открытые комнаты, отсортированные по коду
func (h *Hub) List() []RoomInfo {
	h.mu.RLock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for _, r := range h.rooms {
		if r.Finished() {
			continue
		}
		out = append(out, r.Info())
	}
	h.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// StartCleanup периодически закрывает завершенные и брошенные комнаты
func (h *Hub) StartCleanup(ctx context.Context, every, maxIdle time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				h.cleanupStaleRooms(maxIdle)
			}
		}
	}()
}

func (h *Hub) cleanupStaleRooms(maxIdle time.Duration) {
	now := time.Now()
	h.mu.RLock()
	var stale []*Room
	for _, r := range h.rooms {
		info := r.Info()
		if r.Finished() || (info.Connected == 0 && now.Sub(r.LastActive()) > maxIdle) {
			stale = append(stale, r)
		}
	}
	h.mu.RUnlock()

	for _, r := range stale {
		h.log.Info("closing stale room", "room", r.Code, "finished", r.Finished())
		r.Stop()
	}
}

// Shutdown останавливает все комнаты и ждет их завершения
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	for _, r := range rooms {
		r.Stop()
	}
	for _, r := range rooms {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func generateCode(n int) string {
	b := make([]byte, n)
	max := big.NewInt(int64(len(codeChars)))
	for i := range b {
		idx, _ := rand.Int(rand.Reader, max)
		b[i] = codeChars[idx.Int64()]
	}
	return string(b)
}
