package ws

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"lootrun/internal/game"
	"lootrun/internal/metrics"
	"lootrun/internal/session"
)

const (
	inboxSize   = 256
	saveTimeout = 10 * time.Second
)

// RoomDeps общие зависимости всех комнат
type RoomDeps struct {
	Settings session.Settings
	Catalog  *game.Catalog
	Planner  session.Planner
	Scorer   session.ScorerSource
	Recorder session.Recorder
	Log      *slog.Logger
}

// RoomInfo для списка комнат
type RoomInfo struct {
	Code      string `json:"code"`
	Players   int    `json:"players"`
	Connected int    `json:"connected"`
	Phase     string `json:"phase"`
	Round     int    `json:"round"`
}

type attachCmd struct {
	peer Peer
	join session.Event
}

type detachCmd struct {
	peer Peer
}

// Room владеет одной сессией и сериализует все события через inbox.
// Сессия и peers трогаются только из горутины Run.
type Room struct {
	Code string

	inbox    chan any
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	session  *session.Session
	timers   *session.TimerManager
	recorder session.Recorder
	log      *slog.Logger

	peers  map[string]Peer
	slow   []string
	saved  bool
	failed bool

	info       atomic.Pointer[RoomInfo]
	finished   atomic.Bool
	lastActive atomic.Int64
	createdAt  time.Time
	saving     sync.WaitGroup

	OnClose func(code string)
}

func NewRoom(code string, deps RoomDeps) (*Room, error) {
	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	r := &Room{
		Code:      code,
		inbox:     make(chan any, inboxSize),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		recorder:  deps.Recorder,
		log:       log.With("room", code),
		peers:     make(map[string]Peer),
		createdAt: time.Now(),
	}
	r.timers = session.NewTimerManager(func(ev session.Event) { r.Post(ev) })

	s, err := session.New(uuid.NewString(), code, deps.Settings, session.Deps{
		Catalog:  deps.Catalog,
		Planner:  deps.Planner,
		Scorer:   deps.Scorer,
		Notifier: r,
		Timers:   r.timers,
		Rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		Log:      log.With("room", code),
	})
	if err != nil {
		return nil, fmt.Errorf("new room %s: %w", code, err)
	}
	r.session = s
	r.touch()
	r.publishInfo()
	return r, nil
}

// Post отдает событие в очередь комнаты; false если комната закрыта
func (r *Room) Post(ev session.Event) bool {
	return r.enqueue(ev)
}

// Attach подключает peer и передает сессии его join
func (r *Room) Attach(p Peer, username, profileID string) bool {
	join := session.NewEvent(session.EventJoin, p.ID(), map[string]any{
		session.KeyUsername:  username,
		session.KeyProfileID: profileID,
	})
	return r.enqueue(attachCmd{peer: p, join: join})
}

// Detach сообщает о разрыве соединения peer
func (r *Room) Detach(p Peer) {
	r.enqueue(detachCmd{peer: p})
}

func (r *Room) enqueue(cmd any) bool {
	select {
	case <-r.quit:
		return false
	default:
	}
	select {
	case r.inbox <- cmd:
		return true
	case <-r.quit:
		return false
	}
}

func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Done закрывается после выхода Run
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) Info() RoomInfo       { return *r.info.Load() }
func (r *Room) Finished() bool       { return r.finished.Load() }
func (r *Room) CreatedAt() time.Time { return r.createdAt }

func (r *Room) LastActive() time.Time {
	return time.Unix(0, r.lastActive.Load())
}

func (r *Room) Run() {
	metrics.SessionsActive.Inc()
	defer func() {
		r.timers.Close()
		r.saving.Wait()
		metrics.SessionsActive.Dec()
		close(r.done)
		if r.OnClose != nil {
			r.OnClose(r.Code)
		}
	}()

	r.log.Info("room started", "session", r.session.ID())
	for {
		select {
		case <-r.quit:
			r.handle(session.NewEvent(session.EventTeardown, "", nil))
			r.afterEvent()
			for id, p := range r.peers {
				p.Close()
				delete(r.peers, id)
			}
			r.log.Info("room closed", "session", r.session.ID(), "rounds", r.session.Round())
			return
		case cmd := <-r.inbox:
			r.dispatch(cmd)
			r.afterEvent()
		}
	}
}

func (r *Room) dispatch(cmd any) {
	r.touch()
	switch c := cmd.(type) {
	case attachCmd:
		id := c.peer.ID()
		if old, ok := r.peers[id]; ok && old != c.peer {
			old.Close()
		}
		r.peers[id] = c.peer
		r.handle(c.join)
		if !r.session.Has(id) {
			// сессия отказала (полная комната или игра уже идет)
			delete(r.peers, id)
			c.peer.Close()
		}
	case detachCmd:
		id := c.peer.ID()
		if cur, ok := r.peers[id]; !ok || cur != c.peer {
			return
		}
		delete(r.peers, id)
		r.handle(session.NewEvent(session.EventLeave, id, nil))
	case session.Event:
		r.handle(c)
	default:
		r.log.Warn("unknown room command", "type", fmt.Sprintf("%T", cmd))
	}
}

func (r *Room) handle(ev session.Event) {
	if r.failed {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.failed = true
			r.log.Error("session panicked, tearing down", "panic", rec, "event", ev.Type())
			r.Broadcast(session.Message{Type: session.MsgError, Payload: session.ErrorPayload{Message: "game aborted"}})
			r.timers.CancelAll()
			r.Stop()
		}
	}()
	r.session.Handle(ev)
}

func (r *Room) afterEvent() {
	// медленные клиенты отключаются так же, как при разрыве
	for len(r.slow) > 0 {
		id := r.slow[0]
		r.slow = r.slow[1:]
		p, ok := r.peers[id]
		if !ok {
			continue
		}
		r.log.Warn("peer too slow, disconnecting", "participant", id)
		delete(r.peers, id)
		p.Close()
		r.handle(session.NewEvent(session.EventLeave, id, nil))
	}

	if err := r.session.Err(); err != nil && !r.failed {
		r.failed = true
		r.log.Error("session failed, tearing down", "error", err)
		r.Stop()
	}

	if r.session.IsOver() && !r.saved {
		r.saved = true
		r.finished.Store(true)
		r.save()
	}
	r.publishInfo()

	if len(r.peers) == 0 && (r.session.IsOver() || r.session.Players() == 0) {
		r.Stop()
	}
}

func (r *Room) save() {
	if r.recorder == nil || !r.session.Started() {
		return
	}
	rec := r.session.Record()
	r.saving.Add(1)
	go func() {
		defer r.saving.Done()
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		if err := r.recorder.SaveGame(ctx, rec); err != nil {
			r.log.Error("failed to save game", "error", err, "game", rec.ID)
			return
		}
		r.log.Info("game saved", "game", rec.ID, "reason", rec.Reason, "rounds", rec.RoundsPlayed)
	}()
}

func (r *Room) touch() {
	r.lastActive.Store(time.Now().UnixNano())
}

func (r *Room) publishInfo() {
	r.info.Store(&RoomInfo{
		Code:      r.Code,
		Players:   r.session.Players(),
		Connected: r.session.Connected(),
		Phase:     r.session.Phase().String(),
		Round:     r.session.Round(),
	})
}

// Broadcast реализует session.Notifier
func (r *Room) Broadcast(msg session.Message) {
	frame, err := Encode(msg)
	if err != nil {
		r.log.Error("encode failed", "type", msg.Type, "error", err)
		return
	}
	for id, p := range r.peers {
		if !p.Deliver(frame) {
			r.slow = append(r.slow, id)
		}
	}
}

// Send реализует session.Notifier
func (r *Room) Send(participantID string, msg session.Message) {
	p, ok := r.peers[participantID]
	if !ok {
		return
	}
	frame, err := Encode(msg)
	if err != nil {
		r.log.Error("encode failed", "type", msg.Type, "error", err)
		return
	}
	if !p.Deliver(frame) {
		r.slow = append(r.slow, participantID)
	}
}
