package session

import (
	"sync"
	"time"
)

// Timer ids, one per waiting phase.
const (
	TimerShop   = "shop"
	TimerChoice = "choice"
	TimerEscape = "escape"
	TimerPause  = "pause"
)

// Scheduler turns timeouts into Events.
type Scheduler interface {
	Start(id string, d time.Duration, t EventType, payload map[string]any)
	Cancel(id string) bool
	CancelAll()
}

type timerEntry struct {
	gen   uint64
	timer *time.Timer
}

// TimerManager schedules delayed Events with time.AfterFunc.
// A cancelled or replaced timer never emits; an emitted event is delivered once.
type TimerManager struct {
	mu     sync.Mutex
	emit   func(Event)
	timers map[string]timerEntry
	seq    uint64
	closed bool
}

func NewTimerManager(emit func(Event)) *TimerManager {
	return &TimerManager{emit: emit, timers: make(map[string]timerEntry)}
}

// Start cancels any timer with the same id and schedules a new one.
func (m *TimerManager) Start(id string, d time.Duration, t EventType, payload map[string]any) {
	ev := NewEvent(t, "", payload)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if old, ok := m.timers[id]; ok {
		old.timer.Stop()
	}
	m.seq++
	gen := m.seq
	m.timers[id] = timerEntry{
		gen:   gen,
		timer: time.AfterFunc(d, func() { m.fire(id, gen, ev) }),
	}
}

func (m *TimerManager) fire(id string, gen uint64, ev Event) {
	m.mu.Lock()
	cur, ok := m.timers[id]
	if !ok || cur.gen != gen {
		m.mu.Unlock()
		return
	}
	delete(m.timers, id)
	m.mu.Unlock()

	m.emit(ev)
}

// Cancel stops the timer; false if nothing was pending under id.
func (m *TimerManager) Cancel(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.timers[id]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(m.timers, id)
	return true
}

func (m *TimerManager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, cur := range m.timers {
		cur.timer.Stop()
		delete(m.timers, id)
	}
}

// Close cancels everything and rejects later Starts.
func (m *TimerManager) Close() {
	m.CancelAll()
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
}

// Pending reports how many timers are scheduled.
func (m *TimerManager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}
