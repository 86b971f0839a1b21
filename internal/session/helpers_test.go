package session

import (
	"math/rand"
	"testing"
	"time"

	"lootrun/internal/game"
	"lootrun/internal/logger"
	"lootrun/internal/seeker"
)

type sent struct {
	to  string
	msg Message
}

type fakeNotifier struct {
	broadcasts []Message
	direct     []sent
}

func (f *fakeNotifier) Broadcast(msg Message) { f.broadcasts = append(f.broadcasts, msg) }

func (f *fakeNotifier) Send(id string, msg Message) {
	f.direct = append(f.direct, sent{to: id, msg: msg})
}

func (f *fakeNotifier) count(typ string) int {
	n := 0
	for _, m := range f.broadcasts {
		if m.Type == typ {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) last(typ string) (Message, bool) {
	for i := len(f.broadcasts) - 1; i >= 0; i-- {
		if f.broadcasts[i].Type == typ {
			return f.broadcasts[i], true
		}
	}
	return Message{}, false
}

func (f *fakeNotifier) lastTo(id, typ string) (Message, bool) {
	for i := len(f.direct) - 1; i >= 0; i-- {
		if f.direct[i].to == id && f.direct[i].msg.Type == typ {
			return f.direct[i].msg, true
		}
	}
	return Message{}, false
}

type fakeScheduler struct {
	started   map[string]Event
	cancelled []string
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{started: make(map[string]Event)}
}

func (f *fakeScheduler) Start(id string, _ time.Duration, t EventType, payload map[string]any) {
	f.started[id] = NewEvent(t, "", payload)
}

func (f *fakeScheduler) Cancel(id string) bool {
	_, ok := f.started[id]
	delete(f.started, id)
	f.cancelled = append(f.cancelled, id)
	return ok
}

func (f *fakeScheduler) CancelAll() {
	for id := range f.started {
		f.Cancel(id)
	}
}

// fire returns the pending timer event as the timer goroutine would emit it.
func (f *fakeScheduler) fire(t *testing.T, id string) Event {
	t.Helper()
	ev, ok := f.started[id]
	if !ok {
		t.Fatalf("timer %q is not pending", id)
	}
	delete(f.started, id)
	return ev
}

type stubPlanner struct {
	search   int
	predict  string
	searches int
	predicts int
	scorers  []seeker.Scorer
}

func (p *stubPlanner) ChooseSearch(in seeker.SearchInput, scorer seeker.Scorer, _ *rand.Rand) seeker.SearchDecision {
	p.searches++
	p.scorers = append(p.scorers, scorer)
	d := seeker.SearchDecision{
		LocationIndex: p.search,
		Temperature:   0.35,
		Reasoning:     "stub search",
	}
	if p.search >= 0 && p.search < len(in.Locations) {
		d.Location = in.Locations[p.search].Name
	}
	return d
}

func (p *stubPlanner) PredictEscape(in seeker.EscapeInput, _ *rand.Rand) seeker.EscapePrediction {
	p.predicts++
	id := p.predict
	if _, ok := game.FindOption(in.Options, id); !ok {
		id = in.Options[0].ID
	}
	return seeker.EscapePrediction{OptionID: id, Confidence: 1, Reasoning: "stub escape"}
}

// Locations: 0 "A" 10 pts (escapes a_hide/a_run), 1 "B" 5 pts (b_hide), 2 "C" 20 pts (no escapes).
func testCatalog(t *testing.T) *game.Catalog {
	t.Helper()
	c, err := game.NewCatalog(
		[]game.Location{
			{Name: "A", MinPoints: 10, MaxPoints: 10},
			{Name: "B", MinPoints: 5, MaxPoints: 5},
			{Name: "C", MinPoints: 20, MaxPoints: 20},
		},
		map[string][]game.EscapeOption{
			"A": {
				{ID: "a_hide", Name: "Hide", Type: game.OptionHide},
				{ID: "a_run", Name: "Run", Type: game.OptionRun},
			},
			"B": {{ID: "b_hide", Name: "Hide", Type: game.OptionHide}},
		},
	)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func testSettings() Settings {
	return Settings{
		TurnTimer:    30 * time.Second,
		EscapeTimer:  15 * time.Second,
		ShopTimer:    20 * time.Second,
		WinThreshold: 100,
		MinPlayers:   2,
		MaxPlayers:   6,
	}
}

type harness struct {
	s       *Session
	notify  *fakeNotifier
	timers  *fakeScheduler
	planner *stubPlanner
}

func newHarness(t *testing.T, settings Settings, planner *stubPlanner, scorer ScorerSource) *harness {
	t.Helper()
	h := &harness{notify: &fakeNotifier{}, timers: newFakeScheduler(), planner: planner}
	s, err := New("sess-1", "ABCD", settings, Deps{
		Catalog:  testCatalog(t),
		Planner:  planner,
		Scorer:   scorer,
		Notifier: h.notify,
		Timers:   h.timers,
		Rand:     rand.New(rand.NewSource(42)),
		Log:      logger.Discard(),
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	h.s = s
	return h
}

func (h *harness) join(ids ...string) {
	for _, id := range ids {
		h.s.Handle(NewEvent(EventJoin, id, map[string]any{KeyUsername: "user-" + id}))
	}
}

// start joins everyone and readies them up, which starts round 1.
func (h *harness) start(t *testing.T, ids ...string) {
	t.Helper()
	h.join(ids...)
	for _, id := range ids {
		h.s.Handle(NewEvent(EventReady, id, nil))
	}
	if h.s.Phase() != PhaseChoosing || h.s.Round() != 1 {
		t.Fatalf("expected choosing round 1, got %s round %d", h.s.Phase(), h.s.Round())
	}
}

func (h *harness) choose(id string, idx int) {
	h.s.Handle(NewEvent(EventLocationChoice, id, map[string]any{KeyLocationIndex: idx}))
}

func (h *harness) escape(id, option string) {
	h.s.Handle(NewEvent(EventEscapeChoice, id, map[string]any{KeyOptionID: option}))
}

func (h *harness) score(t *testing.T, id string) int {
	t.Helper()
	p, ok := h.s.participants[id]
	if !ok {
		t.Fatalf("unknown participant %s", id)
	}
	return p.Score
}
