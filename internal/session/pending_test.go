package session

import (
	"sync"
	"testing"
	"time"

	"lootrun/internal/game"
)

func TestPendingChoicesRecordOnce(t *testing.T) {
	p := NewPendingChoices()
	if !p.Record("a", Choice{LocationIndex: 2, Source: SourcePlayer}) {
		t.Fatal("first record rejected")
	}
	if p.Record("a", Choice{LocationIndex: 5, Source: SourceTimeout}) {
		t.Fatal("second record accepted")
	}
	c, _ := p.Choice("a")
	if c.LocationIndex != 2 || c.Source != SourcePlayer || p.Len() != 1 {
		t.Fatalf("state changed by second record: %+v", c)
	}
	if p.AllSubmitted([]string{"a", "b"}) {
		t.Fatal("b has not submitted")
	}
	if !p.AllSubmitted([]string{"a"}) || !p.AllSubmitted(nil) {
		t.Fatal("expected all submitted")
	}

	p.MarkShopDone("a")
	if !p.AllShopDone([]string{"a"}) || p.AllShopDone([]string{"a", "b"}) {
		t.Fatal("shop done bookkeeping broken")
	}
	p.Clear()
	if p.Len() != 0 || p.ShopDone("a") {
		t.Fatal("clear left state behind")
	}
}

func TestPendingEscapes(t *testing.T) {
	p := NewPendingEscapes()
	if !p.AllResolved() {
		t.Fatal("empty tracker should be resolved")
	}
	opts := []game.EscapeOption{{ID: "x"}}
	p.Add(PendingEscape{Participant: "a", Options: opts})
	p.Add(PendingEscape{Participant: "b", Options: opts})

	if p.RecordChoice("zzz", "x", SourcePlayer) {
		t.Fatal("choice recorded without an entry")
	}
	if !p.RecordChoice("b", "x", SourcePlayer) || p.RecordChoice("b", "x", SourceTimeout) {
		t.Fatal("entry should resolve exactly once")
	}
	if ids := p.UnresolvedIDs(); len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("unresolved %v", ids)
	}
	if p.AllResolved() {
		t.Fatal("a is still pending")
	}
	p.RecordChoice("a", "x", SourceDisconnected)
	if !p.AllResolved() {
		t.Fatal("expected all resolved")
	}
	if e, _ := p.Get("a"); e.Source != SourceDisconnected || e.Chosen != "x" {
		t.Fatalf("entry %+v", e)
	}
	p.Clear()
	if p.Len() != 0 || len(p.All()) != 0 {
		t.Fatal("clear left entries")
	}
}

type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) emit(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
}

func (s *eventSink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func TestTimerCancelledNeverFires(t *testing.T) {
	sink := &eventSink{}
	m := NewTimerManager(sink.emit)

	m.Start(TimerChoice, 20*time.Millisecond, EventChoiceTimeout, map[string]any{KeyRound: 1})
	if !m.Cancel(TimerChoice) {
		t.Fatal("cancel reported nothing pending")
	}
	time.Sleep(80 * time.Millisecond)
	if sink.len() != 0 {
		t.Fatalf("cancelled timer emitted %d events", sink.len())
	}
	if m.Cancel(TimerChoice) {
		t.Fatal("second cancel should report false")
	}
}

func TestTimerFiresOnceAndRestartReplaces(t *testing.T) {
	sink := &eventSink{}
	m := NewTimerManager(sink.emit)

	m.Start(TimerEscape, 200*time.Millisecond, EventEscapeTimeout, map[string]any{KeyRound: 1})
	m.Start(TimerEscape, 10*time.Millisecond, EventEscapeTimeout, map[string]any{KeyRound: 2})
	time.Sleep(300 * time.Millisecond)

	if sink.len() != 1 {
		t.Fatalf("expected 1 event, got %d", sink.len())
	}
	if r, _ := sink.events[0].Int(KeyRound); r != 2 || sink.events[0].Type() != EventEscapeTimeout {
		t.Fatalf("unexpected event %v round %d", sink.events[0].Type(), r)
	}
	if m.Pending() != 0 {
		t.Fatalf("pending %d after fire", m.Pending())
	}

	m.Start(TimerShop, 10*time.Millisecond, EventShopTimeout, nil)
	m.Close()
	m.Start(TimerShop, 10*time.Millisecond, EventShopTimeout, nil)
	time.Sleep(50 * time.Millisecond)
	if sink.len() != 1 {
		t.Fatalf("closed manager emitted, got %d events", sink.len())
	}
}

func TestEventIsImmutable(t *testing.T) {
	payload := map[string]any{KeyLocationIndex: float64(3), KeyOptionID: "x"}
	ev := NewEvent(EventLocationChoice, "p1", payload)
	payload[KeyLocationIndex] = float64(9)

	if i, ok := ev.Int(KeyLocationIndex); !ok || i != 3 {
		t.Fatalf("Int = %d, %v", i, ok)
	}
	if s, ok := ev.String(KeyOptionID); !ok || s != "x" {
		t.Fatalf("String = %q, %v", s, ok)
	}
	if _, ok := NewEvent(EventLocationChoice, "", map[string]any{KeyLocationIndex: 1.5}).Int(KeyLocationIndex); ok {
		t.Fatal("fractional index accepted")
	}
}
