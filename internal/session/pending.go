package session

import (
	"lootrun/internal/game"
	"lootrun/internal/seeker"
)

// ChoiceSource tells a real decision from an engine fallback.
type ChoiceSource string

const (
	SourcePlayer       ChoiceSource = "player"
	SourceTimeout      ChoiceSource = "timeout"
	SourceDisconnected ChoiceSource = "disconnected"
)

type Choice struct {
	LocationIndex int
	Source        ChoiceSource
}

// PendingChoices collects location choices and shop completion for one round.
type PendingChoices struct {
	choices  map[string]Choice
	shopDone map[string]bool
}

func NewPendingChoices() *PendingChoices {
	return &PendingChoices{
		choices:  make(map[string]Choice),
		shopDone: make(map[string]bool),
	}
}

// Record stores the first choice of a participant; later calls return false and change nothing.
func (p *PendingChoices) Record(participant string, c Choice) bool {
	if _, ok := p.choices[participant]; ok {
		return false
	}
	p.choices[participant] = c
	return true
}

func (p *PendingChoices) Choice(participant string) (Choice, bool) {
	c, ok := p.choices[participant]
	return c, ok
}

func (p *PendingChoices) AllSubmitted(expected []string) bool {
	for _, id := range expected {
		if _, ok := p.choices[id]; !ok {
			return false
		}
	}
	return true
}

func (p *PendingChoices) Len() int { return len(p.choices) }

func (p *PendingChoices) MarkShopDone(participant string) bool {
	if p.shopDone[participant] {
		return false
	}
	p.shopDone[participant] = true
	return true
}

func (p *PendingChoices) ShopDone(participant string) bool { return p.shopDone[participant] }

func (p *PendingChoices) AllShopDone(expected []string) bool {
	for _, id := range expected {
		if !p.shopDone[id] {
			return false
		}
	}
	return true
}

func (p *PendingChoices) Clear() {
	clear(p.choices)
	clear(p.shopDone)
}

// PendingEscape is one caught participant waiting to pick an escape option.
type PendingEscape struct {
	Participant string
	Location    string
	Points      int
	Options     []game.EscapeOption
	Predicted   seeker.EscapePrediction
	Resolved    bool
	Chosen      string
	Source      ChoiceSource
}

// PendingEscapes keeps caught participants of the current round in insertion order.
type PendingEscapes struct {
	entries map[string]*PendingEscape
	order   []string
}

func NewPendingEscapes() *PendingEscapes {
	return &PendingEscapes{entries: make(map[string]*PendingEscape)}
}

func (p *PendingEscapes) Add(e PendingEscape) {
	if _, ok := p.entries[e.Participant]; !ok {
		p.order = append(p.order, e.Participant)
	}
	e.Resolved, e.Chosen, e.Source = false, "", ""
	p.entries[e.Participant] = &e
}

// RecordChoice resolves the entry; false if there is no unresolved entry.
func (p *PendingEscapes) RecordChoice(participant, optionID string, source ChoiceSource) bool {
	e, ok := p.entries[participant]
	if !ok || e.Resolved {
		return false
	}
	e.Resolved = true
	e.Chosen = optionID
	e.Source = source
	return true
}

func (p *PendingEscapes) Get(participant string) (PendingEscape, bool) {
	e, ok := p.entries[participant]
	if !ok {
		return PendingEscape{}, false
	}
	return *e, true
}

func (p *PendingEscapes) AllResolved() bool {
	for _, e := range p.entries {
		if !e.Resolved {
			return false
		}
	}
	return true
}

func (p *PendingEscapes) UnresolvedIDs() []string {
	var out []string
	for _, id := range p.order {
		if !p.entries[id].Resolved {
			out = append(out, id)
		}
	}
	return out
}

// All returns copies in insertion order.
func (p *PendingEscapes) All() []PendingEscape {
	out := make([]PendingEscape, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, *p.entries[id])
	}
	return out
}

func (p *PendingEscapes) Len() int { return len(p.order) }

func (p *PendingEscapes) Clear() {
	clear(p.entries)
	p.order = p.order[:0]
}
