package game

import "math/rand"

// Событие на локации, меняет награду на 1-2 раунда
type LocationEvent struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Emoji       string  `json:"emoji"`
	Description string  `json:"description"`
	Multiplier  float64 `json:"-"`
	FlatBonus   int     `json:"-"`
	Duration    int     `json:"-"`
}

// Активное событие, привязанное к локации
type ActiveEvent struct {
	LocationEvent
	Location        string `json:"location"`
	RoundsRemaining int    `json:"rounds_remaining"`
}

// Apply применяет модификатор события к награде
func (e LocationEvent) Apply(points int) int {
	if e.Multiplier > 0 {
		points = int(float64(points) * e.Multiplier)
	}
	return points + e.FlatBonus
}

var eventPool = []LocationEvent{
	{ID: "jackpot", Name: "Jackpot Night", Emoji: "💰", Description: "Points doubled at this location!", Multiplier: 2.0, Duration: 1},
	{ID: "clearance", Name: "Clearance Sale", Emoji: "🏷️", Description: "50% more points", Multiplier: 1.5, Duration: 2},
	{ID: "lockdown", Name: "Security Lockdown", Emoji: "🚨", Description: "Points reduced by 30%", Multiplier: 0.7, Duration: 1},
	{ID: "bonus_stash", Name: "Bonus Stash", Emoji: "🎁", Description: "+20 flat bonus points", FlatBonus: 20, Duration: 1},
}

// EventBoard держит активные события; не больше maxConcurrent одновременно
type EventBoard struct {
	active        []ActiveEvent
	maxConcurrent int
	spawnChance   float64
}

func NewEventBoard(maxConcurrent int, spawnChance float64) *EventBoard {
	return &EventBoard{maxConcurrent: maxConcurrent, spawnChance: spawnChance}
}

// Tick уменьшает срок событий и, возможно, создает новое на свободной локации
func (b *EventBoard) Tick(rng *rand.Rand, locations []Location) {
	kept := b.active[:0]
	for _, ev := range b.active {
		ev.RoundsRemaining--
		if ev.RoundsRemaining > 0 {
			kept = append(kept, ev)
		}
	}
	b.active = kept

	if len(b.active) >= b.maxConcurrent || len(locations) == 0 || rng.Float64() >= b.spawnChance {
		return
	}

	free := make([]string, 0, len(locations))
	for _, loc := range locations {
		if _, busy := b.For(loc.Name); !busy {
			free = append(free, loc.Name)
		}
	}
	if len(free) == 0 {
		return
	}
	tmpl := eventPool[rng.Intn(len(eventPool))]
	b.active = append(b.active, ActiveEvent{
		LocationEvent:   tmpl,
		Location:        free[rng.Intn(len(free))],
		RoundsRemaining: tmpl.Duration,
	})
}

// For возвращает событие на локации
func (b *EventBoard) For(location string) (ActiveEvent, bool) {
	for _, ev := range b.active {
		if ev.Location == location {
			return ev, true
		}
	}
	return ActiveEvent{}, false
}

// Active возвращает копию активных событий
func (b *EventBoard) Active() []ActiveEvent {
	out := make([]ActiveEvent, len(b.active))
	copy(out, b.active)
	return out
}
