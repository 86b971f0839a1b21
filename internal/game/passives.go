package game

import "math/rand"

type PassiveType string

const (
	PassiveAIWhisperer     PassiveType = "ai_whisperer"
	PassiveInsideKnowledge PassiveType = "inside_knowledge"
	PassiveEscapeArtist    PassiveType = "escape_artist"
	PassiveQuickFeet       PassiveType = "quick_feet"
	PassiveHighRoller      PassiveType = "high_roller"
)

// Пассивный эффект из магазина
type Passive struct {
	Type        PassiveType `json:"id"`
	Name        string      `json:"name"`
	Cost        int         `json:"cost"`
	Description string      `json:"description"`
	Emoji       string      `json:"emoji"`
}

var passiveCatalog = []Passive{
	{Type: PassiveAIWhisperer, Name: "AI Whisperer", Cost: 15, Emoji: "🧠", Description: "See the Seeker's reasoning after every search"},
	{Type: PassiveInsideKnowledge, Name: "Inside Knowledge", Cost: 10, Emoji: "📋", Description: "See reward ranges at round start"},
	{Type: PassiveEscapeArtist, Name: "Escape Artist", Cost: 20, Emoji: "🎩", Description: "Keep 10% more points after a successful escape"},
	{Type: PassiveQuickFeet, Name: "Quick Feet", Cost: 15, Emoji: "👟", Description: "Keep 15% more points when running"},
	{Type: PassiveHighRoller, Name: "High Roller", Cost: 25, Emoji: "🎲", Description: "+15% loot at high-value locations, 20% bust chance"},
}

const (
	escapeArtistBonus = 0.10
	quickFeetBonus    = 0.15
	highRollerBonus   = 0.15
	highRollerBust    = 0.20
)

// Passives возвращает все пассивки магазина
func Passives() []Passive {
	out := make([]Passive, len(passiveCatalog))
	copy(out, passiveCatalog)
	return out
}

// LookupPassive ищет пассивку по id
func LookupPassive(id string) (Passive, bool) {
	for _, p := range passiveCatalog {
		if string(p.Type) == id {
			return p, true
		}
	}
	return Passive{}, false
}

// Loadout набор пассивок, которыми владеет игрок
type Loadout struct {
	owned []PassiveType
}

// Add добавляет пассивку, false если уже есть
func (l *Loadout) Add(t PassiveType) bool {
	if l.Has(t) {
		return false
	}
	l.owned = append(l.owned, t)
	return true
}

func (l *Loadout) Has(t PassiveType) bool {
	for _, o := range l.owned {
		if o == t {
			return true
		}
	}
	return false
}

func (l *Loadout) Len() int {
	return len(l.owned)
}

// IDs возвращает id пассивок в порядке покупки
func (l *Loadout) IDs() []string {
	out := make([]string, 0, len(l.owned))
	for _, o := range l.owned {
		out = append(out, string(o))
	}
	return out
}

// KeepBonus бонус к доле сохраняемых очков для варианта побега
func (l *Loadout) KeepBonus(opt EscapeOption) float64 {
	bonus := 0.0
	if l.Has(PassiveEscapeArtist) {
		bonus += escapeArtistBonus
	}
	if l.Has(PassiveQuickFeet) && opt.Type == OptionRun {
		bonus += quickFeetBonus
	}
	return bonus
}

// ApplyLoot применяет High Roller к награде на дорогих локациях.
// Второе значение true, если игрок "прогорел" и получает ноль.
func (l *Loadout) ApplyLoot(loc Location, points int, rng *rand.Rand) (int, bool) {
	if !l.Has(PassiveHighRoller) || !loc.HighValue() {
		return points, false
	}
	if rng.Float64() < highRollerBust {
		return 0, true
	}
	return points + int(float64(points)*highRollerBonus), false
}
