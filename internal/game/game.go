package game

import (
	"fmt"
	"math/rand"
)

// Порог "дорогой" локации: от этого среднего значения локация считается high-value
const HighValuePoints = 15

// Тип варианта побега
type OptionType string

const (
	OptionHide OptionType = "hide"
	OptionRun  OptionType = "run"
)

// DefaultKeepAmount доля очков, сохраняемая при успешном побеге
const DefaultKeepAmount = 0.8

// Локация для лута (контент, только чтение)
type Location struct {
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	MinPoints int    `json:"min_points"`
	MaxPoints int    `json:"max_points"`
}

// AvgPoints возвращает середину диапазона награды
func (l Location) AvgPoints() float64 {
	return float64(l.MinPoints+l.MaxPoints) / 2
}

// HighValue сообщает, считается ли локация дорогой
func (l Location) HighValue() bool {
	return l.AvgPoints() >= HighValuePoints
}

// RollPoints бросает награду в диапазоне [MinPoints, MaxPoints]
func (l Location) RollPoints(rng *rand.Rand) int {
	if l.MaxPoints <= l.MinPoints {
		return l.MinPoints
	}
	return l.MinPoints + rng.Intn(l.MaxPoints-l.MinPoints+1)
}

// Вариант побега для пойманного игрока
type EscapeOption struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        OptionType `json:"type"`
	Emoji       string     `json:"emoji,omitempty"`
	Description string     `json:"description,omitempty"`
	KeepAmount  float64    `json:"keep_amount,omitempty"`
}

// Keep возвращает долю сохраняемых очков для варианта
func (o EscapeOption) Keep() float64 {
	if o.KeepAmount > 0 {
		return o.KeepAmount
	}
	return DefaultKeepAmount
}

// Catalog хранит локации и варианты побега
type Catalog struct {
	locations []Location
	escapes   map[string][]EscapeOption
}

// NewCatalog создает каталог, имена локаций должны быть уникальны
func NewCatalog(locations []Location, escapes map[string][]EscapeOption) (*Catalog, error) {
	if len(locations) == 0 {
		return nil, fmt.Errorf("catalog needs at least one location")
	}
	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		if seen[loc.Name] {
			return nil, fmt.Errorf("duplicate location %q", loc.Name)
		}
		if loc.MinPoints < 0 || loc.MaxPoints < loc.MinPoints {
			return nil, fmt.Errorf("location %q has invalid reward range [%d, %d]", loc.Name, loc.MinPoints, loc.MaxPoints)
		}
		seen[loc.Name] = true
	}
	return &Catalog{locations: locations, escapes: escapes}, nil
}

func (c *Catalog) Len() int {
	return len(c.locations)
}

// Location возвращает локацию по индексу
func (c *Catalog) Location(index int) (Location, bool) {
	if index < 0 || index >= len(c.locations) {
		return Location{}, false
	}
	return c.locations[index], true
}

// IndexOf возвращает индекс локации по имени или -1
func (c *Catalog) IndexOf(name string) int {
	for i, loc := range c.locations {
		if loc.Name == name {
			return i
		}
	}
	return -1
}

// Locations возвращает копию списка локаций
func (c *Catalog) Locations() []Location {
	out := make([]Location, len(c.locations))
	copy(out, c.locations)
	return out
}

// EscapeOptions возвращает варианты побега для локации
func (c *Catalog) EscapeOptions(location string) []EscapeOption {
	opts := c.escapes[location]
	out := make([]EscapeOption, len(opts))
	copy(out, opts)
	return out
}

// DefaultCatalog стандартный набор из восьми локаций
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultLocations, defaultEscapes)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultLocations = []Location{
	{Name: "Gas Station", Emoji: "🏪", MinPoints: 4, MaxPoints: 6},
	{Name: "Pharmacy", Emoji: "💊", MinPoints: 8, MaxPoints: 12},
	{Name: "Jewelry Store", Emoji: "💎", MinPoints: 16, MaxPoints: 24},
	{Name: "Bank Vault", Emoji: "🏦", MinPoints: 28, MaxPoints: 42},
	{Name: "Warehouse", Emoji: "📦", MinPoints: 7, MaxPoints: 9},
	{Name: "Pawn Shop", Emoji: "🔨", MinPoints: 10, MaxPoints: 14},
	{Name: "Electronics Store", Emoji: "💻", MinPoints: 12, MaxPoints: 18},
	{Name: "Convenience Store", Emoji: "🏬", MinPoints: 6, MaxPoints: 8},
}

var defaultEscapes = map[string][]EscapeOption{
	"Gas Station": {
		{ID: "gas_restroom", Name: "Restroom", Type: OptionHide, Emoji: "🚻"},
		{ID: "gas_freezer", Name: "Walk-in Freezer", Type: OptionHide, Emoji: "🧊"},
		{ID: "gas_backdoor", Name: "Back Door", Type: OptionRun, Emoji: "🚪", KeepAmount: 0.7},
	},
	"Pharmacy": {
		{ID: "pharmacy_storage", Name: "Storage Room", Type: OptionHide, Emoji: "📦"},
		{ID: "pharmacy_counter", Name: "Under the Counter", Type: OptionHide, Emoji: "🧴"},
		{ID: "pharmacy_window", Name: "Side Window", Type: OptionRun, Emoji: "🪟", KeepAmount: 0.7},
	},
	"Jewelry Store": {
		{ID: "jewelry_safe", Name: "Behind the Safe", Type: OptionHide, Emoji: "🔐"},
		{ID: "jewelry_display", Name: "Display Cabinet", Type: OptionHide, Emoji: "💍"},
		{ID: "jewelry_alley", Name: "Alley Exit", Type: OptionRun, Emoji: "🏃"},
	},
	"Bank Vault": {
		{ID: "vault_deposit_boxes", Name: "Deposit Boxes", Type: OptionHide, Emoji: "🗄️"},
		{ID: "vault_vents", Name: "Air Vents", Type: OptionHide, Emoji: "🌀"},
		{ID: "vault_lobby", Name: "Through the Lobby", Type: OptionRun, Emoji: "🏃", KeepAmount: 0.6},
		{ID: "vault_garage", Name: "Parking Garage", Type: OptionRun, Emoji: "🚗", KeepAmount: 0.6},
	},
	"Warehouse": {
		{ID: "warehouse_crates", Name: "Crate Stack", Type: OptionHide, Emoji: "📦"},
		{ID: "warehouse_loft", Name: "Loft", Type: OptionHide, Emoji: "🪜"},
		{ID: "warehouse_dock", Name: "Loading Dock", Type: OptionRun, Emoji: "🚚"},
	},
	"Pawn Shop": {
		{ID: "pawn_backroom", Name: "Back Room", Type: OptionHide, Emoji: "🚪"},
		{ID: "pawn_basement", Name: "Basement", Type: OptionHide, Emoji: "🕳️"},
		{ID: "pawn_exit", Name: "Fire Exit", Type: OptionRun, Emoji: "🔥"},
	},
	"Electronics Store": {
		{ID: "electronics_boxes", Name: "TV Boxes", Type: OptionHide, Emoji: "📺"},
		{ID: "electronics_stockroom", Name: "Stockroom", Type: OptionHide, Emoji: "🔌"},
		{ID: "electronics_mall", Name: "Into the Mall", Type: OptionRun, Emoji: "🏬", KeepAmount: 0.7},
	},
	"Convenience Store": {
		{ID: "convenience_cooler", Name: "Drink Cooler", Type: OptionHide, Emoji: "🥤"},
		{ID: "convenience_aisle", Name: "Snack Aisle", Type: OptionHide, Emoji: "🍫"},
		{ID: "convenience_kitchen", Name: "Kitchen Exit", Type: OptionRun, Emoji: "🍳"},
	},
}
