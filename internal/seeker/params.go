package seeker

import "lootrun/internal/config"

// Params tunes temperature and behavioral tiers.
type Params struct {
	BaseTemperature float64
	MinTemperature  float64
	MaxTemperature  float64

	// SpreadThreshold: when max(impact)-mean(impact) is below it, no target
	// stands out and the temperature is raised by ExploreFactor.
	SpreadThreshold float64
	ExploreFactor   float64

	// HighScoreGuard is a fraction of the win threshold; a participant at or
	// above it lowers the temperature by ExploitFactor.
	HighScoreGuard float64
	ExploitFactor  float64

	ColdStreakRounds int
	ColdStreakFactor float64

	EarlyRounds int
	MidRounds   int
	DecayRate   float64

	// ModelBlend is the weight of the learned scorer when blended with the heuristic.
	ModelBlend float64
}

func DefaultParams() Params {
	return Params{
		BaseTemperature:  0.35,
		MinTemperature:   0.05,
		MaxTemperature:   2.0,
		SpreadThreshold:  0.1,
		ExploreFactor:    1.5,
		HighScoreGuard:   0.8,
		ExploitFactor:    0.5,
		ColdStreakRounds: 3,
		ColdStreakFactor: 1.3,
		EarlyRounds:      3,
		MidRounds:        6,
		DecayRate:        0.3,
		ModelBlend:       0.7,
	}
}

// Tier is the behavioral tier used to build a participant's location distribution.
type Tier int

const (
	TierEarly Tier = iota
	TierMid
	TierLate
)

func (t Tier) String() string {
	switch t {
	case TierEarly:
		return "early"
	case TierMid:
		return "mid"
	case TierLate:
		return "late"
	default:
		return "unknown"
	}
}

// TierFor picks the tier by round number and how much history is available.
func (p Params) TierFor(round, historyLen int) Tier {
	switch {
	case round <= p.EarlyRounds:
		return TierEarly
	case historyLen < 2 || round <= p.MidRounds:
		return TierMid
	default:
		return TierLate
	}
}

// ParamsFromConfig maps SEEKER_* settings onto Params; factors keep their defaults.
func ParamsFromConfig(cfg config.SeekerConfig) Params {
	p := DefaultParams()
	p.BaseTemperature = cfg.BaseTemperature
	p.MinTemperature = cfg.MinTemperature
	p.MaxTemperature = cfg.MaxTemperature
	p.SpreadThreshold = cfg.SpreadThreshold
	p.HighScoreGuard = cfg.HighScoreGuard
	p.ColdStreakRounds = cfg.ColdStreakRounds
	p.EarlyRounds = cfg.EarlyRounds
	p.MidRounds = cfg.MidRounds
	p.DecayRate = cfg.DecayRate
	p.ModelBlend = cfg.ModelBlend
	return p
}
