package seeker

import (
	"math"

	"lootrun/internal/game"
)

// FeatureCount is the length of Features.Vector; the learned scorer is trained on this layout.
const FeatureCount = 12

// Features describes a participant's behavior at the start of a round.
type Features struct {
	CurrentScore    float64
	PointsToWin     float64
	Round           float64
	AvgValue        float64
	RecentAvgValue  float64
	ValueVariance   float64
	HighValuePref   float64
	UniqueLocations float64
	RoundsRecorded  float64
	RiskTrend       float64
	TimesCaught     float64
	Passives        float64

	// Variety is UniqueLocations over the catalog size, not part of the vector.
	Variety float64
}

// Vector returns the features in the fixed order the scorer expects.
func (f Features) Vector() []float64 {
	return []float64{
		f.CurrentScore,
		f.PointsToWin,
		f.Round,
		f.AvgValue,
		f.RecentAvgValue,
		f.ValueVariance,
		f.HighValuePref,
		f.UniqueLocations,
		f.RoundsRecorded,
		f.RiskTrend,
		f.TimesCaught,
		f.Passives,
	}
}

// Extract builds Features for s.
func Extract(s Subject, round, winThreshold, numLocations int) Features {
	f := Features{
		CurrentScore: float64(s.Score),
		PointsToWin:  math.Max(0, float64(winThreshold-s.Score)),
		Round:        float64(round),
		Passives:     float64(s.Passives),
	}
	h := s.History
	if len(h) == 0 {
		return f
	}

	unique := make(map[string]bool, len(h))
	total, high, caught := 0.0, 0, 0
	for _, o := range h {
		unique[o.Location] = true
		total += float64(o.LocationValue)
		if o.LocationValue >= game.HighValuePoints {
			high++
		}
		if o.Caught {
			caught++
		}
	}
	n := float64(len(h))
	f.AvgValue = total / n

	variance := 0.0
	for _, o := range h {
		d := float64(o.LocationValue) - f.AvgValue
		variance += d * d
	}
	f.ValueVariance = variance / n

	recent := h
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	recentTotal := 0.0
	for _, o := range recent {
		recentTotal += float64(o.LocationValue)
	}
	f.RecentAvgValue = recentTotal / float64(len(recent))

	switch {
	case f.RecentAvgValue > f.AvgValue+3:
		f.RiskTrend = 1
	case f.RecentAvgValue < f.AvgValue-3:
		f.RiskTrend = -1
	}

	f.HighValuePref = float64(high) / n
	f.UniqueLocations = float64(len(unique))
	f.RoundsRecorded = n
	f.TimesCaught = float64(caught)
	if numLocations > 0 {
		f.Variety = f.UniqueLocations / float64(numLocations)
	}
	return f
}

// Predictability scores how easy s is to read, in [0, 1].
// With fewer than three choices it assumes a moderate 0.3.
func Predictability(s Subject, numLocations int) float64 {
	if len(s.History) < 3 {
		return 0.3
	}
	f := Extract(s, 0, 0, numLocations)

	valuePref := math.Abs(f.HighValuePref-0.5) * 2

	names := s.locationNames()
	recent := names
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	uniqueRecent := make(map[string]bool, len(recent))
	for _, n := range recent {
		uniqueRecent[n] = true
	}
	pattern := 1 - float64(len(uniqueRecent))/float64(len(recent))

	p := (1-f.Variety)*0.4 + valuePref*0.3 + pattern*0.3
	return math.Min(1, math.Max(0, p))
}

// Threat combines proximity to the win threshold with predictability, in [0, 1].
func Threat(s Subject, winThreshold int, predictability float64) float64 {
	if winThreshold <= 0 {
		return 0
	}
	wt := float64(winThreshold)
	proximity := float64(s.Score) / wt
	guard := math.Floor(wt * 0.8)
	if float64(s.Score) >= guard {
		proximity = 0.8 + (float64(s.Score)-guard)/wt
	}
	return math.Min(1, math.Max(0, proximity+predictability*0.2))
}
