package seeker

import (
	"fmt"
	"math"
	"sort"

	"lootrun/internal/game"
)

// recencyWeights counts names with exponential decay: the newest entry weighs
// 1, each older one 2^(-decay) less.
func recencyWeights(names []string, decay float64) map[string]float64 {
	w := make(map[string]float64, len(names))
	for age := 0; age < len(names); age++ {
		name := names[len(names)-1-age]
		w[name] += math.Pow(2, -decay*float64(age))
	}
	return w
}

// recencyDistribution is the mid-tier model: Laplace-smoothed recency-weighted
// choice frequency over the catalog.
func recencyDistribution(s Subject, locations []game.Location, decay float64) []float64 {
	n := len(locations)
	if len(s.History) == 0 {
		return Uniform(n)
	}
	w := recencyWeights(s.locationNames(), decay)
	total := 0.0
	for _, loc := range locations {
		total += w[loc.Name]
	}
	out := make([]float64, n)
	for i, loc := range locations {
		out[i] = (w[loc.Name] + 1) / (total + float64(n))
	}
	return out
}

// behavioralDistribution is the late-tier heuristic: per-location scores from
// frequency, value preference, win pressure and risk trend.
func behavioralDistribution(s Subject, f Features, locations []game.Location, winThreshold int, decay float64) []float64 {
	w := recencyWeights(s.locationNames(), decay)
	total := 0.0
	for _, v := range w {
		total += v
	}
	closeToWin := f.PointsToWin <= math.Floor(float64(winThreshold)*0.2)

	scores := make([]float64, len(locations))
	for i, loc := range locations {
		score := 1.0
		if total > 0 {
			score += w[loc.Name] / total * 10
		}
		value := loc.AvgPoints()
		if f.AvgValue > 0 {
			if f.HighValuePref > 0.6 && value >= game.HighValuePoints {
				score += 5
			} else if f.HighValuePref < 0.4 && value < game.HighValuePoints {
				score += 5
			}
		}
		if closeToWin && value >= 20 {
			score += 8
		}
		if f.RiskTrend > 0 && value >= game.HighValuePoints {
			score += 3
		} else if f.RiskTrend < 0 && value < game.HighValuePoints {
			score += 3
		}
		scores[i] = score
	}
	out, ok := normalize(scores)
	if !ok {
		return Uniform(len(locations))
	}
	return out
}

// modelDistribution asks the learned scorer and aligns its answer with the
// catalog order. Any error or unusable distribution is returned as an error.
func modelDistribution(scorer Scorer, f Features, locations []game.Location) (dist []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			dist, err = nil, fmt.Errorf("scorer panicked: %v", r)
		}
	}()

	probs, err := scorer.Predict(f.Vector())
	if err != nil {
		return nil, err
	}
	raw := make([]float64, len(locations))
	for i, loc := range locations {
		raw[i] = probs[loc.Name]
	}
	out, ok := normalize(raw)
	if !ok {
		return nil, errInvalidDistribution
	}
	return out, nil
}

func blend(model, heuristic []float64, weight float64) []float64 {
	out := make([]float64, len(model))
	for i := range model {
		out[i] = weight*model[i] + (1-weight)*heuristic[i]
	}
	return out
}

// describeHistory reports the participant's favorite location for reasoning text.
func describeHistory(s Subject) string {
	if len(s.History) == 0 {
		return ""
	}
	counts := make(map[string]int)
	for _, o := range s.History {
		counts[o.Location]++
	}
	names := make([]string, 0, len(counts))
	for n := range counts {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	top := names[0]
	return fmt.Sprintf("picked %s %d/%d times", top, counts[top], len(s.History))
}
