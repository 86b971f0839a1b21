package seeker

import "math"

// TemperatureInput carries the per-round signals for the temperature rule.
type TemperatureInput struct {
	Impacts            []float64
	TopScore           int
	WinThreshold       int
	RoundsWithoutCatch int
}

// Temperature applies the deterministic rule: start at the baseline, explore
// when no impact stands out, exploit when someone is near the threshold,
// explore again after a cold streak, then clamp to [MinTemperature, MaxTemperature].
func (p Params) Temperature(in TemperatureInput) float64 {
	t := p.BaseTemperature

	if len(in.Impacts) > 0 {
		maxV, sum := math.Inf(-1), 0.0
		for _, v := range in.Impacts {
			if v > maxV {
				maxV = v
			}
			sum += v
		}
		spread := maxV - sum/float64(len(in.Impacts))
		if spread < p.SpreadThreshold {
			t *= p.ExploreFactor
		}
	}

	if in.WinThreshold > 0 && float64(in.TopScore) >= p.HighScoreGuard*float64(in.WinThreshold) {
		t *= p.ExploitFactor
	}

	if p.ColdStreakRounds > 0 && in.RoundsWithoutCatch >= p.ColdStreakRounds {
		t *= p.ColdStreakFactor
	}

	return p.clampTemperature(t)
}

func (p Params) clampTemperature(t float64) float64 {
	lo, hi := p.MinTemperature, p.MaxTemperature
	if hi < lo {
		lo, hi = hi, lo
	}
	if math.IsNaN(t) {
		t = p.BaseTemperature
	}
	if math.IsNaN(t) || t < lo {
		return lo
	}
	if t > hi {
		return hi
	}
	return t
}
