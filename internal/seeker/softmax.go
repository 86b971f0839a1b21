package seeker

import (
	"math"
	"math/rand"
)

// Softmax turns impact scores into a probability distribution:
// P(i) = exp(impact_i/T) / Σ exp(impact_j/T).
// Non-finite impacts count as zero; an all-equal vector (all zeros included)
// yields the uniform distribution.
func Softmax(impacts []float64, temperature float64) []float64 {
	n := len(impacts)
	if n == 0 {
		return nil
	}
	if !(temperature > 0) || math.IsInf(temperature, 0) {
		temperature = 1
	}

	clean := make([]float64, n)
	maxV := math.Inf(-1)
	for i, v := range impacts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		clean[i] = v
		if v > maxV {
			maxV = v
		}
	}

	probs := make([]float64, n)
	sum := 0.0
	for i, v := range clean {
		probs[i] = math.Exp((v - maxV) / temperature)
		sum += probs[i]
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return Uniform(n)
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

// Uniform returns n equal probabilities.
func Uniform(n int) []float64 {
	if n <= 0 {
		return nil
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = 1 / float64(n)
	}
	return out
}

// Sample draws one index from probs.
func Sample(probs []float64, rng *rand.Rand) int {
	if len(probs) == 0 {
		return -1
	}
	r := rng.Float64()
	acc := 0.0
	for i, p := range probs {
		acc += p
		if r < acc {
			return i
		}
	}
	// rounding left r >= acc, take the last non-zero entry
	for i := len(probs) - 1; i >= 0; i-- {
		if probs[i] > 0 {
			return i
		}
	}
	return len(probs) - 1
}

// normalize scales non-negative scores to sum 1; returns false if impossible.
func normalize(scores []float64) ([]float64, bool) {
	sum := 0.0
	for _, s := range scores {
		if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, false
		}
		sum += s
	}
	if sum <= 0 {
		return nil, false
	}
	out := make([]float64, len(scores))
	for i, s := range scores {
		out[i] = s / sum
	}
	return out, true
}

func argmax(v []float64) int {
	best := -1
	for i, x := range v {
		if best < 0 || x > v[best] {
			best = i
		}
	}
	return best
}
