package seeker

import (
	"errors"
	"fmt"
	"math"
)

var (
	errInvalidDistribution = errors.New("scorer returned an unusable distribution")

	ErrModelShape = errors.New("model shape does not match locations")
)

// Scorer is the learned model: features in, location name -> probability out.
type Scorer interface {
	Predict(features []float64) (map[string]float64, error)
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(features []float64) (map[string]float64, error)

func (f ScorerFunc) Predict(features []float64) (map[string]float64, error) {
	return f(features)
}

// LinearModel is a multinomial logistic model, one weight row per location.
//
// Stored as JSON under the model key:
//
//	{"version":"2026-10-01","locations":["Gas Station",...],
//	 "weights":[[...12 floats...],...],"bias":[...]}
type LinearModel struct {
	Version   string      `json:"version"`
	Locations []string    `json:"locations"`
	Weights   [][]float64 `json:"weights"`
	Bias      []float64   `json:"bias"`
}

// Validate checks that the model is usable with FeatureCount inputs.
func (m *LinearModel) Validate() error {
	if len(m.Locations) == 0 {
		return fmt.Errorf("%w: no locations", ErrModelShape)
	}
	if len(m.Weights) != len(m.Locations) {
		return fmt.Errorf("%w: %d weight rows for %d locations", ErrModelShape, len(m.Weights), len(m.Locations))
	}
	if len(m.Bias) != 0 && len(m.Bias) != len(m.Locations) {
		return fmt.Errorf("%w: %d biases for %d locations", ErrModelShape, len(m.Bias), len(m.Locations))
	}
	for i, row := range m.Weights {
		if len(row) != FeatureCount {
			return fmt.Errorf("%w: row %d has %d weights, want %d", ErrModelShape, i, len(row), FeatureCount)
		}
		for _, w := range row {
			if math.IsNaN(w) || math.IsInf(w, 0) {
				return fmt.Errorf("%w: row %d has a non-finite weight", ErrModelShape, i)
			}
		}
	}
	return nil
}

// Predict implements Scorer.
func (m *LinearModel) Predict(features []float64) (map[string]float64, error) {
	if len(features) != FeatureCount {
		return nil, fmt.Errorf("%w: got %d features", ErrModelShape, len(features))
	}
	logits := make([]float64, len(m.Locations))
	for i, row := range m.Weights {
		z := 0.0
		if len(m.Bias) > 0 {
			z = m.Bias[i]
		}
		for j, w := range row {
			z += w * features[j]
		}
		logits[i] = z
	}
	probs := Softmax(logits, 1)
	out := make(map[string]float64, len(probs))
	for i, name := range m.Locations {
		out[name] += probs[i]
	}
	return out, nil
}
