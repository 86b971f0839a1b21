package seeker

import (
	"fmt"
	"math"
	"math/rand"

	"lootrun/internal/game"
)

// EscapeInput is one caught participant with the options they were offered.
type EscapeInput struct {
	Subject      Subject
	Options      []game.EscapeOption
	WinThreshold int
}

// EscapePrediction always names one of the offered options when any exist.
type EscapePrediction struct {
	OptionID   string
	Confidence float64
	Reasoning  string
	Tier       Tier
}

// PredictEscape guesses which option the caught participant will take.
// With no usable history it picks uniformly at random, confidence 1/n.
func (p *Predictor) PredictEscape(in EscapeInput, rng *rand.Rand) EscapePrediction {
	n := len(in.Options)
	if n == 0 {
		return EscapePrediction{}
	}
	history := in.Subject.EscapeHistory

	var (
		scores []float64
		tier   Tier
		why    string
	)
	switch {
	case len(history) <= 1:
		i := rng.Intn(n)
		return EscapePrediction{
			OptionID:   in.Options[i].ID,
			Confidence: 1 / float64(n),
			Reasoning:  "Not enough escapes seen yet, guessing.",
			Tier:       TierEarly,
		}
	case len(history) <= 4:
		tier = TierMid
		scores = p.recencyEscapeScores(history, in.Options)
		why = "recent escapes"
	default:
		tier = TierLate
		scores = p.behavioralEscapeScores(in)
		why = "escape habits"
	}

	probs, ok := normalize(scores)
	if !ok {
		probs = Uniform(n)
	}
	best := argmax(probs)
	opt := in.Options[best]
	return EscapePrediction{
		OptionID:   opt.ID,
		Confidence: probs[best],
		Reasoning:  fmt.Sprintf("Expecting %s from %s (%.0f%%).", opt.Name, why, probs[best]*100),
		Tier:       tier,
	}
}

func (p *Predictor) recencyEscapeScores(history []EscapeChoice, options []game.EscapeOption) []float64 {
	ids := make([]string, len(history))
	for i, h := range history {
		ids[i] = h.OptionID
	}
	w := recencyWeights(ids, p.params.DecayRate)
	total := 0.0
	for _, o := range options {
		total += w[o.ID]
	}
	out := make([]float64, len(options))
	for i, o := range options {
		out[i] = (w[o.ID] + 1) / (total + float64(len(options)))
	}
	return out
}

func (p *Predictor) behavioralEscapeScores(in EscapeInput) []float64 {
	history := in.Subject.EscapeHistory
	ids := make([]string, len(history))
	runs := 0
	for i, h := range history {
		ids[i] = h.OptionID
		if h.Type == game.OptionRun {
			runs++
		}
	}
	w := recencyWeights(ids, p.params.DecayRate)
	total := 0.0
	for _, v := range w {
		total += v
	}
	runPref := float64(runs) / float64(len(history))

	// close to winning players protect points and hide
	pressure := in.WinThreshold > 0 &&
		float64(in.Subject.Score) >= math.Floor(float64(in.WinThreshold)*0.8)

	out := make([]float64, len(in.Options))
	for i, o := range in.Options {
		score := 1.0
		if total > 0 {
			score += w[o.ID] / total * 5
		}
		switch o.Type {
		case game.OptionRun:
			score += runPref * 3
		default:
			score += (1 - runPref) * 3
		}
		if pressure && o.Type == game.OptionHide {
			score += 2
		}
		if w[o.ID] == 0 {
			score *= 0.7
		}
		out[i] = score
	}
	return out
}
