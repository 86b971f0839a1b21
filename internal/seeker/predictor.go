package seeker

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"lootrun/internal/game"
	"lootrun/internal/metrics"
)

// Sources of a participant's location distribution.
const (
	SourceUniform    = "uniform"
	SourceRecency    = "recency"
	SourceBehavioral = "behavioral"
	SourceModel      = "model"
)

// Predictor is stateless between calls; all history comes in with the input.
type Predictor struct {
	params Params
	log    *slog.Logger
}

func New(params Params, log *slog.Logger) *Predictor {
	if log == nil {
		log = slog.Default()
	}
	return &Predictor{params: params, log: log}
}

func (p *Predictor) Params() Params { return p.params }

// SearchInput is everything ChooseSearch needs for one round.
type SearchInput struct {
	Round              int
	WinThreshold       int
	Locations          []game.Location
	Subjects           []Subject // alive participants only
	RoundsWithoutCatch int
}

// Prediction is the seeker's belief about one participant.
type Prediction struct {
	Tier           Tier
	Source         string
	Distribution   []float64
	Predictability float64
	Threat         float64
}

// SearchDecision is the result of ChooseSearch.
type SearchDecision struct {
	LocationIndex int
	Location      string
	Probabilities []float64
	Impacts       []float64
	Temperature   float64
	Reasoning     string
	Predictions   map[string]Prediction
	// ScorerFallback is set when a scorer was supplied but could not be used.
	ScorerFallback bool
}

// ChooseSearch computes per-location impacts, turns them into a softmax
// distribution at this round's temperature and draws one location.
// scorer may be nil.
func (p *Predictor) ChooseSearch(in SearchInput, scorer Scorer, rng *rand.Rand) SearchDecision {
	n := len(in.Locations)
	d := SearchDecision{
		LocationIndex: -1,
		Predictions:   make(map[string]Prediction, len(in.Subjects)),
	}
	if n == 0 {
		return d
	}

	impacts := make([]float64, n)
	topScore := 0
	for _, s := range in.Subjects {
		if s.Score > topScore {
			topScore = s.Score
		}
		pred, fellBack := p.predictSubject(in, s, scorer)
		if fellBack {
			d.ScorerFallback = true
		}
		for i, prob := range pred.Distribution {
			impacts[i] += pred.Threat * prob
		}
		d.Predictions[s.ID] = pred
	}

	d.Impacts = impacts
	d.Temperature = p.params.Temperature(TemperatureInput{
		Impacts:            impacts,
		TopScore:           topScore,
		WinThreshold:       in.WinThreshold,
		RoundsWithoutCatch: in.RoundsWithoutCatch,
	})
	d.Probabilities = Softmax(impacts, d.Temperature)
	d.LocationIndex = Sample(d.Probabilities, rng)
	d.Location = in.Locations[d.LocationIndex].Name
	d.Reasoning = p.searchReasoning(in, d)
	return d
}

func (p *Predictor) predictSubject(in SearchInput, s Subject, scorer Scorer) (Prediction, bool) {
	predictability := Predictability(s, len(in.Locations))
	pred := Prediction{
		Tier:           p.params.TierFor(in.Round, len(s.History)),
		Predictability: predictability,
		Threat:         Threat(s, in.WinThreshold, predictability),
	}

	var heuristic []float64
	switch pred.Tier {
	case TierEarly:
		pred.Source = SourceUniform
		pred.Distribution = Uniform(len(in.Locations))
		return pred, false
	case TierMid:
		pred.Source = SourceRecency
		heuristic = recencyDistribution(s, in.Locations, p.params.DecayRate)
	case TierLate:
		pred.Source = SourceBehavioral
		f := Extract(s, in.Round, in.WinThreshold, len(in.Locations))
		heuristic = behavioralDistribution(s, f, in.Locations, in.WinThreshold, p.params.DecayRate)
	}
	pred.Distribution = heuristic

	if scorer == nil || len(s.History) < 2 {
		return pred, false
	}
	f := Extract(s, in.Round, in.WinThreshold, len(in.Locations))
	model, err := modelDistribution(scorer, f, in.Locations)
	if err != nil {
		reason := metrics.ScorerReasonError
		if errors.Is(err, errInvalidDistribution) {
			reason = metrics.ScorerReasonInvalid
		}
		metrics.ScorerFallbacks.WithLabelValues(reason).Inc()
		p.log.Warn("seeker scorer unavailable, using heuristic",
			"outcome", "scorer_fallback",
			"participant", s.ID,
			"error", err,
		)
		return pred, true
	}
	pred.Source = SourceModel
	pred.Distribution = blend(model, heuristic, p.params.ModelBlend)
	return pred, false
}

func (p *Predictor) searchReasoning(in SearchInput, d SearchDecision) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Searching %s (%.0f%%, T=%.2f).", d.Location, d.Probabilities[d.LocationIndex]*100, d.Temperature)

	var target *Subject
	best := -1.0
	for i := range in.Subjects {
		s := &in.Subjects[i]
		pred := d.Predictions[s.ID]
		if len(pred.Distribution) <= d.LocationIndex {
			continue
		}
		w := pred.Threat * pred.Distribution[d.LocationIndex]
		if w > best {
			best, target = w, s
		}
	}
	if target == nil {
		return b.String()
	}
	pred := d.Predictions[target.ID]
	fmt.Fprintf(&b, " Main target %s: threat %.2f, %s read", target.Name, pred.Threat, pred.Source)
	if h := describeHistory(*target); h != "" {
		fmt.Fprintf(&b, ", %s", h)
	}
	b.WriteString(".")
	return b.String()
}
