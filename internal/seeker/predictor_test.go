package seeker

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"lootrun/internal/game"
	"lootrun/internal/logger"
)

func testLocations() []game.Location {
	return []game.Location{
		{Name: "A", MinPoints: 4, MaxPoints: 6},
		{Name: "B", MinPoints: 16, MaxPoints: 24},
		{Name: "C", MinPoints: 8, MaxPoints: 12},
	}
}

func history(names ...string) []Observation {
	out := make([]Observation, len(names))
	for i, n := range names {
		out[i] = Observation{Round: i + 1, Location: n, LocationValue: 10}
	}
	return out
}

func TestChooseSearchEarlyRoundsUniform(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	d := p.ChooseSearch(SearchInput{
		Round:        1,
		WinThreshold: 100,
		Locations:    testLocations(),
		Subjects:     []Subject{{ID: "p1", Name: "one"}, {ID: "p2", Name: "two"}},
	}, nil, rand.New(rand.NewSource(1)))

	if d.LocationIndex < 0 || d.LocationIndex >= 3 {
		t.Fatalf("index %d out of range", d.LocationIndex)
	}
	for i, prob := range d.Probabilities {
		if math.Abs(prob-1.0/3) > 1e-9 {
			t.Fatalf("p[%d] = %v, want uniform", i, prob)
		}
	}
	if d.Predictions["p1"].Source != SourceUniform {
		t.Fatalf("source = %s", d.Predictions["p1"].Source)
	}
}

func TestChooseSearchFollowsHabits(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	s := Subject{ID: "p1", Name: "one", Score: 90, History: history("B", "B", "B", "B", "B", "B")}
	d := p.ChooseSearch(SearchInput{
		Round:        7,
		WinThreshold: 100,
		Locations:    testLocations(),
		Subjects:     []Subject{s},
	}, nil, rand.New(rand.NewSource(1)))

	if argmax(d.Probabilities) != 1 {
		t.Fatalf("expected B most likely, got %v", d.Probabilities)
	}
	if d.Predictions["p1"].Source != SourceBehavioral {
		t.Fatalf("source = %s", d.Predictions["p1"].Source)
	}
	if d.Reasoning == "" {
		t.Fatal("empty reasoning")
	}
}

func TestChooseSearchScorerFailureFallsBack(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	failing := ScorerFunc(func([]float64) (map[string]float64, error) {
		return nil, errors.New("model offline")
	})
	in := SearchInput{
		Round:        5,
		WinThreshold: 100,
		Locations:    testLocations(),
		Subjects:     []Subject{{ID: "p1", History: history("A", "C", "A", "A")}},
	}
	d := p.ChooseSearch(in, failing, rand.New(rand.NewSource(3)))
	if !d.ScorerFallback {
		t.Fatal("expected scorer fallback")
	}
	if d.Predictions["p1"].Source != SourceRecency {
		t.Fatalf("source = %s", d.Predictions["p1"].Source)
	}
	if math.Abs(sum(d.Probabilities)-1) > 1e-9 {
		t.Fatalf("probabilities sum %v", sum(d.Probabilities))
	}

	panicking := ScorerFunc(func([]float64) (map[string]float64, error) { panic("boom") })
	d = p.ChooseSearch(in, panicking, rand.New(rand.NewSource(3)))
	if !d.ScorerFallback {
		t.Fatal("expected fallback on panic")
	}

	garbage := ScorerFunc(func([]float64) (map[string]float64, error) {
		return map[string]float64{"A": math.NaN()}, nil
	})
	d = p.ChooseSearch(in, garbage, rand.New(rand.NewSource(3)))
	if !d.ScorerFallback {
		t.Fatal("expected fallback on invalid distribution")
	}
}

func TestChooseSearchBlendsModel(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	scorer := ScorerFunc(func(f []float64) (map[string]float64, error) {
		if len(f) != FeatureCount {
			t.Fatalf("got %d features", len(f))
		}
		return map[string]float64{"C": 1}, nil
	})
	d := p.ChooseSearch(SearchInput{
		Round:        5,
		WinThreshold: 100,
		Locations:    testLocations(),
		Subjects:     []Subject{{ID: "p1", History: history("A", "A", "A")}},
	}, scorer, rand.New(rand.NewSource(3)))
	pred := d.Predictions["p1"]
	if pred.Tier != TierMid {
		t.Fatalf("round 5 should be mid tier, got %s", pred.Tier)
	}
	if pred.Source != SourceModel {
		t.Fatalf("source = %s", pred.Source)
	}
	if pred.Distribution[2] <= pred.Distribution[1] {
		t.Fatalf("model weight not applied: %v", pred.Distribution)
	}

	d = p.ChooseSearch(SearchInput{
		Round:        8,
		WinThreshold: 100,
		Locations:    testLocations(),
		Subjects:     []Subject{{ID: "p1", History: history("A", "A", "A")}},
	}, scorer, rand.New(rand.NewSource(3)))
	if pred := d.Predictions["p1"]; pred.Tier != TierLate || pred.Source != SourceModel {
		t.Fatalf("late tier should blend too: %s/%s", pred.Tier, pred.Source)
	}
}

func TestLinearModelValidateAndPredict(t *testing.T) {
	row := make([]float64, FeatureCount)
	m := &LinearModel{
		Locations: []string{"A", "B"},
		Weights:   [][]float64{row, row},
		Bias:      []float64{0, math.Log(3)},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	probs, err := m.Predict(make([]float64, FeatureCount))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if math.Abs(probs["B"]-0.75) > 1e-9 {
		t.Fatalf("P(B) = %v, want 0.75", probs["B"])
	}

	bad := &LinearModel{Locations: []string{"A"}, Weights: [][]float64{{1, 2}}}
	if err := bad.Validate(); !errors.Is(err, ErrModelShape) {
		t.Fatalf("expected ErrModelShape, got %v", err)
	}
	if _, err := m.Predict([]float64{1}); !errors.Is(err, ErrModelShape) {
		t.Fatalf("expected ErrModelShape, got %v", err)
	}
}

func TestModelStoreEmpty(t *testing.T) {
	var nilStore *ModelStore
	if nilStore.Scorer() != nil {
		t.Fatal("nil store should have no scorer")
	}
	s := NewModelStore(nil, "k", logger.Discard())
	if s.Scorer() != nil {
		t.Fatal("empty store should have no scorer")
	}
	row := make([]float64, FeatureCount)
	if err := s.Set(&LinearModel{Locations: []string{"A"}, Weights: [][]float64{row}}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Scorer() == nil {
		t.Fatal("scorer missing after Set")
	}
}

func TestPredictEscapeEmptyHistory(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	opts := []game.EscapeOption{{ID: "x", Type: game.OptionHide}, {ID: "y", Type: game.OptionRun}, {ID: "z"}}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20; i++ {
		pred := p.PredictEscape(EscapeInput{Subject: Subject{ID: "p1"}, Options: opts, WinThreshold: 100}, rng)
		if _, ok := game.FindOption(opts, pred.OptionID); !ok {
			t.Fatalf("invalid option %q", pred.OptionID)
		}
		if math.Abs(pred.Confidence-1.0/3) > 1e-9 {
			t.Fatalf("confidence %v, want 1/3", pred.Confidence)
		}
		if pred.Reasoning == "" {
			t.Fatal("empty reasoning")
		}
	}
	if got := p.PredictEscape(EscapeInput{}, rng); got.OptionID != "" {
		t.Fatalf("no options should predict nothing, got %q", got.OptionID)
	}
}

func TestPredictEscapeLearnsHabit(t *testing.T) {
	p := New(DefaultParams(), logger.Discard())
	opts := []game.EscapeOption{{ID: "x", Type: game.OptionHide}, {ID: "y", Type: game.OptionRun}}
	hist := []EscapeChoice{{"y", game.OptionRun}, {"y", game.OptionRun}, {"y", game.OptionRun}}
	pred := p.PredictEscape(EscapeInput{Subject: Subject{EscapeHistory: hist}, Options: opts}, rand.New(rand.NewSource(1)))
	if pred.OptionID != "y" || pred.Tier != TierMid {
		t.Fatalf("got %q tier %s", pred.OptionID, pred.Tier)
	}

	hist = append(hist, EscapeChoice{"y", game.OptionRun}, EscapeChoice{"y", game.OptionRun}, EscapeChoice{"y", game.OptionRun})
	pred = p.PredictEscape(EscapeInput{Subject: Subject{EscapeHistory: hist}, Options: opts}, rand.New(rand.NewSource(1)))
	if pred.OptionID != "y" || pred.Tier != TierLate {
		t.Fatalf("got %q tier %s", pred.OptionID, pred.Tier)
	}
}

func TestFeaturesAndThreat(t *testing.T) {
	s := Subject{Score: 40, Passives: 2, History: []Observation{
		{Location: "A", LocationValue: 5},
		{Location: "B", LocationValue: 20, Caught: true},
		{Location: "B", LocationValue: 20},
	}}
	f := Extract(s, 4, 100, 3)
	v := f.Vector()
	if len(v) != FeatureCount {
		t.Fatalf("vector len %d", len(v))
	}
	if f.PointsToWin != 60 || f.UniqueLocations != 2 || f.TimesCaught != 1 || f.Passives != 2 {
		t.Fatalf("unexpected features %+v", f)
	}

	pr := Predictability(s, 3)
	if pr < 0 || pr > 1 {
		t.Fatalf("predictability %v", pr)
	}
	if Predictability(Subject{}, 3) != 0.3 {
		t.Fatal("short history should be 0.3")
	}
	if th := Threat(Subject{Score: 500}, 100, 1); th != 1 {
		t.Fatalf("threat %v, want clamp to 1", th)
	}
	if Threat(Subject{Score: 85}, 100, 0) <= Threat(Subject{Score: 50}, 100, 0) {
		t.Fatal("threat should grow with score")
	}
}
