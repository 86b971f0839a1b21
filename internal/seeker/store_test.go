package seeker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"lootrun/internal/logger"
	"lootrun/internal/metrics"
)

const testModelKey = "lootrun:seeker:model:test"

func linearModel(version string, weight float64) *LinearModel {
	rows := make([][]float64, 2)
	for i := range rows {
		rows[i] = make([]float64, FeatureCount)
		rows[i][0] = weight * float64(i+1)
	}
	return &LinearModel{Version: version, Locations: []string{"A", "B"}, Weights: rows}
}

func modelJSON(t *testing.T, m *LinearModel) string {
	t.Helper()
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal model: %v", err)
	}
	return string(b)
}

func newTestStore(t *testing.T) (*ModelStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewModelStore(rdb, testModelKey, logger.Discard()), mr
}

func loadedVersion(t *testing.T, s *ModelStore) string {
	t.Helper()
	sc := s.Scorer()
	if sc == nil {
		return ""
	}
	m, ok := sc.(*LinearModel)
	if !ok {
		t.Fatalf("unexpected scorer type %T", sc)
	}
	return m.Version
}

func TestModelStoreRefresh(t *testing.T) {
	cases := []struct {
		name        string
		initial     *LinearModel
		stored      string // "" means the key is absent
		redisErr    string
		wantErr     error
		anyErr      bool
		wantVersion string
		wantSwaps   float64
	}{
		{
			name:        "missing key keeps current model",
			initial:     linearModel("v1", 1),
			wantVersion: "v1",
		},
		{
			name:        "missing key on empty store",
			wantVersion: "",
		},
		{
			name:        "malformed json keeps current model",
			initial:     linearModel("v1", 1),
			stored:      `{"version":`,
			anyErr:      true,
			wantVersion: "v1",
		},
		{
			name:        "invalid shape is rejected",
			initial:     linearModel("v1", 1),
			stored:      `{"version":"v2","locations":["A","B"],"weights":[[1,2]]}`,
			wantErr:     ErrModelShape,
			wantVersion: "v1",
		},
		{
			name:        "redis failure keeps current model",
			initial:     linearModel("v1", 1),
			redisErr:    "ERR model backend unavailable",
			anyErr:      true,
			wantVersion: "v1",
		},
		{
			name:        "new version is swapped in",
			initial:     linearModel("v1", 1),
			stored:      "v2",
			wantVersion: "v2",
			wantSwaps:   1,
		},
		{
			name:        "first model on empty store",
			stored:      "v2",
			wantVersion: "v2",
			wantSwaps:   1,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, mr := newTestStore(t)
			if tc.initial != nil {
				if err := s.Set(tc.initial); err != nil {
					t.Fatalf("Set: %v", err)
				}
			}
			switch tc.stored {
			case "":
			case "v2":
				mr.Set(testModelKey, modelJSON(t, linearModel("v2", 3)))
			default:
				mr.Set(testModelKey, tc.stored)
			}
			if tc.redisErr != "" {
				mr.SetError(tc.redisErr)
			}

			before := loadedVersion(t, s)
			if tc.initial != nil && before != tc.initial.Version {
				t.Fatalf("before refresh: version %q", before)
			}
			swaps := testutil.ToFloat64(metrics.ModelSwaps)

			err := s.Refresh(context.Background())
			switch {
			case tc.wantErr != nil:
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("expected %v, got %v", tc.wantErr, err)
				}
			case tc.anyErr:
				if err == nil {
					t.Fatal("expected an error")
				}
			case err != nil:
				t.Fatalf("Refresh: %v", err)
			}

			if got := loadedVersion(t, s); got != tc.wantVersion {
				t.Fatalf("after refresh: version %q, want %q", got, tc.wantVersion)
			}
			if delta := testutil.ToFloat64(metrics.ModelSwaps) - swaps; delta != tc.wantSwaps {
				t.Fatalf("model swaps delta %v, want %v", delta, tc.wantSwaps)
			}
		})
	}
}

func TestModelStoreRefreshSkipsSameVersion(t *testing.T) {
	s, mr := newTestStore(t)
	current := linearModel("v1", 1)
	if err := s.Set(current); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// same version with different weights is not reloaded
	mr.Set(testModelKey, modelJSON(t, linearModel("v1", 9)))
	swaps := testutil.ToFloat64(metrics.ModelSwaps)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := s.Scorer(); got != Scorer(current) {
		t.Fatal("same version replaced the loaded model")
	}
	if delta := testutil.ToFloat64(metrics.ModelSwaps) - swaps; delta != 0 {
		t.Fatalf("model swaps delta %v, want 0", delta)
	}
}

func TestModelStoreRunPicksUpNewVersion(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Set(testModelKey, modelJSON(t, linearModel("v1", 1)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, 10*time.Millisecond)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	waitVersion := func(want string) {
		t.Helper()
		deadline := time.Now().Add(2 * time.Second)
		for loadedVersion(t, s) != want {
			if time.Now().After(deadline) {
				t.Fatalf("model %q was not loaded, have %q", want, loadedVersion(t, s))
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
	waitVersion("v1")

	mr.Set(testModelKey, modelJSON(t, linearModel("v2", 2)))
	waitVersion("v2")
}
