package seeker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"lootrun/internal/metrics"
)

// ModelStore keeps the current learned model loaded from Redis.
// Readers take a snapshot with Scorer; Refresh swaps the pointer atomically.
type ModelStore struct {
	rdb *redis.Client
	key string
	log *slog.Logger

	current atomic.Pointer[LinearModel]
}

func NewModelStore(rdb *redis.Client, key string, log *slog.Logger) *ModelStore {
	return &ModelStore{rdb: rdb, key: key, log: log}
}

// Scorer returns the current model or nil when nothing is loaded.
func (s *ModelStore) Scorer() Scorer {
	if s == nil {
		return nil
	}
	m := s.current.Load()
	if m == nil {
		return nil
	}
	return m
}

// Set installs a model directly.
func (s *ModelStore) Set(m *LinearModel) error {
	if err := m.Validate(); err != nil {
		return err
	}
	s.current.Store(m)
	metrics.ModelSwaps.Inc()
	return nil
}

// Refresh loads the model from Redis. A missing key keeps the current model.
func (s *ModelStore) Refresh(ctx context.Context) error {
	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	var m LinearModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return fmt.Errorf("decode model: %w", err)
	}
	if prev := s.current.Load(); prev != nil && prev.Version != "" && prev.Version == m.Version {
		return nil
	}
	if err := s.Set(&m); err != nil {
		return err
	}
	s.log.Info("seeker model loaded", "version", m.Version, "locations", len(m.Locations))
	return nil
}

// Run refreshes on every tick until ctx is done.
func (s *ModelStore) Run(ctx context.Context, every time.Duration) {
	if err := s.Refresh(ctx); err != nil {
		s.log.Warn("seeker model refresh failed", "error", err)
	}
	if every <= 0 {
		return
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.log.Warn("seeker model refresh failed", "error", err)
			}
		}
	}
}
