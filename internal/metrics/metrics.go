package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "lootrun"

var (
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Game sessions currently hosted by this process.",
	})

	SessionsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_finished_total",
		Help:      "Finished game sessions by end reason.",
	}, []string{"reason"})

	RoundsResolved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rounds_resolved_total",
		Help:      "Rounds that reached resolution.",
	})

	Catches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catches_total",
		Help:      "Participants caught by the Seeker.",
	})

	Escapes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escapes_total",
		Help:      "Resolved escape attempts by result.",
	}, []string{"result"})

	Fallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fallbacks_total",
		Help:      "Decisions filled in by the engine instead of the player.",
	}, []string{"kind"})

	ScorerFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scorer_fallbacks_total",
		Help:      "Learned scorer calls that fell back to the heuristic.",
	}, []string{"reason"})

	DroppedEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_events_total",
		Help:      "Inbound events ignored by the phase guard or validation.",
	}, []string{"type"})

	SearchTemperature = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "search_temperature",
		Help:      "Softmax temperature used for each search.",
		Buckets:   []float64{0.05, 0.1, 0.2, 0.35, 0.5, 0.75, 1, 1.5, 2, 3, 5},
	})

	ModelSwaps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scorer_model_swaps_total",
		Help:      "Learned scorer models loaded from the model store.",
	})
)

// Fallback kinds
const (
	FallbackChoiceTimeout = "choice_timeout"
	FallbackEscapeTimeout = "escape_timeout"
	FallbackEscapeOffline = "escape_disconnected"
	FallbackShopTimeout   = "shop_timeout"
	ScorerReasonError     = "error"
	ScorerReasonInvalid   = "invalid_distribution"
)
