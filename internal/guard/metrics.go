package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Значения label decision у DecisionsTotal.
const (
	DecisionSkipped       = "skipped"
	DecisionAccepted      = "accepted"
	DecisionDuplicate     = "duplicate"
	DecisionMissingToken  = "missing_token"
	DecisionExtractError  = "extract_error"
	DecisionRegistryError = "registry_error"
)

var (
	// DecisionsTotal - решения guard'а по запросам.
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gincore",
			Subsystem: "guard",
			Name:      "decisions_total",
			Help:      "Total number of duplicate-request guard decisions",
		},
		[]string{"decision"},
	)

	// ActiveOrigins - принятые запросы, чей handler ещё работает.
	ActiveOrigins = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gincore",
			Subsystem: "guard",
			Name:      "active_origins",
			Help:      "Number of guarded requests currently being processed",
		},
	)
)

func recordDecision(decision string) {
	DecisionsTotal.WithLabelValues(decision).Inc()
}
