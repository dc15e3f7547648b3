// metrics/metrics.go - Prometheus instrumentation for the allocation engine
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "hackportal"

// Claim outcomes used as the "outcome" label.
const (
	OutcomeSuccess            = "success"
	OutcomeWindowClosed       = "window_closed"
	OutcomeProblemUnavailable = "problem_unavailable"
	OutcomeProblemFull        = "problem_full"
	OutcomeAlreadySelected    = "already_selected"
	OutcomeStorageUnavailable = "storage_unavailable"
)

var (
	// Registry holds every collector the service exposes on /metrics.
	Registry = prometheus.NewRegistry()

	claimCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "claims_total",
			Help:      "Count of claim attempts by outcome.",
		},
		[]string{"outcome"},
	)
	claimDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "claim_duration_seconds",
			Help:      "Latency of claim attempts including store round trips.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	overCapacityCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "allocation",
			Name:      "over_capacity_total",
			Help:      "Count of successful claims that left a problem above its team limit.",
		},
	)
	overrideCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "moderation",
			Name:      "overrides_total",
			Help:      "Count of admin overrides on selections by action.",
		},
		[]string{"action"},
	)
	windowGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "window",
			Name:      "open",
			Help:      "1 when the selection window is open, 0 otherwise.",
		},
	)
)

var registerMetrics sync.Once

// Register all metrics.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(claimCounter)
		Registry.MustRegister(claimDuration)
		Registry.MustRegister(overCapacityCounter)
		Registry.MustRegister(overrideCounter)
		Registry.MustRegister(windowGauge)
		Registry.MustRegister(collectors.NewGoCollector())
		Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	})
}

// RecordClaim records the outcome and latency of one claim attempt.
func RecordClaim(outcome string, elapsed time.Duration) {
	claimCounter.WithLabelValues(outcome).Inc()
	claimDuration.Observe(elapsed.Seconds())
}

// RecordOverCapacity records a claim that raced past the soft limit.
func RecordOverCapacity() {
	overCapacityCounter.Inc()
}

func RecordOverride(action string) {
	overrideCounter.WithLabelValues(action).Inc()
}

func SetWindowOpen(open bool) {
	if open {
		windowGauge.Set(1)
		return
	}
	windowGauge.Set(0)
}
