package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registerOnce        sync.Once
	roundsScored        *prometheus.CounterVec
	dangerScores        prometheus.Histogram
	scoringDuration     prometheus.Histogram
	authAttempts        *prometheus.CounterVec
	coachAdviceRequests *prometheus.CounterVec
	coachAdviceDuration *prometheus.HistogramVec
)

const namespaceMetrics = "jkdcoach"

// MustRegister initialises the Prometheus metrics and the Go runtime
// collectors. Call once at startup.
func MustRegister() {
	registerOnce.Do(func() {
		roundsScored = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "scoring",
					Name:      "rounds_total",
					Help:      "Rounds scored, labelled by the recommended strategy.",
				},
				[]string{"strategy"},
			),
		)
		dangerScores = registerHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "scoring",
					Name:      "danger_score",
					Help:      "Distribution of computed danger scores.",
					Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
				},
			),
		)
		scoringDuration = registerHistogram(
			prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "scoring",
					Name:      "duration_seconds",
					Help:      "Time spent scoring and persisting a round.",
					Buckets:   prometheus.DefBuckets,
				},
			),
		)
		authAttempts = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "auth",
					Name:      "attempts_total",
					Help:      "Auth operations, labelled by operation and result.",
				},
				[]string{"operation", "result"},
			),
		)
		coachAdviceRequests = registerCounterVec(
			prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Namespace: namespaceMetrics,
					Subsystem: "coach",
					Name:      "advice_requests_total",
					Help:      "Coach advice calls, labelled by execution status.",
				},
				[]string{"status"},
			),
		)
		coachAdviceDuration = registerHistogramVec(
			prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Namespace: namespaceMetrics,
					Subsystem: "coach",
					Name:      "advice_duration_seconds",
					Help:      "Model call latency for coach advice, labelled by model.",
					Buckets:   prometheus.DefBuckets,
				},
				[]string{"model"},
			),
		)

		registerRuntimeCollectors()
	})
}

// ObserveRoundScored records a scored round: the chosen strategy, the danger
// score and the end-to-end scoring latency.
func ObserveRoundScored(strategy string, danger float64, duration time.Duration) {
	if roundsScored == nil || dangerScores == nil || scoringDuration == nil {
		return
	}
	roundsScored.WithLabelValues(normalizeLabel(strategy, "unknown")).Inc()
	dangerScores.Observe(danger)
	scoringDuration.Observe(duration.Seconds())
}

// ObserveAuth counts an auth operation outcome.
func ObserveAuth(operation string, success bool) {
	if authAttempts == nil {
		return
	}
	result := "failure"
	if success {
		result = "success"
	}
	authAttempts.WithLabelValues(normalizeLabel(operation, "unknown"), result).Inc()
}

// ObserveCoachAdvice records a coach advice call with its status, model and
// model latency.
func ObserveCoachAdvice(status, model string, duration time.Duration) {
	if coachAdviceRequests == nil || coachAdviceDuration == nil {
		return
	}
	coachAdviceRequests.WithLabelValues(normalizeLabel(status, "unknown")).Inc()
	coachAdviceDuration.WithLabelValues(normalizeLabel(model, "unspecified")).Observe(duration.Seconds())
}

func normalizeLabel(value string, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

func registerCounterVec(vec *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerHistogram(h prometheus.Histogram) prometheus.Histogram {
	if err := prometheus.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing
			}
		}
		panic(err)
	}
	return h
}

func registerHistogramVec(vec *prometheus.HistogramVec) *prometheus.HistogramVec {
	if err := prometheus.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing
			}
		}
		panic(err)
	}
	return vec
}

func registerRuntimeCollectors() {
	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		if !isAlreadyRegistered(err) {
			panic(err)
		}
	}
}

func isAlreadyRegistered(err error) bool {
	_, ok := err.(prometheus.AlreadyRegisteredError)
	return ok
}
