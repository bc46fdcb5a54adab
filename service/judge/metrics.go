package judge

import "github.com/prometheus/client_golang/prometheus"

var (
	verdicts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deadlock",
		Subsystem: "judge",
		Name:      "verdicts_total",
		Help:      "Verdicts given, by language and verdict.",
	}, []string{"language", "verdict"})

	sandboxErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deadlock",
		Subsystem: "judge",
		Name:      "sandbox_errors_total",
		Help:      "Sandbox calls that failed without a result.",
	}, []string{"language"})

	sandboxDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "deadlock",
		Subsystem: "judge",
		Name:      "sandbox_duration_seconds",
		Help:      "Duration of sandbox calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"language"})

	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "deadlock",
		Subsystem: "judge",
		Name:      "cache_hits_total",
		Help:      "Test cases answered from the verdict cache.",
	})
)

func init() {
	prometheus.MustRegister(verdicts, sandboxErrors, sandboxDuration, cacheHits)
}
