package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// rest timer completion reasons
const (
	RestExpired = "expired"
	RestSkipped = "skipped"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterSessionsStarted     *prometheus.CounterVec
	CounterSessionsCompleted   *prometheus.CounterVec
	CounterSessionsAborted     prometheus.Counter
	CounterSetsCompleted       prometheus.Counter
	CounterHistoryDuplicates   prometheus.Counter
	CounterRestFinished        *prometheus.CounterVec
	CounterBridgeRuns          prometheus.Counter
	CounterBackupImports       prometheus.Counter

	// gauges
	GaugeRequests      prometheus.Gauge
	GaugeLifeSignal    prometheus.Gauge
	GaugeActiveSession prometheus.Gauge

	// histograms
	HistogramRequestDuration *prometheus.HistogramVec
	HistogramSessionDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("gymtracker", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("gymtracker", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterHandleRequestPanic := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "handle_request_panic",
		Help:      "The total number of serve request panics",
	})
	counterRateLimitedRequests := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rate_limited_requests",
		Help:      "The total number of rate limited requests",
	})
	counterSessionsStarted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_started",
		Help:      "The total number of started workout sessions",
	}, []string{"workout_id"})
	counterSessionsCompleted := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_completed",
		Help:      "The total number of completed workout sessions",
	}, []string{"workout_id"})
	counterSessionsAborted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sessions_aborted",
		Help:      "The total number of aborted workout sessions",
	})
	counterSetsCompleted := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "sets_completed",
		Help:      "The total number of completed sets",
	})
	counterHistoryDuplicates := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "history_duplicates_skipped",
		Help:      "The total number of history entries not stored because they repeat the previous one",
	})
	counterRestFinished := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "rest_finished",
		Help:      "The total number of finished rest timers",
	}, []string{"reason"})
	counterBridgeRuns := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "bridge_runs",
		Help:      "The total number of finalized bridge stopwatch runs",
	})
	counterBackupImports := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "backup_imports",
		Help:      "The total number of imported backups",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "current_requests",
		Help:        "Current number of requests served",
		ConstLabels: nil,
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Subsystem:   subsystem,
		Name:        "life_signal",
		Help:        "Shows whether the service is alive",
		ConstLabels: nil,
	})
	gaugeActiveSession := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "active_session",
		Help:      "1 while a workout session is in progress",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramSessionDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "session_duration_seconds",
		Help:      "Duration of completed workout sessions in seconds",
		Buckets:   []float64{300, 600, 1200, 1800, 2700, 3600, 5400, 7200},
	})

	return &Manager{
		CounterRequests:            counterRequests,
		CounterHandleRequestPanic:  counterHandleRequestPanic,
		CounterRateLimitedRequests: counterRateLimitedRequests,
		CounterSessionsStarted:     counterSessionsStarted,
		CounterSessionsCompleted:   counterSessionsCompleted,
		CounterSessionsAborted:     counterSessionsAborted,
		CounterSetsCompleted:       counterSetsCompleted,
		CounterHistoryDuplicates:   counterHistoryDuplicates,
		CounterRestFinished:        counterRestFinished,
		CounterBridgeRuns:          counterBridgeRuns,
		CounterBackupImports:       counterBackupImports,
		GaugeRequests:              gaugeRequests,
		GaugeLifeSignal:            gaugeLifeSignal,
		GaugeActiveSession:         gaugeActiveSession,
		HistogramRequestDuration:   histogramRequestDuration,
		HistogramSessionDuration:   histogramSessionDuration,
	}
}
