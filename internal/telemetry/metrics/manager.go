package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests            *prometheus.CounterVec
	CounterHandleRequestPanic  prometheus.Counter
	CounterRateLimitedRequests prometheus.Counter
	CounterPipelineRuns        *prometheus.CounterVec
	CounterPipelineSteps       *prometheus.CounterVec
	CounterBaselineCache       *prometheus.CounterVec
	CounterReconciledUsers     *prometheus.CounterVec

	// gauges
	GaugeRequests         prometheus.Gauge
	GaugeOpenConnections  prometheus.Gauge
	GaugeLifeSignal       prometheus.Gauge
	GaugeReconcilerLastOK prometheus.Gauge

	// histograms
	HistogramRequestDuration    *prometheus.HistogramVec
	HistogramPipelineStep       *prometheus.HistogramVec
	HistogramReconcilerDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("backend", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("backend", "test_server", reg), reg
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
	counterPipelineRuns := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pipeline_runs",
		Help:      "Pipeline runs by outcome (ok, partial, rejected)",
	}, []string{"outcome"})
	counterPipelineSteps := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pipeline_steps",
		Help:      "Pipeline steps executed, by step and outcome",
	}, []string{"step", "outcome"})
	counterBaselineCache := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "baseline_lookup_cache",
		Help:      "Baseline lookups served by the cache (hit) or the database (miss)",
	}, []string{"result"})
	counterReconciledUsers := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reconciled_users",
		Help:      "Users processed by the nightly reconciler, by outcome",
	}, []string{"outcome"})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})
	gaugeOpenConnections := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "open_connections",
		Help:      "Current number of open client connections",
	})
	gaugeLifeSignal := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "life_signal",
		Help:      "Shows whether the service is alive",
	})
	gaugeReconcilerLastOK := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reconciler_last_run_timestamp_seconds",
		Help:      "Unix time of the last finished reconciler run",
	})

	histogramRequestDuration := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "request_duration_seconds",
		Help:      "Histogram of response time for requests in seconds",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"route", "method", "status_code"})
	histogramPipelineStep := factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "pipeline_step_duration_seconds",
		Help:      "Duration of a single pipeline step for one date",
		Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"step"})
	histogramReconcilerDuration := factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "reconciler_run_duration_seconds",
		Help:      "Total duration of a reconciler run in seconds",
		Buckets: []float64{
			1, 10, 30, 60, 120, 240, 480, 1000, 2000, 4000,
		},
	})

	return &Manager{
		CounterRequests:             counterRequests,
		CounterHandleRequestPanic:   counterHandleRequestPanic,
		CounterRateLimitedRequests:  counterRateLimitedRequests,
		CounterPipelineRuns:         counterPipelineRuns,
		CounterPipelineSteps:        counterPipelineSteps,
		CounterBaselineCache:        counterBaselineCache,
		CounterReconciledUsers:      counterReconciledUsers,
		GaugeRequests:               gaugeRequests,
		GaugeOpenConnections:        gaugeOpenConnections,
		GaugeLifeSignal:             gaugeLifeSignal,
		GaugeReconcilerLastOK:       gaugeReconcilerLastOK,
		HistogramRequestDuration:    histogramRequestDuration,
		HistogramPipelineStep:       histogramPipelineStep,
		HistogramReconcilerDuration: histogramReconcilerDuration,
	}
}
