package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "front_grid"

// Metrics holds the Prometheus counters, histograms, and gauges for the rasterizing job.
type Metrics struct {
	StepsProcessed  prometheus.Counter
	StepsTotal      prometheus.Gauge
	PipelineRunning prometheus.Gauge
	StepDuration    prometheus.Histogram

	// Per-category binning metrics.
	PointsBinned     *prometheus.CounterVec // labels: category={cold,warm,stationary}
	FrontsTerminated *prometheus.CounterVec // labels: category={cold,warm,stationary}
	Warnings         *prometheus.CounterVec // labels: kind

	NotifyErrors prometheus.Counter
}

// NewMetrics creates and registers all job metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)
	prometheus.MustRegister(
		m.StepsProcessed,
		m.StepsTotal,
		m.PipelineRunning,
		m.StepDuration,
		m.PointsBinned,
		m.FrontsTerminated,
		m.Warnings,
		m.NotifyErrors,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		StepsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_processed_total",
			Help:      help("Total time steps rasterized and written."),
		}),
		StepsTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      help("Number of time steps in the input file."),
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      help("1 while the job is processing time steps, 0 otherwise."),
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      help("Duration of reading, rasterizing, and writing one time step."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		}),
		PointsBinned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "points_binned_total",
			Help:      help("Valid front points binned onto the grid, by category."),
		}, []string{"category"}),
		FrontsTerminated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fronts_terminated_total",
			Help:      help("Fronts cut short by a sentinel point, by category."),
		}, []string{"category"}),
		Warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      help("Input diagnostics raised while rasterizing, by kind."),
		}, []string{"kind"}),
		NotifyErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notify_errors_total",
			Help:      help("Step summaries that could not be published."),
		}),
	}
}
