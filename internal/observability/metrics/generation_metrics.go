package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationMetrics tracks pipeline outcomes and credit reconciliation.
type GenerationMetrics struct {
	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	creditsReserved  prometheus.Counter
	creditsRefunded  prometheus.Counter
	documentsWritten *prometheus.CounterVec
}

var (
	generationMetricsOnce sync.Once
	generationMetrics     *GenerationMetrics
)

// Generation returns the process-wide generation metrics.
func Generation() *GenerationMetrics {
	return GenerationWithConfig(Config{})
}

// GenerationWithConfig returns the process-wide generation metrics with labels.
func GenerationWithConfig(cfg Config) *GenerationMetrics {
	generationMetricsOnce.Do(func() {
		generationMetrics = newGenerationMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return generationMetrics
}

// ResetGenerationMetricsForTest clears the singleton between tests.
func ResetGenerationMetricsForTest() {
	generationMetricsOnce = sync.Once{}
	generationMetrics = nil
}

func newGenerationMetrics(registerer prometheus.Registerer, cfg Config) *GenerationMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "teachers-assistant"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	namespace := strings.TrimSpace(cfg.Namespace)
	if namespace == "" {
		namespace = "assistant"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "generation_runs_total",
			Help:        "Generation pipeline runs by terminal outcome.",
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	runDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "generation_run_duration_seconds",
			Help:        "Wall-clock duration of a full generation run.",
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600},
			ConstLabels: constLabels,
		},
		[]string{"outcome"},
	)

	creditsReserved := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "credits_reserved_total",
		Help:        "Credits reserved at generation admission.",
		ConstLabels: constLabels,
	})

	creditsRefunded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace:   namespace,
		Name:        "credits_refunded_total",
		Help:        "Credits returned by reconciliation or failure refunds.",
		ConstLabels: constLabels,
	})

	documentsWritten := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "generation_documents_total",
			Help:        "Generated documents by kind.",
			ConstLabels: constLabels,
		},
		[]string{"kind"},
	)

	for _, collector := range []prometheus.Collector{
		runsTotal, runDuration, creditsReserved, creditsRefunded, documentsWritten,
	} {
		if err := registerer.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}

	return &GenerationMetrics{
		runsTotal:        runsTotal,
		runDuration:      runDuration,
		creditsReserved:  creditsReserved,
		creditsRefunded:  creditsRefunded,
		documentsWritten: documentsWritten,
	}
}

// ObserveRun records a terminal pipeline outcome.
func (m *GenerationMetrics) ObserveRun(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(outcome).Inc()
	m.runDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// AddReserved records credits reserved at admission.
func (m *GenerationMetrics) AddReserved(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsReserved.Add(float64(amount))
}

// AddRefunded records credits returned to a user.
func (m *GenerationMetrics) AddRefunded(amount int64) {
	if m == nil || amount <= 0 {
		return
	}
	m.creditsRefunded.Add(float64(amount))
}

// IncDocument records one generated document of the given kind.
func (m *GenerationMetrics) IncDocument(kind string) {
	if m == nil {
		return
	}
	m.documentsWritten.WithLabelValues(kind).Inc()
}
