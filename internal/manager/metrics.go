package manager

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "torchserved"

// Metrics holds the lifecycle and inference collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	instances       *prometheus.GaugeVec
	loads           *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	unloads         *prometheus.CounterVec
	predicts        *prometheus.CounterVec
	predictDuration prometheus.Histogram
	inflight        prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		instances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "models",
			Name:      "instances",
			Help:      "Registered model instances by state",
		}, []string{"state"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "models",
			Name:      "loads_total",
			Help:      "Model loads by result",
		}, []string{"result"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "models",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading model artifacts",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		unloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "models",
			Name:      "unloads_total",
			Help:      "Model unloads by result",
		}, []string{"result"}),
		predicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "inference",
			Name:      "predict_total",
			Help:      "Predict calls by result",
		}, []string{"result"}),
		predictDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "inference",
			Name:      "predict_duration_seconds",
			Help:      "Duration of model computation",
			Buckets:   prometheus.DefBuckets,
		}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "inference",
			Name:      "inflight_predictions",
			Help:      "Predict calls currently holding a model reference",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.instances, m.loads, m.loadDuration, m.unloads, m.predicts, m.predictDuration, m.inflight)
	}
	return m
}

func (m *Metrics) transition(t Transition) {
	if m == nil {
		return
	}
	if t.From != "" {
		m.instances.WithLabelValues(string(t.From)).Dec()
	}
	if t.To != "" {
		m.instances.WithLabelValues(string(t.To)).Inc()
	}
}

func (m *Metrics) load(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(result).Inc()
	if d > 0 {
		m.loadDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) unload(result string) {
	if m == nil {
		return
	}
	m.unloads.WithLabelValues(result).Inc()
}

func (m *Metrics) predict(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.predicts.WithLabelValues(result).Inc()
	if d > 0 {
		m.predictDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) inflightAdd(delta float64) {
	if m == nil {
		return
	}
	m.inflight.Add(delta)
}
