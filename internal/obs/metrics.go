package obs

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// PromMeter bridges Meter to Prometheus. Vectors are created on first use of a
// name; the label keys seen on that first call fix the vector's label set, and
// later calls with a different key set are dropped.
type PromMeter struct {
	Namespace string
	Buckets   []float64 // histogram buckets; prometheus.DefBuckets when nil

	reg        prometheus.Registerer
	mu         sync.Mutex
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
}

// NewPromMeter returns a PromMeter registering on reg, or on the default
// registerer when reg is nil.
func NewPromMeter(namespace string, reg prometheus.Registerer) *PromMeter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromMeter{
		Namespace:  namespace,
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
	}
}

func (m *PromMeter) Counter(name string, value float64, labels ...Label) {
	if value < 0 {
		return
	}
	vec := m.counterVec(name, labels)
	if vec == nil {
		return
	}
	c, err := vec.GetMetricWith(labelMap(labels))
	if err != nil {
		return
	}
	c.Add(value)
}

func (m *PromMeter) Histogram(name string, value float64, labels ...Label) {
	vec := m.histogramVec(name, labels)
	if vec == nil {
		return
	}
	h, err := vec.GetMetricWith(labelMap(labels))
	if err != nil {
		return
	}
	h.Observe(value)
}

func (m *PromMeter) counterVec(name string, labels []Label) *prometheus.CounterVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.counters[name]; ok {
		return vec
	}
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.Namespace,
		Name:      name,
		Help:      "Counter " + name + ".",
	}, labelKeys(labels))
	if err := m.reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil
		}
		existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	m.counters[name] = vec
	return vec
}

func (m *PromMeter) histogramVec(name string, labels []Label) *prometheus.HistogramVec {
	m.mu.Lock()
	defer m.mu.Unlock()
	if vec, ok := m.histograms[name]; ok {
		return vec
	}
	buckets := m.Buckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.Namespace,
		Name:      name,
		Help:      "Histogram " + name + ".",
		Buckets:   buckets,
	}, labelKeys(labels))
	if err := m.reg.Register(vec); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil
		}
		vec = existing
	}
	m.histograms[name] = vec
	return vec
}

func labelKeys(labels []Label) []string {
	keys := make([]string, len(labels))
	for i, l := range labels {
		keys[i] = l.Key
	}
	return keys
}

func labelMap(labels []Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}
