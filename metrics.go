package tabulate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Render outcomes recorded by [Metrics].
const (
	outcomeOK       = "ok"
	outcomeError    = "error"
	outcomeCacheHit = "cache_hit"
)

// Metrics instruments renders. A nil *Metrics records nothing.
type Metrics struct {
	renders  *prometheus.CounterVec
	rows     *prometheus.CounterVec
	duration *prometheus.HistogramVec
	cache    *prometheus.CounterVec
}

// NewMetrics creates the render collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabulate",
			Name:      "renders_total",
			Help:      "Report renders by output format and outcome.",
		}, []string{"format", "outcome"}),
		rows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabulate",
			Name:      "rows_total",
			Help:      "Records rendered, by output format.",
		}, []string{"format"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabulate",
			Name:      "render_duration_seconds",
			Help:      "Wall time of report renders.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"format"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabulate",
			Name:      "cache_lookups_total",
			Help:      "Artifact cache lookups by result.",
		}, []string{"result"}),
	}
	for _, c := range []prometheus.Collector{m.renders, m.rows, m.duration, m.cache} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRender(f Format, outcome string, rows int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.renders.WithLabelValues(string(f), outcome).Inc()
	if rows > 0 {
		m.rows.WithLabelValues(string(f)).Add(float64(rows))
	}
	m.duration.WithLabelValues(string(f)).Observe(elapsed.Seconds())
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cache.WithLabelValues(result).Inc()
}
