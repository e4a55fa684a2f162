package tabulate_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/tabulate"
)

// counter returns the value of the series of family name matching labels.
func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m, err := tabulate.NewMetrics(reg)
	require.NoError(t, err)

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		WithMetrics(m).
		CacheUsing(tabulate.NewMemoryCache()).
		CacheFor(time.Minute)

	render(t, r, tabulate.CSV, amounts(1, 2, 3))
	render(t, r, tabulate.CSV, amounts(1, 2, 3))
	err = r.Render(context.Background(), io.Discard, tabulate.TSV, func(yield func(tabulate.Record, error) bool) {
		yield(nil, errSource)
	})
	require.ErrorIs(t, err, errSource)

	assert.Equal(t, 1.0, counter(t, reg, "tabulate_renders_total", map[string]string{"format": "csv", "outcome": "ok"}))
	assert.Equal(t, 1.0, counter(t, reg, "tabulate_renders_total", map[string]string{"format": "csv", "outcome": "cache_hit"}))
	assert.Equal(t, 1.0, counter(t, reg, "tabulate_renders_total", map[string]string{"format": "tsv", "outcome": "error"}))
	assert.Equal(t, 3.0, counter(t, reg, "tabulate_rows_total", map[string]string{"format": "csv"}))
	assert.Equal(t, 1.0, counter(t, reg, "tabulate_cache_lookups_total", map[string]string{"result": "hit"}))
	assert.Equal(t, 2.0, counter(t, reg, "tabulate_cache_lookups_total", map[string]string{"result": "miss"}))

	count, err := testutil.GatherAndCount(reg, "tabulate_render_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewMetricsDuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := tabulate.NewMetrics(reg)
	require.NoError(t, err)
	_, err = tabulate.NewMetrics(reg)
	assert.Error(t, err)
}

func TestNilMetricsRecordNothing(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).WithMetrics(nil)
	assert.NotPanics(t, func() { render(t, r, tabulate.CSV, amounts(1)) })
}
