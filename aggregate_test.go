package tabulate_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/bjaus/tabulate"
)

func TestAggregatesKinds(t *testing.T) {
	t.Parallel()

	values := []any{100, "200.5", 50.25, decimal.RequireFromString("10")}
	tests := map[string]struct {
		kind      tabulate.AggregateKind
		result    float64
		formatted string
	}{
		"sum":   {kind: tabulate.Sum, result: 360.75, formatted: "SUM 360.75"},
		"avg":   {kind: tabulate.Avg, result: 90.1875, formatted: "AVG 90.19"},
		"min":   {kind: tabulate.Min, result: 10, formatted: "MIN 10.00"},
		"max":   {kind: tabulate.Max, result: 200.5, formatted: "MAX 200.50"},
		"count": {kind: tabulate.Count, result: 4, formatted: "COUNT 4"},
		"point": {kind: tabulate.Point, result: 360.75, formatted: "360.75"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tt.kind})
			for _, v := range values {
				agg.Update("Amount", v)
			}
			assert.InDelta(t, tt.result, agg.Result("Amount"), 1e-9)
			assert.Equal(t, tt.formatted, agg.FormatResult("Amount"))
		})
	}
}

func TestAggregatesEmpty(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{
		"a": tabulate.Avg,
		"b": tabulate.Min,
		"c": tabulate.Max,
	})
	assert.Zero(t, agg.Result("a"))
	assert.Zero(t, agg.Result("b"))
	assert.Zero(t, agg.Result("c"))
	assert.Equal(t, "AVG 0.00", agg.FormatResult("a"))
}

func TestAggregatesUntracked(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
	agg.Update("Other", 5)
	assert.False(t, agg.Tracks("Other"))
	assert.True(t, agg.Tracks("Amount"))
	assert.Zero(t, agg.Result("Other"))
	assert.Equal(t, []string{"Amount"}, agg.Columns())
}

func TestAggregatesNonNumericCountsAsZero(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
	agg.Update("Amount", "n/a")
	agg.Update("Amount", nil)
	agg.Update("Amount", 7)
	assert.Equal(t, "SUM 7.00", agg.FormatResult("Amount"))
}

func TestAggregatesExactDecimalSum(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
	for range 10 {
		agg.Update("Amount", "0.1")
	}
	assert.Equal(t, 1.0, agg.Result("Amount"))
}

func TestAggregatesReset(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{
		"Amount": tabulate.Sum,
		"Rows":   tabulate.Count,
	})
	agg.Update("Amount", 10)
	agg.Update("Rows", "x")
	agg.Reset()
	assert.Zero(t, agg.Result("Amount"))
	assert.Zero(t, agg.Result("Rows"))

	agg.Update("Amount", 3)
	assert.Equal(t, "SUM 3.00", agg.FormatResult("Amount"))
}

func TestAggregatesNonFinite(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		kind   tabulate.AggregateKind
		values []any
		want   string
	}{
		"sum nan":          {kind: tabulate.Sum, values: []any{1, math.NaN(), 2}, want: "SUM NaN"},
		"sum inf":          {kind: tabulate.Sum, values: []any{1, math.Inf(1), 2}, want: "SUM Inf"},
		"sum opposite inf": {kind: tabulate.Sum, values: []any{math.Inf(1), math.Inf(-1)}, want: "SUM NaN"},
		"point inf":        {kind: tabulate.Point, values: []any{float32(math.Inf(-1))}, want: "-Inf"},
		"avg inf":          {kind: tabulate.Avg, values: []any{4, math.Inf(1)}, want: "AVG Inf"},
		"max inf":          {kind: tabulate.Max, values: []any{4, math.Inf(1)}, want: "MAX Inf"},
		"min finite":       {kind: tabulate.Min, values: []any{4, math.Inf(1)}, want: "MIN 4.00"},
		"count":            {kind: tabulate.Count, values: []any{math.NaN(), 1}, want: "COUNT 2"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tt.kind})
			assert.NotPanics(t, func() {
				for _, v := range tt.values {
					agg.Update("Amount", v)
				}
			})
			assert.Equal(t, tt.want, agg.FormatResult("Amount"))
		})
	}
}

func TestAggregatesResetClearsNonFinite(t *testing.T) {
	t.Parallel()

	agg := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
	agg.Update("Amount", math.NaN())
	agg.Reset()
	agg.Update("Amount", 5)
	assert.Equal(t, "SUM 5.00", agg.FormatResult("Amount"))
}

func TestAggregatesFormatLargeAndHalfway(t *testing.T) {
	t.Parallel()

	big := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
	big.Update("Amount", "60000000000000000000")
	big.Update("Amount", "40000000000000000000.005")
	assert.Equal(t, "SUM 100,000,000,000,000,000,000.01", big.FormatResult("Amount"))

	half := tabulate.NewAggregates(map[string]tabulate.AggregateKind{"Amount": tabulate.Point})
	half.Update("Amount", 2.675)
	assert.Equal(t, "2.68", half.FormatResult("Amount"))
}
