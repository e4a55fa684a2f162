package tabulate

import (
	"math"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateKind selects how a totaled column is summarized.
type AggregateKind string

const (
	Sum   AggregateKind = "sum"
	Avg   AggregateKind = "avg"
	Min   AggregateKind = "min"
	Max   AggregateKind = "max"
	Count AggregateKind = "count"
	// Point sums like Sum but renders without the kind label.
	Point AggregateKind = "point"
)

// Aggregates holds the running totals of one render. It is never shared
// between renders.
type Aggregates struct {
	entries map[string]*aggregate
}

type aggregate struct {
	kind  AggregateKind
	sum   decimal.Decimal
	count int
	min   *float64
	max   *float64
	// nonFinite folds NaN and infinite inputs, which decimal cannot hold.
	nonFinite *float64
}

// NewAggregates returns zeroed state for every column in specs.
func NewAggregates(specs map[string]AggregateKind) *Aggregates {
	a := &Aggregates{entries: make(map[string]*aggregate, len(specs))}
	for column, kind := range specs {
		a.entries[column] = &aggregate{kind: kind}
	}
	return a
}

// Tracks reports whether column is totaled.
func (a *Aggregates) Tracks(column string) bool {
	_, ok := a.entries[column]
	return ok
}

// Columns returns the totaled column names, sorted.
func (a *Aggregates) Columns() []string {
	out := make([]string, 0, len(a.entries))
	for column := range a.entries {
		out = append(out, column)
	}
	slices.Sort(out)
	return out
}

// Update folds a raw value into column. Untracked columns are ignored.
func (a *Aggregates) Update(column string, raw any) {
	e, ok := a.entries[column]
	if !ok {
		return
	}
	v := toFloat(raw)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		folded := v
		if e.nonFinite != nil {
			folded += *e.nonFinite
		}
		e.nonFinite = &folded
	} else {
		e.sum = e.sum.Add(toDecimal(raw, v))
	}
	e.count++
	if e.min == nil || v < *e.min {
		e.min = &v
	}
	if e.max == nil || v > *e.max {
		e.max = &v
	}
}

// Result returns the current aggregate for column, or 0 when the column is
// not tracked or has no data for its kind.
func (a *Aggregates) Result(column string) float64 {
	e, ok := a.entries[column]
	if !ok {
		return 0
	}
	switch e.kind {
	case Avg:
		if e.count == 0 {
			return 0
		}
		if e.nonFinite != nil {
			return *e.nonFinite
		}
		return e.sum.Div(decimal.NewFromInt(int64(e.count))).InexactFloat64()
	case Min:
		if e.min == nil {
			return 0
		}
		return *e.min
	case Max:
		if e.max == nil {
			return 0
		}
		return *e.max
	case Count:
		return float64(e.count)
	default:
		if e.nonFinite != nil {
			return *e.nonFinite
		}
		return e.sum.InexactFloat64()
	}
}

// FormatResult renders Result for a total row: "SUM 1,234.50", "COUNT 3",
// or a bare "1,234.50" for Point.
func (a *Aggregates) FormatResult(column string) string {
	value := a.Result(column)
	kind := Sum
	e, ok := a.entries[column]
	if ok {
		kind = e.kind
	}
	exact := ok && e.nonFinite == nil && (kind == Sum || kind == Point)
	switch kind {
	case Point:
		if exact {
			return decimalFormat(e.sum, 2, ".", ",")
		}
		return numberFormat(value, 2, ".", ",")
	case Count:
		return strings.ToUpper(string(kind)) + " " + numberFormat(value, 0, ".", ",")
	default:
		if exact {
			return strings.ToUpper(string(kind)) + " " + decimalFormat(e.sum, 2, ".", ",")
		}
		return strings.ToUpper(string(kind)) + " " + numberFormat(value, 2, ".", ",")
	}
}

// Reset zeroes every tracked column, keeping its kind.
func (a *Aggregates) Reset() {
	for _, e := range a.entries {
		e.sum = decimal.Zero
		e.count = 0
		e.min = nil
		e.max = nil
		e.nonFinite = nil
	}
}

// toDecimal keeps textual and decimal inputs exact and falls back to the
// float conversion for everything else.
func toDecimal(raw any, f float64) decimal.Decimal {
	switch v := raw.(type) {
	case decimal.Decimal:
		return v
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	case []byte:
		if d, err := decimal.NewFromString(strings.TrimSpace(string(v))); err == nil {
			return d
		}
	}
	return decimal.NewFromFloat(f)
}
