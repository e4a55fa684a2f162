package tabulate_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/tabulate"
)

var errSource = errors.New("cursor broke")

func render(t *testing.T, r *tabulate.Report, f tabulate.Format, src tabulate.Source) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Render(context.Background(), &buf, f, src))
	return buf.String()
}

func amounts(values ...any) tabulate.Source {
	rows := make([]tabulate.Map, len(values))
	for i, v := range values {
		rows[i] = tabulate.Map{"amt": v}
	}
	return tabulate.FromSlice(rows...)
}

func grouped() tabulate.Source {
	return tabulate.FromSlice(
		tabulate.RowOf("d", "A", "amt", 100),
		tabulate.RowOf("d", "A", "amt", 200),
		tabulate.RowOf("d", "B", "amt", 300),
	)
}

// untouchable fails the test if it is ever iterated.
func untouchable(t *testing.T) tabulate.Source {
	return func(func(tabulate.Record, error) bool) {
		t.Error("source was read")
	}
}

func TestRenderGrandTotal(t *testing.T) {
	t.Parallel()

	r := tabulate.New("Sales", nil, tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum})

	got := render(t, r, tabulate.CSV, amounts(100, 200, 300))
	want := "No,Amt\n1,100\n2,200\n3,300\nGrand Total,SUM 600.00\n"
	assert.Equal(t, want, got)
}

func TestRenderNonFiniteTotals(t *testing.T) {
	t.Parallel()

	r := tabulate.New("Ratios", nil, tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum})

	var got string
	require.NotPanics(t, func() {
		got = render(t, r, tabulate.CSV, amounts(math.NaN(), math.Inf(1), 2))
	})
	assert.Equal(t, "No,Amt\n1,NaN\n2,+Inf\n3,2\nGrand Total,SUM NaN\n", got)
}

func TestRenderGroupSubtotals(t *testing.T) {
	t.Parallel()

	r := tabulate.New("Sales", nil, tabulate.FieldCol("D", "d"), tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Point}).
		GroupBy("D")

	got := render(t, r, tabulate.CSV, grouped())
	want := strings.Join([]string{
		"No,D,Amt",
		"1,A,100",
		"2,A,200",
		"Subtotal,,300.00",
		"1,B,300",
		"Grand Total,,600.00",
	}, "\n") + "\n"
	assert.Equal(t, want, got)
}

func TestRenderGroupWithoutTotals(t *testing.T) {
	t.Parallel()

	r := tabulate.New("Sales", nil, tabulate.FieldCol("D", "d"), tabulate.FieldCol("Amt", "amt")).
		GroupBy("D").
		ShowNumColumn(false)

	got := render(t, r, tabulate.CSV, grouped())
	assert.Equal(t, "D,Amt\nA,100\nA,200\nB,300\n", got)
}

func TestRenderGroupByLooseKeys(t *testing.T) {
	t.Parallel()

	r := tabulate.New("Sales", nil, tabulate.FieldCol("D", "d"), tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Count}).
		GroupBy("D").
		ShowNumColumn(false)

	src := tabulate.FromSlice(
		tabulate.RowOf("d", 1, "amt", 1),
		tabulate.RowOf("d", "1", "amt", 1),
		tabulate.RowOf("d", 2, "amt", 1),
	)
	got := render(t, r, tabulate.CSV, src)
	want := "D,Amt\n1,1\n1,1\nSubtotal,COUNT 2\n2,1\nGrand Total,COUNT 3\n"
	assert.Equal(t, want, got)
}

func TestRenderDisplayOverridePrecedence(t *testing.T) {
	t.Parallel()

	edit := tabulate.Edit{Display: tabulate.Literal("hidden")}
	editFirst := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		EditColumn("Amt", edit).
		FormatColumn("Amt", tabulate.Currency, nil).
		ShowNumColumn(false)
	formatFirst := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		FormatColumn("Amt", tabulate.Currency, nil).
		EditColumn("Amt", edit).
		ShowNumColumn(false)

	for _, r := range []*tabulate.Report{editFirst, formatFirst} {
		assert.Equal(t, "Amt\nhidden\n", render(t, r, tabulate.CSV, amounts(5)))
	}
}

func TestRenderEditWithoutDisplayKeepsFormat(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		EditColumn("Amt", tabulate.Edit{Class: "right"}).
		FormatColumn("Amt", tabulate.Currency, nil).
		ShowNumColumn(false)

	assert.Equal(t, "Amt\n$5.00\n", render(t, r, tabulate.CSV, amounts(5)))
}

func TestRenderTotalsUseRawValues(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		FormatColumn("Amt", tabulate.Currency, tabulate.Options{"decimals": 0}).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum}).
		ShowNumColumn(false)

	got := render(t, r, tabulate.CSV, amounts(1.4, 1.4))
	assert.Equal(t, "Amt\n$1\n$1\nSUM 2.80\n", got)
}

func TestRenderTransformColumn(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil,
		tabulate.FieldCol("Qty", "qty"),
		tabulate.TransformCol("Double", func(rec tabulate.Record) any {
			v, _ := rec.Get("qty")
			return v.(int) * 2
		}),
	).ShowNumColumn(false)

	got := render(t, r, tabulate.CSV, tabulate.FromSlice(tabulate.Map{"qty": 4}))
	assert.Equal(t, "Qty,Double\n4,8\n", got)
}

func TestRenderSnakeCaseAccessor(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.Col("Total Amount"), tabulate.Col("customerName")).ShowNumColumn(false)

	src := tabulate.FromSlice(tabulate.Map{"total_amount": 3, "customer_name": "Ada"})
	assert.Equal(t, "Total Amount,customerName\n3,Ada\n", render(t, r, tabulate.CSV, src))
}

func TestRenderFormattingIsIdempotent(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		FormatColumn("Amt", tabulate.Currency, tabulate.Options{"prefix": "€"}).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Avg})

	first := render(t, r, tabulate.CSV, amounts(10, 20))
	second := render(t, r, tabulate.CSV, amounts(10, 20))
	assert.Equal(t, first, second)
	assert.Equal(t, "No,Amt\n1,€10.00\n2,€20.00\nGrand Total,AVG 15.00\n", first)
}

func TestRenderEmptySource(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum})

	assert.Equal(t, "No,Amt\n", render(t, r, tabulate.CSV, amounts()))
}

func TestRenderWithoutHeader(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).ShowHeader(false)

	assert.Equal(t, "1,7\n", render(t, r, tabulate.CSV, amounts(7)))
}

func TestRenderHookOrder(t *testing.T) {
	t.Parallel()

	var calls []string
	var index []int
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		OnBeforeRender(func() { calls = append(calls, "before") }).
		OnRow(func(_ tabulate.Record, i int) {
			calls = append(calls, "row")
			index = append(index, i)
		}).
		OnAfterRender(func() { calls = append(calls, "after") }).
		OnComplete(func() { calls = append(calls, "complete") })

	render(t, r, tabulate.CSV, amounts(1))
	assert.Equal(t, []string{"before", "row", "after", "complete"}, calls)
	assert.Equal(t, []int{0}, index)
}

func TestRenderRowHookIndexesAcrossGroups(t *testing.T) {
	t.Parallel()

	var index []int
	r := tabulate.New("R", nil, tabulate.FieldCol("D", "d"), tabulate.FieldCol("Amt", "amt")).
		GroupBy("D").
		OnRow(func(_ tabulate.Record, i int) { index = append(index, i) })

	render(t, r, tabulate.CSV, grouped())
	assert.Equal(t, []int{0, 1, 2}, index)
}

func TestRenderWithoutManipulation(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("A", "a"), tabulate.FieldCol("B", "b")).
		FormatColumn("A", tabulate.Currency, nil).
		WithoutManipulation()

	src := tabulate.FromSlice(
		tabulate.RowOf("a", 1, "b", 2, "extra", 3),
		tabulate.RowOf("a", 4, "b", 5),
	)
	assert.Equal(t, "A,B\n1,2\n4,5\n", render(t, r, tabulate.CSV, src))
}

func TestRenderWithoutManipulationTotals(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("A", "a"), tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum}).
		WithoutManipulation()

	src := tabulate.FromSlice(tabulate.RowOf("a", "x", "amt", 2), tabulate.RowOf("a", "y", "amt", 3))
	assert.Equal(t, "A,Amt\nx,2\ny,3\nGrand Total,SUM 5.00\n", render(t, r, tabulate.CSV, src))
}

func TestRenderMissingField(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.Col("Amount"))
	err := r.Render(context.Background(), io.Discard, tabulate.CSV, tabulate.FromSlice(tabulate.Map{"amt": 1}))

	require.ErrorIs(t, err, tabulate.ErrMissingField)
	var mf *tabulate.MissingFieldError
	require.ErrorAs(t, err, &mf)
	assert.Equal(t, "Amount", mf.Column)
	assert.Equal(t, "amount", mf.Field)
}

func TestRenderValidation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		report *tabulate.Report
		want   error
	}{
		"unknown total": {
			report: tabulate.New("R", nil, tabulate.Col("A")).ShowTotal(map[string]tabulate.AggregateKind{"B": tabulate.Sum}),
			want:   tabulate.ErrUnknownColumn,
		},
		"unknown group": {
			report: tabulate.New("R", nil, tabulate.Col("A")).GroupBy("B"),
			want:   tabulate.ErrUnknownColumn,
		},
		"unknown edit": {
			report: tabulate.New("R", nil, tabulate.Col("A")).EditColumn("B", tabulate.Edit{Class: "x"}),
			want:   tabulate.ErrUnknownColumn,
		},
		"unknown format": {
			report: tabulate.New("R", nil, tabulate.Col("A")).FormatColumn("B", tabulate.Number, nil),
			want:   tabulate.ErrUnknownColumn,
		},
		"unknown rule": {
			report: tabulate.New("R", nil, tabulate.Col("A")).ConditionalFormat("B", negative, nil),
			want:   tabulate.ErrUnknownColumn,
		},
		"duplicate column": {
			report: tabulate.New("R", nil, tabulate.Col("A"), tabulate.Col("A")),
			want:   tabulate.ErrDuplicateColumn,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			err := tt.report.Render(context.Background(), io.Discard, tabulate.CSV, untouchable(t))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRenderUnsupportedFormat(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.Col("A"))
	err := r.Render(context.Background(), io.Discard, tabulate.Format("docx"), untouchable(t))
	assert.ErrorIs(t, err, tabulate.ErrUnsupportedFormat)
}

func TestRenderFormatNameIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).ShowNumColumn(false)
	assert.Equal(t, "Amt\n1\n", render(t, r, tabulate.Format("CSV"), amounts(1)))
}

func TestRenderSourceError(t *testing.T) {
	t.Parallel()

	src := func(yield func(tabulate.Record, error) bool) {
		if !yield(tabulate.Map{"amt": 1}, nil) {
			return
		}
		yield(nil, errSource)
	}
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt"))
	err := r.Render(context.Background(), io.Discard, tabulate.CSV, src)
	assert.ErrorIs(t, err, errSource)
}

func TestRenderLimitStopsReading(t *testing.T) {
	t.Parallel()

	read := 0
	src := func(yield func(tabulate.Record, error) bool) {
		for i := range 100 {
			read++
			if !yield(tabulate.Map{"amt": i}, nil) {
				return
			}
		}
	}
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).Limit(2).ShowNumColumn(false)

	assert.Equal(t, "Amt\n0\n1\n", render(t, r, tabulate.CSV, src))
	assert.Equal(t, 2, read)
}

func TestRenderMetaOnDelimitedFormats(t *testing.T) {
	t.Parallel()

	meta := []tabulate.KeyValue{{Key: "Region", Value: "EU"}}
	hidden := tabulate.New("R", meta, tabulate.FieldCol("Amt", "amt")).ShowNumColumn(false)
	shown := hidden.Clone().ShowMeta(true)

	assert.Equal(t, "Amt\n1\n", render(t, hidden, tabulate.CSV, amounts(1)))
	assert.Equal(t, "Region,EU\n\" \"\nAmt\n1\n", render(t, shown, tabulate.CSV, amounts(1)))
}

func TestRenderCacheHitSkipsSource(t *testing.T) {
	t.Parallel()

	rows := 0
	var calls []string
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		CacheUsing(tabulate.NewMemoryCache()).
		CacheFor(time.Minute).
		OnBeforeRender(func() { calls = append(calls, "before") }).
		OnRow(func(tabulate.Record, int) { rows++ }).
		OnAfterRender(func() { calls = append(calls, "after") }).
		OnComplete(func() { calls = append(calls, "complete") })

	first := render(t, r, tabulate.CSV, amounts(1, 2))
	calls = nil
	second := render(t, r, tabulate.CSV, untouchable(t))

	assert.Equal(t, first, second)
	assert.Equal(t, 2, rows)
	assert.Equal(t, []string{"before", "after", "complete"}, calls)
}

func TestRenderCacheKeyedByFormat(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		CacheUsing(tabulate.NewMemoryCache()).
		CacheFor(time.Minute)

	render(t, r, tabulate.CSV, amounts(1))
	tsv := render(t, r, tabulate.TSV, amounts(1))
	assert.Equal(t, "No\tAmt\n1\t1\n", tsv)
	assert.NotEqual(t, r.CacheKey(tabulate.CSV), r.CacheKey(tabulate.TSV))

	r.CacheAs("fixed")
	assert.Equal(t, "fixed", r.CacheKey(tabulate.CSV))
	assert.Equal(t, "fixed", r.CacheKey(tabulate.TSV))
}

func TestRenderNoCache(t *testing.T) {
	t.Parallel()

	store := tabulate.NewMemoryCache()
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		CacheUsing(store).
		CacheFor(time.Minute).
		NoCache()

	render(t, r, tabulate.CSV, amounts(1))
	assert.Zero(t, store.Len())
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func TestRenderCacheFailure(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).
		CacheUsing(failingCache{}).
		CacheFor(time.Minute)

	err := r.Render(context.Background(), io.Discard, tabulate.CSV, untouchable(t))
	require.ErrorIs(t, err, tabulate.ErrRenderBackendUnavailable)
	var be *tabulate.RenderBackendUnavailableError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "cache", be.Backend)
}

func TestRenderPDFWithoutBackend(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt"))
	err := r.Render(context.Background(), io.Discard, tabulate.PDF, amounts(1))
	assert.ErrorIs(t, err, tabulate.ErrRenderBackendUnavailable)
}

func TestRenderPDFBackend(t *testing.T) {
	t.Parallel()

	var page tabulate.PageOptions
	var markup string
	backend := tabulate.BackendFunc(func(_ context.Context, m []byte, p tabulate.PageOptions, w io.Writer) error {
		markup, page = string(m), p
		_, err := io.WriteString(w, "%PDF")
		return err
	})
	clock := func() time.Time { return time.Date(2024, 3, 1, 14, 5, 9, 0, time.UTC) }
	r := tabulate.New("Quarterly", nil, tabulate.FieldCol("Amt", "amt")).
		WithBackend(backend).
		WithClock(clock).
		SetPaper("Letter").
		SetOrientation(tabulate.Landscape).
		SetHeaderContent("{title}", tabulate.Center)

	got := render(t, r, tabulate.PDF, amounts(1))

	assert.Equal(t, "%PDF", got)
	assert.Contains(t, markup, "<title>Quarterly</title>")
	assert.Equal(t, "letter", page.Paper)
	assert.Equal(t, tabulate.Landscape, page.Orientation)
	assert.Equal(t, "Quarterly", page.Header[tabulate.Center])
	assert.Equal(t, "Date Printed: 01 Mar 2024 14:05:09", page.Footer[tabulate.Left])
	assert.Equal(t, "Page {page} of {pages}", page.Footer[tabulate.Right])
	assert.Equal(t, "Page 2 of 5", tabulate.ResolvePagePlaceholders(page.Footer[tabulate.Right], 2, 5))
}

func TestRenderPDFBackendFailure(t *testing.T) {
	t.Parallel()

	backend := tabulate.BackendFunc(func(context.Context, []byte, tabulate.PageOptions, io.Writer) error {
		return errors.New("chrome crashed")
	})
	r := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).WithBackend(backend)

	err := r.Render(context.Background(), io.Discard, tabulate.PDF, amounts(1))
	var be *tabulate.RenderBackendUnavailableError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "func", be.Backend)
	assert.ErrorContains(t, err, "chrome crashed")
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	base := tabulate.New("R", nil, tabulate.FieldCol("Amt", "amt")).ShowNumColumn(false)
	clone := base.Clone().
		FormatColumn("Amt", tabulate.Currency, nil).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Sum})

	assert.Equal(t, "Amt\n1\n", render(t, base, tabulate.CSV, amounts(1)))
	assert.Equal(t, "Amt\n$1.00\nSUM 1.00\n", render(t, clone, tabulate.CSV, amounts(1)))
}

func TestConcurrentRenders(t *testing.T) {
	t.Parallel()

	r := tabulate.New("R", nil, tabulate.FieldCol("D", "d"), tabulate.FieldCol("Amt", "amt")).
		ShowTotal(map[string]tabulate.AggregateKind{"Amt": tabulate.Point}).
		GroupBy("D")
	want := render(t, r, tabulate.CSV, grouped())

	results := make(chan string, 8)
	for range 8 {
		go func() {
			var buf bytes.Buffer
			_ = r.Render(context.Background(), &buf, tabulate.CSV, grouped())
			results <- buf.String()
		}()
	}
	for range 8 {
		assert.Equal(t, want, <-results)
	}
}
