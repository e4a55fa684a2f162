package tabulate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	defaultPaper      = "a4"
	placeholderLayout = "d M Y H:i:s"
)

var defaultCache = NewMemoryCache()

// Report is a declarative report definition with a fluent builder. Setters
// mutate the receiver and return it; use [Report.Clone] to derive variants.
// A Report must not be modified while a render is running, but any number
// of renders may run concurrently.
type Report struct {
	title   string
	meta    []KeyValue
	columns []Column

	edits   map[string]Edit
	formats map[string]ColumnFormat
	totals  map[string]AggregateKind
	groupBy []string
	limit   int
	rules   map[string][]Rule

	showHeader bool
	showMeta   *bool
	showNum    bool
	raw        bool

	css         []CSSRule
	paper       string
	orientation Orientation
	border      BorderStyle
	header      map[Position]string
	footer      map[Position]string

	cacheEnabled bool
	cacheTTL     time.Duration
	cacheKey     string
	cache        Cache

	hooks   hooks
	log     logrus.FieldLogger
	metrics *Metrics
	backend Backend
	now     func() time.Time
}

// New starts a report. Meta pairs are shown above the table by formats that
// support a heading block.
func New(title string, meta []KeyValue, columns ...Column) *Report {
	return &Report{
		title:       title,
		meta:        slices.Clone(meta),
		columns:     slices.Clone(columns),
		edits:       make(map[string]Edit),
		formats:     make(map[string]ColumnFormat),
		totals:      make(map[string]AggregateKind),
		rules:       make(map[string][]Rule),
		showHeader:  true,
		showNum:     true,
		paper:       defaultPaper,
		orientation: Portrait,
		header:      make(map[Position]string),
		footer: map[Position]string{
			Left:  "Date Printed: {date}",
			Right: "Page {page} of {pages}",
		},
		log: discardLogger(),
		now: time.Now,
	}
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Title returns the report title.
func (r *Report) Title() string { return r.title }

// Columns returns the declared columns in order.
func (r *Report) Columns() []Column { return slices.Clone(r.columns) }

// EditColumn overrides the presentation of column. Repeated calls merge:
// non-empty fields of e replace earlier ones.
func (r *Report) EditColumn(column string, e Edit) *Report {
	r.edits[column] = r.edits[column].merge(e)
	return r
}

// EditColumns applies the same override to several columns.
func (r *Report) EditColumns(columns []string, e Edit) *Report {
	for _, c := range columns {
		r.EditColumn(c, e)
	}
	return r
}

// FormatColumn formats column's display value. An edit Display takes
// precedence over it.
func (r *Report) FormatColumn(column string, kind FormatKind, opts Options) *Report {
	r.formats[column] = ColumnFormat{Kind: kind, Options: maps.Clone(opts)}
	return r
}

// FormatColumns applies the same format to several columns.
func (r *Report) FormatColumns(columns []string, kind FormatKind, opts Options) *Report {
	for _, c := range columns {
		r.FormatColumn(c, kind, opts)
	}
	return r
}

// ShowTotal replaces the set of totaled columns.
func (r *Report) ShowTotal(totals map[string]AggregateKind) *Report {
	r.totals = maps.Clone(totals)
	if r.totals == nil {
		r.totals = make(map[string]AggregateKind)
	}
	return r
}

// GroupBy appends group-key columns. The source must already be sorted by
// them; the report only detects changes.
func (r *Report) GroupBy(columns ...string) *Report {
	r.groupBy = append(r.groupBy, columns...)
	return r
}

// Limit caps the number of records rendered. Zero means no limit.
func (r *Report) Limit(n int) *Report {
	r.limit = max(n, 0)
	return r
}

// ConditionalFormat adds a styling rule to column. Rules are evaluated in
// the order they were added.
func (r *Report) ConditionalFormat(column string, when Predicate, styles Styles) *Report {
	r.rules[column] = append(r.rules[column], Rule{When: when, Styles: slices.Clone(styles)})
	return r
}

// ShowHeader toggles the column header row.
func (r *Report) ShowHeader(show bool) *Report {
	r.showHeader = show
	return r
}

// ShowMeta toggles the meta block. Without a call, delimited formats hide
// it and every other format shows it.
func (r *Report) ShowMeta(show bool) *Report {
	r.showMeta = &show
	return r
}

// ShowNumColumn toggles the leading row-number column.
func (r *Report) ShowNumColumn(show bool) *Report {
	r.showNum = show
	return r
}

// WithoutManipulation renders each record's native values as-is: no
// numbering, formatting, overrides or conditional styles. Totals and group
// breaks still read the declared columns.
func (r *Report) WithoutManipulation() *Report {
	r.raw = true
	return r
}

// SetCSS appends style rules emitted by markup formats.
func (r *Report) SetCSS(rules ...CSSRule) *Report {
	r.css = append(r.css, rules...)
	return r
}

// SetPaper sets the paper size handed to the page backend, e.g. "a4".
func (r *Report) SetPaper(paper string) *Report {
	r.paper = strings.ToLower(paper)
	return r
}

// SetOrientation sets the page orientation handed to the page backend.
func (r *Report) SetOrientation(o Orientation) *Report {
	r.orientation = Orientation(strings.ToLower(string(o)))
	return r
}

// SetBorder sets the border style of the terminal table format.
func (r *Report) SetBorder(b BorderStyle) *Report {
	r.border = b
	return r
}

// SetHeaderContent places content in the page header. {date} and {title}
// are resolved at render time; {page} and {pages} by the page backend.
func (r *Report) SetHeaderContent(content string, pos Position) *Report {
	r.header[pos] = content
	return r
}

// SetFooterContent places content in the page footer. See
// [Report.SetHeaderContent] for placeholders.
func (r *Report) SetFooterContent(content string, pos Position) *Report {
	r.footer[pos] = content
	return r
}

// ClearHeader removes all page header content.
func (r *Report) ClearHeader() *Report {
	clear(r.header)
	return r
}

// ClearFooter removes all page footer content, defaults included.
func (r *Report) ClearFooter() *Report {
	clear(r.footer)
	return r
}

// CacheFor enables artifact caching for ttl. Without [Report.CacheUsing],
// a process-wide in-memory cache is used.
func (r *Report) CacheFor(ttl time.Duration) *Report {
	r.cacheEnabled = true
	r.cacheTTL = ttl
	return r
}

// CacheAs sets an explicit cache key instead of the derived one.
func (r *Report) CacheAs(key string) *Report {
	r.cacheKey = key
	return r
}

// CacheUsing selects the cache store.
func (r *Report) CacheUsing(c Cache) *Report {
	r.cache = c
	return r
}

// NoCache disables artifact caching.
func (r *Report) NoCache() *Report {
	r.cacheEnabled = false
	return r
}

// OnBeforeRender registers a hook fired before the cache lookup.
func (r *Report) OnBeforeRender(fn func()) *Report {
	r.hooks.beforeRender = append(r.hooks.beforeRender, fn)
	return r
}

// OnRow registers a hook fired for each record before its cells resolve.
// Row hooks do not fire when the artifact comes from the cache.
func (r *Report) OnRow(fn RowHook) *Report {
	r.hooks.row = append(r.hooks.row, fn)
	return r
}

// OnAfterRender registers a hook fired once the artifact is rendered.
func (r *Report) OnAfterRender(fn func()) *Report {
	r.hooks.afterRender = append(r.hooks.afterRender, fn)
	return r
}

// OnComplete registers a hook fired after the artifact is cached and
// written.
func (r *Report) OnComplete(fn func()) *Report {
	r.hooks.complete = append(r.hooks.complete, fn)
	return r
}

// WithLogger sets the logger. The default discards everything.
func (r *Report) WithLogger(l logrus.FieldLogger) *Report {
	if l == nil {
		l = discardLogger()
	}
	r.log = l
	return r
}

// WithMetrics records render metrics into m.
func (r *Report) WithMetrics(m *Metrics) *Report {
	r.metrics = m
	return r
}

// WithBackend sets the page backend used by the PDF format.
func (r *Report) WithBackend(b Backend) *Report {
	r.backend = b
	return r
}

// WithClock overrides the time source used for {date} placeholders.
func (r *Report) WithClock(now func() time.Time) *Report {
	r.now = now
	return r
}

// Clone returns an independent copy of the definition, hooks included.
func (r *Report) Clone() *Report {
	c := *r
	c.meta = slices.Clone(r.meta)
	c.columns = slices.Clone(r.columns)
	c.edits = maps.Clone(r.edits)
	c.formats = maps.Clone(r.formats)
	c.totals = maps.Clone(r.totals)
	c.groupBy = slices.Clone(r.groupBy)
	c.rules = make(map[string][]Rule, len(r.rules))
	for k, v := range r.rules {
		c.rules[k] = slices.Clone(v)
	}
	if r.showMeta != nil {
		show := *r.showMeta
		c.showMeta = &show
	}
	c.css = slices.Clone(r.css)
	c.header = maps.Clone(r.header)
	c.footer = maps.Clone(r.footer)
	c.hooks = r.hooks.clone()
	return &c
}

// CacheKey returns the key a render in format f is cached under.
func (r *Report) CacheKey(f Format) string {
	if r.cacheKey != "" {
		return r.cacheKey
	}
	return derivedCacheKey(r.title, r.columns, r.meta, r.limit, r.groupBy, f)
}

// validate checks every column reference against the declared columns.
func (r *Report) validate() error {
	declared := make(map[string]bool, len(r.columns))
	for _, c := range r.columns {
		if declared[c.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		declared[c.Name] = true
	}
	check := func(use string, names []string) error {
		for _, n := range names {
			if !declared[n] {
				return fmt.Errorf("%w: %q referenced by %s", ErrUnknownColumn, n, use)
			}
		}
		return nil
	}
	for _, ref := range []struct {
		use   string
		names []string
	}{
		{"group by", r.groupBy},
		{"total", slices.Sorted(maps.Keys(r.totals))},
		{"edit", slices.Sorted(maps.Keys(r.edits))},
		{"format", slices.Sorted(maps.Keys(r.formats))},
		{"conditional format", slices.Sorted(maps.Keys(r.rules))},
	} {
		if err := check(ref.use, ref.names); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) column(name string) Column {
	for _, c := range r.columns {
		if c.Name == name {
			return c
		}
	}
	return Column{}
}

func (r *Report) newDriver() *driver {
	groupBy := make([]Column, len(r.groupBy))
	for i, name := range r.groupBy {
		groupBy[i] = r.column(name)
	}
	return &driver{
		columns:    r.columns,
		edits:      r.edits,
		formats:    r.formats,
		totals:     r.totals,
		groupBy:    groupBy,
		rules:      r.rules,
		showHeader: r.showHeader,
		numbered:   r.showNum && !r.raw,
		raw:        r.raw,
		hooks:      r.hooks,
		log:        r.log,
	}
}

func (r *Report) document(f Format) Document {
	showMeta := f != CSV && f != TSV
	if r.showMeta != nil {
		showMeta = *r.showMeta
	}
	resolve := strings.NewReplacer(
		"{date}", formatTimeLayout(r.now(), placeholderLayout),
		"{title}", r.title,
	)
	decorate := func(content map[Position]string) map[Position]string {
		out := make(map[Position]string, len(content))
		for pos, c := range content {
			if c != "" {
				out[pos] = resolve.Replace(c)
			}
		}
		return out
	}
	return Document{
		Title:    r.title,
		Meta:     slices.Clone(r.meta),
		ShowMeta: showMeta,
		CSS:      slices.Clone(r.css),
		Border:   r.border,
		Header:   decorate(r.header),
		Footer:   decorate(r.footer),
	}
}

// Render renders src in format f to w. The source is read once and only up
// to the configured limit. On a cache hit the source is not read at all.
func (r *Report) Render(ctx context.Context, w io.Writer, f Format, src Source) (err error) {
	parsed, perr := ParseFormat(string(f))
	if perr != nil {
		return perr
	}
	f = parsed
	if err := r.validate(); err != nil {
		return err
	}
	start := time.Now()
	log := r.log.WithField("format", f)
	rows := 0
	outcome := outcomeOK
	defer func() {
		if err != nil {
			outcome = outcomeError
		}
		r.metrics.observeRender(f, outcome, rows, time.Since(start))
	}()

	fire(r.hooks.beforeRender)

	cache := r.cache
	if cache == nil {
		cache = defaultCache
	}
	key := r.CacheKey(f)
	if r.cacheEnabled {
		cached, ok, err := cache.Get(ctx, key)
		if err != nil {
			return &RenderBackendUnavailableError{Backend: "cache", Err: err}
		}
		r.metrics.observeCache(ok)
		if ok {
			log.WithField("key", key).Debug("cache hit")
			fire(r.hooks.afterRender)
			if _, err := w.Write(cached); err != nil {
				return err
			}
			fire(r.hooks.complete)
			outcome = outcomeCacheHit
			return nil
		}
		log.WithField("key", key).Debug("cache miss")
	}

	var artifact bytes.Buffer
	out := w
	if r.cacheEnabled {
		out = io.MultiWriter(w, &artifact)
	}

	rows, err = r.renderTo(ctx, out, f, Limit(src, r.limit))
	if err != nil {
		return err
	}
	fire(r.hooks.afterRender)

	if r.cacheEnabled {
		if err := cache.Set(ctx, key, artifact.Bytes(), r.cacheTTL); err != nil {
			return &RenderBackendUnavailableError{Backend: "cache", Err: err}
		}
	}
	fire(r.hooks.complete)

	log.WithFields(logrus.Fields{
		"rows":     rows,
		"duration": time.Since(start),
	}).Debug("render complete")
	return nil
}

func (r *Report) renderTo(ctx context.Context, w io.Writer, f Format, src Source) (int, error) {
	doc := r.document(f)
	if f != PDF {
		sink, err := NewSink(f, w)
		if err != nil {
			return 0, err
		}
		return r.drive(sink, doc, src)
	}

	if r.backend == nil {
		return 0, &RenderBackendUnavailableError{Backend: "pdf", Err: errors.New("no backend configured")}
	}
	var markup bytes.Buffer
	rows, err := r.drive(newHTMLSink(&markup), doc, src)
	if err != nil {
		return rows, err
	}
	page := PageOptions{
		Paper:       r.paper,
		Orientation: r.orientation,
		Header:      doc.Header,
		Footer:      doc.Footer,
	}
	if err := r.backend.Convert(ctx, markup.Bytes(), page, w); err != nil {
		return rows, &RenderBackendUnavailableError{Backend: r.backend.Name(), Err: err}
	}
	return rows, nil
}

func (r *Report) drive(sink Sink, doc Document, src Source) (int, error) {
	rows, err := r.newDriver().run(src, sink, doc)
	if err != nil {
		return rows, err
	}
	return rows, sink.Close()
}
