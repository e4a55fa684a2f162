// Package tabulate renders tabular reports from streaming record sources.
//
// A [Report] declares columns once and renders them into any [Format]: CSV,
// TSV, XLSX, HTML, PDF, Markdown, a terminal table or JSON lines. The source
// is read in a single pass, so memory stays flat for sinks that stream (CSV,
// TSV, XLSX, HTML, JSON lines).
//
//	r := tabulate.New("Sales", []tabulate.KeyValue{{Key: "Region", Value: "EU"}},
//		tabulate.Col("Customer"),
//		tabulate.Col("Amount"),
//	).
//		FormatColumn("Amount", tabulate.Currency, nil).
//		ShowTotal(map[string]tabulate.AggregateKind{"Amount": tabulate.Sum})
//	err := r.Render(ctx, os.Stdout, tabulate.CSV, tabulate.FromSlice(rows...))
//
// # Columns
//
// Each [Column] has a display label and an [Accessor]. [Col] reads the
// snake_case form of the label, [FieldCol] an explicit field and
// [TransformCol] computes the value from the whole [Record].
//
// A cell's display value resolves in order: an [Edit] Display, then the
// column's [ColumnFormat], then the raw value. Totals always aggregate raw
// values.
//
// # Totals and groups
//
// [Report.ShowTotal] selects the aggregated columns and their
// [AggregateKind]. [Report.GroupBy] emits a subtotal row whenever the group
// key changes; the source must already be sorted by it. Subtotals cover the
// group just closed, the grand total covers every record, and numbering
// restarts with each group.
//
// # Styling
//
// [Report.ConditionalFormat] attaches [Rule] values to a column. Matching
// rules contribute classes and inline declarations that HTML emits as is,
// the terminal table maps to colors, and other formats ignore.
//
// # Definitions
//
// A report can be declared in YAML and built with [ParseDefinition] or
// [LoadDefinition] followed by [Definition.Report].
//
// # Caching
//
// [Report.CacheFor] stores rendered artifacts in a [Cache]; a hit writes the
// stored bytes without reading the source. The default store is an in-process
// [MemoryCache]; the filecache subpackage stores artifacts on disk.
//
// # Errors
//
// The package exports sentinel errors for programmatic handling:
//
//   - [ErrUnsupportedFormat]: unknown format name
//   - [ErrUnknownColumn]: a setting references an undeclared column
//   - [ErrDuplicateColumn]: two columns share a label
//   - [ErrMissingField]: a record lacks a field a column reads
//   - [ErrRenderBackendUnavailable]: the cache or the PDF backend failed
//   - [ErrInvalidDefinition]: a YAML report definition cannot be built
package tabulate
