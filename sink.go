package tabulate

import (
	"fmt"
	"io"
	"strings"
)

// Format represents an output format.
type Format string

const (
	CSV      Format = "csv"
	TSV      Format = "tsv"
	XLSX     Format = "xlsx"
	HTML     Format = "html"
	PDF      Format = "pdf"
	Markdown Format = "markdown"
	Table    Format = "table"
	JSONL    Format = "jsonl"
)

var formats = []Format{CSV, TSV, XLSX, HTML, PDF, Markdown, Table, JSONL}

// String returns the format name.
func (f Format) String() string { return string(f) }

// Ext returns the conventional file extension, without the dot.
func (f Format) Ext() string {
	switch f {
	case Markdown:
		return "md"
	case Table:
		return "txt"
	default:
		return string(f)
	}
}

// Formats returns all supported format names.
func Formats() []Format {
	out := make([]Format, len(formats))
	copy(out, formats)
	return out
}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, f := range formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// KeyValue is a single key-value pair.
type KeyValue struct {
	Key   string
	Value string
}

// CSSRule is a selector and its declarations, emitted verbatim by markup
// formats.
type CSSRule struct {
	Selector string
	Style    string
}

// Position places header and footer content on a page.
type Position string

const (
	Left   Position = "left"
	Center Position = "center"
	Right  Position = "right"
)

// Document is the per-render context a sink receives before any row.
type Document struct {
	Title    string
	Meta     []KeyValue
	ShowMeta bool
	CSS      []CSSRule
	Border   BorderStyle
	// Header and Footer hold page decorations with {date} and {title}
	// already resolved. {page} and {pages} are left for the page backend.
	Header map[Position]string
	Footer map[Position]string
}

// Cell is one rendered cell. Class is the column's markup class; Style is
// the conditional styling. Formats without styling read Value only.
type Cell struct {
	Value string
	Class string
	Style CellStyle
}

// TotalRow is a subtotal or grand-total line. The label occupies the first
// Span columns; Cells hold one entry per column from the first totaled column
// to the last. A Span of 0 means there is no room for the label.
type TotalRow struct {
	Label string
	Span  int
	Cells []string
	Grand bool
}

// Flatten lays the total row out on the report grid: the label, padding up
// to Span, then the cells.
func (t TotalRow) Flatten() []string {
	out := make([]string, 0, t.Span+len(t.Cells))
	if t.Span > 0 {
		out = append(out, t.Label)
		for i := 1; i < t.Span; i++ {
			out = append(out, "")
		}
	}
	return append(out, t.Cells...)
}

// Sink materializes a report in one format. The driver calls Begin once,
// then WriteHeader at most once, then WriteRow and WriteTotal in report
// order, and Close exactly once when the render succeeds.
type Sink interface {
	Begin(doc Document) error
	WriteHeader(labels []Cell) error
	WriteRow(cells []Cell) error
	WriteTotal(row TotalRow) error
	Close() error
}

// NewSink returns the sink for f writing to w. PDF is not a sink: it renders
// HTML and hands it to a [Backend].
func NewSink(f Format, w io.Writer) (Sink, error) {
	switch f {
	case CSV:
		return newCSVSink(w), nil
	case TSV:
		return newTSVSink(w), nil
	case XLSX:
		return newXLSXSink(w), nil
	case HTML:
		return newHTMLSink(w), nil
	case Markdown:
		return newMarkdownSink(w), nil
	case Table:
		return newTableSink(w), nil
	case JSONL:
		return newJSONLSink(w), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
}

func cellValues(cells []Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Value
	}
	return out
}
