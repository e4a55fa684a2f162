package tabulate

import (
	"fmt"
	"io"
	"strings"
)

// markdownSink renders a GitHub-flavored Markdown table. Column widths and
// alignment markers need the whole table, so cells are buffered until Close.
// Total rows are emphasized with bold markers.
type markdownSink struct {
	w      io.Writer
	doc    Document
	header []string
	aligns []Alignment
	rows   [][]string
}

func newMarkdownSink(w io.Writer) *markdownSink {
	return &markdownSink{w: w}
}

func (s *markdownSink) Begin(doc Document) error {
	s.doc = doc
	return nil
}

func (s *markdownSink) WriteHeader(labels []Cell) error {
	s.header = cellValues(labels)
	s.aligns = make([]Alignment, len(labels))
	for i, l := range labels {
		s.aligns[i] = alignmentOf(l.Class)
	}
	return nil
}

func (s *markdownSink) WriteRow(cells []Cell) error {
	s.rows = append(s.rows, cellValues(cells))
	return nil
}

func (s *markdownSink) WriteTotal(row TotalRow) error {
	cells := row.Flatten()
	for i, c := range cells {
		if c != "" {
			cells[i] = "**" + c + "**"
		}
	}
	s.rows = append(s.rows, cells)
	return nil
}

func (s *markdownSink) Close() error {
	if s.doc.Title != "" {
		if _, err := fmt.Fprintf(s.w, "# %s\n\n", escapeMarkdown(s.doc.Title)); err != nil {
			return err
		}
	}
	if s.doc.ShowMeta && len(s.doc.Meta) > 0 {
		for _, kv := range s.doc.Meta {
			if _, err := fmt.Fprintf(s.w, "- **%s**: %s\n", escapeMarkdown(kv.Key), escapeMarkdown(kv.Value)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(s.w); err != nil {
			return err
		}
	}

	numCols := colCount(s.header, s.rows)
	if numCols == 0 {
		return nil
	}
	header := s.header
	if len(header) == 0 {
		// Markdown tables cannot omit the header line.
		header = make([]string, numCols)
	}
	header = escapeAll(header)
	rows := make([][]string, len(s.rows))
	for i, r := range s.rows {
		rows[i] = escapeAll(r)
	}

	// Minimum width 3 leaves room for alignment markers.
	widths := computeWidths(numCols, header, rows)
	for i := range widths {
		if widths[i] < 3 {
			widths[i] = 3
		}
	}
	aligns := extendAligns(s.aligns, numCols)

	if err := writeMarkdownRow(s.w, header, widths, aligns); err != nil {
		return err
	}
	sep := make([]string, numCols)
	for i, width := range widths {
		switch aligns[i] {
		case AlignRight:
			sep[i] = strings.Repeat("-", width-1) + ":"
		case AlignCenter:
			sep[i] = ":" + strings.Repeat("-", width-2) + ":"
		default:
			sep[i] = strings.Repeat("-", width)
		}
	}
	if _, err := fmt.Fprintf(s.w, "| %s |\n", strings.Join(sep, " | ")); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writeMarkdownRow(s.w, row, widths, aligns); err != nil {
			return err
		}
	}
	return nil
}

func writeMarkdownRow(w io.Writer, cells []string, widths []int, aligns []Alignment) error {
	padded := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		padded[i] = alignCell(cell, width, aligns[i])
	}
	_, err := fmt.Fprintf(w, "| %s |\n", strings.Join(padded, " | "))
	return err
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ")

func escapeMarkdown(s string) string { return markdownEscaper.Replace(s) }

func escapeAll(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = escapeMarkdown(c)
	}
	return out
}
