package tabulate

import (
	"fmt"
	"io"
	"strings"
)

// tsvSink writes tab-joined lines. Tabs and newlines inside a cell are
// replaced by spaces so every line keeps the report's column count.
type tsvSink struct {
	w io.Writer
}

func newTSVSink(w io.Writer) *tsvSink {
	return &tsvSink{w: w}
}

var tsvCleaner = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

func (s *tsvSink) line(cells []string) error {
	clean := make([]string, len(cells))
	for i, c := range cells {
		clean[i] = tsvCleaner.Replace(c)
	}
	_, err := fmt.Fprintln(s.w, strings.Join(clean, "\t"))
	return err
}

func (s *tsvSink) Begin(doc Document) error {
	if !doc.ShowMeta {
		return nil
	}
	for _, kv := range doc.Meta {
		if err := s.line([]string{kv.Key, kv.Value}); err != nil {
			return err
		}
	}
	return s.line([]string{""})
}

func (s *tsvSink) WriteHeader(labels []Cell) error { return s.line(cellValues(labels)) }

func (s *tsvSink) WriteRow(cells []Cell) error { return s.line(cellValues(cells)) }

func (s *tsvSink) WriteTotal(row TotalRow) error { return s.line(row.Flatten()) }

func (s *tsvSink) Close() error { return nil }
