package tabulate

import (
	"encoding/csv"
	"io"
)

// csvSink streams rows through encoding/csv. Meta pairs, when shown, are
// written as key,value lines followed by a blank separator line.
type csvSink struct {
	cw *csv.Writer
}

func newCSVSink(w io.Writer) *csvSink {
	return &csvSink{cw: csv.NewWriter(w)}
}

func (s *csvSink) Begin(doc Document) error {
	if !doc.ShowMeta {
		return nil
	}
	for _, kv := range doc.Meta {
		if err := s.cw.Write([]string{kv.Key, kv.Value}); err != nil {
			return err
		}
	}
	return s.cw.Write([]string{" "})
}

func (s *csvSink) WriteHeader(labels []Cell) error {
	return s.cw.Write(cellValues(labels))
}

func (s *csvSink) WriteRow(cells []Cell) error {
	return s.cw.Write(cellValues(cells))
}

func (s *csvSink) WriteTotal(row TotalRow) error {
	return s.cw.Write(row.Flatten())
}

func (s *csvSink) Close() error {
	s.cw.Flush()
	return s.cw.Error()
}
