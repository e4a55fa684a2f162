package tabulate

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

// xlsxSink streams a single worksheet through excelize's StreamWriter, so
// memory stays flat regardless of row count. The workbook is serialized to
// the destination on Close.
type xlsxSink struct {
	w    io.Writer
	file *excelize.File
	sw   *excelize.StreamWriter
	bold int
	row  int
}

func newXLSXSink(w io.Writer) *xlsxSink {
	return &xlsxSink{w: w}
}

func (s *xlsxSink) Begin(doc Document) error {
	s.file = excelize.NewFile()
	sheet := sheetName(doc.Title)
	if err := s.file.SetSheetName(defaultSheet, sheet); err != nil {
		return fmt.Errorf("xlsx: name sheet: %w", err)
	}
	bold, err := s.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("xlsx: bold style: %w", err)
	}
	s.bold = bold
	sw, err := s.file.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}
	s.sw = sw

	if doc.Title != "" {
		if err := s.write(s.styled([]string{doc.Title})); err != nil {
			return err
		}
	}
	if doc.ShowMeta {
		for _, kv := range doc.Meta {
			if err := s.write([]any{kv.Key, kv.Value}); err != nil {
				return err
			}
		}
	}
	if doc.Title != "" || (doc.ShowMeta && len(doc.Meta) > 0) {
		// Blank spacer row between the heading block and the table.
		s.row++
	}
	return nil
}

// write appends values as the next row.
func (s *xlsxSink) write(values []any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.sw.SetRow(cell, values)
}

func (s *xlsxSink) styled(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = excelize.Cell{StyleID: s.bold, Value: v}
	}
	return out
}

func plain(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func (s *xlsxSink) WriteHeader(labels []Cell) error {
	return s.write(s.styled(cellValues(labels)))
}

func (s *xlsxSink) WriteRow(cells []Cell) error {
	return s.write(plain(cellValues(cells)))
}

func (s *xlsxSink) WriteTotal(row TotalRow) error {
	if err := s.write(s.styled(row.Flatten())); err != nil {
		return err
	}
	if row.Span < 2 {
		return nil
	}
	from, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(row.Span, s.row)
	if err != nil {
		return err
	}
	return s.sw.MergeCell(from, to)
}

func (s *xlsxSink) Close() error {
	if s.file == nil {
		return nil
	}
	defer s.file.Close()
	if err := s.sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if err := s.file.Write(s.w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

var sheetNameCleaner = strings.NewReplacer(":", " ", `\`, " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// sheetName derives a valid worksheet name from the report title.
func sheetName(title string) string {
	name := sheetNameCleaner.Replace(title)
	if utf8.RuneCountInString(name) > excelize.MaxSheetNameLength {
		name = string([]rune(name)[:excelize.MaxSheetNameLength])
	}
	name = strings.Trim(name, "' ")
	if name == "" {
		return defaultSheet
	}
	return name
}
