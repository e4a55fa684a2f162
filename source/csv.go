package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/bjaus/tabulate"
)

// CSV streams a delimited file whose first line names the fields. Values
// stay strings; formatting and aggregation coerce them as needed. A comma of
// zero keeps the default ','.
func CSV(r io.Reader, comma rune) tabulate.Source {
	return func(yield func(tabulate.Record, error) bool) {
		cr := csv.NewReader(r)
		if comma != 0 {
			cr.Comma = comma
		}
		cr.ReuseRecord = true
		cr.FieldsPerRecord = 0

		header, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(nil, fmt.Errorf("source: csv header: %w", err))
			return
		}
		names := append([]string(nil), header...)

		for {
			fields, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, fmt.Errorf("source: csv: %w", err))
				return
			}
			values := make([]any, len(fields))
			for i, f := range fields {
				values[i] = f
			}
			if !yield(tabulate.NewRow(names, values), nil) {
				return
			}
		}
	}
}
