// Package source provides streaming record sources for reports: database
// cursors and delimited files. Every source reads lazily and releases its
// cursor when iteration ends, including when the report stops early.
package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bjaus/tabulate"
)

// SQL runs query on db and streams its rows. The query runs when iteration
// starts, so a limited report never reads past its limit.
func SQL(ctx context.Context, db *sql.DB, query string, args ...any) tabulate.Source {
	return func(yield func(tabulate.Record, error) bool) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("source: query: %w", err))
			return
		}
		Rows(rows)(yield)
	}
}

// Rows streams an open result set and closes it when iteration ends.
func Rows(rows *sql.Rows) tabulate.Source {
	return func(yield func(tabulate.Record, error) bool) {
		defer rows.Close()
		names, err := rows.Columns()
		if err != nil {
			yield(nil, fmt.Errorf("source: columns: %w", err))
			return
		}
		for rows.Next() {
			values := make([]any, len(names))
			dest := make([]any, len(names))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				yield(nil, fmt.Errorf("source: scan: %w", err))
				return
			}
			for i, v := range values {
				// Drivers may reuse byte buffers between rows.
				if b, ok := v.([]byte); ok {
					values[i] = string(b)
				}
			}
			if !yield(tabulate.NewRow(names, values), nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("source: rows: %w", err))
		}
	}
}
