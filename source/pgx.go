package source

import (
	"context"
	"database/sql/driver"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/bjaus/tabulate"
)

// Querier is the query surface shared by *pgx.Conn, *pgxpool.Pool and
// pgx.Tx.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Pgx runs query through q and streams its rows.
func Pgx(ctx context.Context, q Querier, query string, args ...any) tabulate.Source {
	return func(yield func(tabulate.Record, error) bool) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			yield(nil, fmt.Errorf("source: query: %w", err))
			return
		}
		PgxRows(rows)(yield)
	}
}

// PgxRows streams an open pgx result set and closes it when iteration ends.
func PgxRows(rows pgx.Rows) tabulate.Source {
	return func(yield func(tabulate.Record, error) bool) {
		defer rows.Close()
		fields := rows.FieldDescriptions()
		names := make([]string, len(fields))
		for i, f := range fields {
			names[i] = f.Name
		}
		for rows.Next() {
			values, err := rows.Values()
			if err != nil {
				yield(nil, fmt.Errorf("source: values: %w", err))
				return
			}
			for i, v := range values {
				values[i] = pgValue(v)
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

// pgValue unwraps pgtype structs that the report cannot read directly.
// NUMERIC becomes an exact decimal, and other driver.Valuer types their
// driver value.
func pgValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return x
	case pgtype.Numeric:
		return numericValue(x)
	case *pgtype.Numeric:
		if x == nil {
			return nil
		}
		return numericValue(*x)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return v
		}
		return dv
	}
	return v
}

func numericValue(n pgtype.Numeric) any {
	switch {
	case !n.Valid:
		return nil
	case n.NaN:
		return math.NaN()
	case n.InfinityModifier == pgtype.Infinity:
		return math.Inf(1)
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return math.Inf(-1)
	case n.Int == nil:
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
