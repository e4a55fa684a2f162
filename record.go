package tabulate

import (
	"iter"
	"slices"
)

// Record is one item of a report source. Get returns the named field;
// Values returns the record's native field set in its own order and is used
// by reports rendered without manipulation.
type Record interface {
	Get(field string) (any, bool)
	Values() []any
}

// Source is an ordered, possibly lazy sequence of records. A non-nil error
// stops the render and is returned to the caller.
type Source = iter.Seq2[Record, error]

// Row is an ordered record built from parallel name and value slices.
type Row struct {
	names  []string
	values []any
	index  map[string]int
}

// NewRow builds a Row. Names beyond len(values) are ignored.
func NewRow(names []string, values []any) Row {
	n := min(len(names), len(values))
	r := Row{
		names:  names[:n],
		values: values[:n],
		index:  make(map[string]int, n),
	}
	for i, name := range r.names {
		r.index[name] = i
	}
	return r
}

// RowOf builds a Row from alternating name/value pairs:
//
//	tabulate.RowOf("region", "EU", "amount", 100)
//
// A trailing name without a value is dropped. Non-string names are skipped.
func RowOf(pairs ...any) Row {
	names := make([]string, 0, len(pairs)/2)
	values := make([]any, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		names = append(names, name)
		values = append(values, pairs[i+1])
	}
	return NewRow(names, values)
}

// Get implements Record.
func (r Row) Get(field string) (any, bool) {
	i, ok := r.index[field]
	if !ok {
		return nil, false
	}
	return r.values[i], true
}

// Values implements Record.
func (r Row) Values() []any { return slices.Clone(r.values) }

// Names returns the field names in order.
func (r Row) Names() []string { return slices.Clone(r.names) }

// Map adapts a map to Record. Values are ordered by sorted key, since maps
// carry no order of their own.
type Map map[string]any

// Get implements Record.
func (m Map) Get(field string) (any, bool) {
	v, ok := m[field]
	return v, ok
}

// Values implements Record.
func (m Map) Values() []any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// FromSlice returns a Source over in-memory records.
func FromSlice[R Record](records ...R) Source {
	return func(yield func(Record, error) bool) {
		for _, rec := range records {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// FromSeq adapts an infallible iterator to a Source.
func FromSeq[R Record](seq iter.Seq[R]) Source {
	return func(yield func(Record, error) bool) {
		for rec := range seq {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// FromChan returns a Source draining ch until it is closed.
func FromChan[R Record](ch <-chan R) Source {
	return func(yield func(Record, error) bool) {
		for rec := range ch {
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// Limit bounds src to at most n records. A non-positive n means no limit.
// Iteration of src stops as soon as the limit is reached, so lazy cursors
// are never read past it.
func Limit(src Source, n int) Source {
	if n <= 0 {
		return src
	}
	return func(yield func(Record, error) bool) {
		taken := 0
		for rec, err := range src {
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
			taken++
			if taken >= n {
				return
			}
		}
	}
}
