package tabulate

import "time"

// groupTracker detects group breaks in a stream pre-sorted by its key.
// It only ever holds the current key tuple.
type groupTracker struct {
	columns []Column
	current []any
	started bool
}

func newGroupTracker(columns []Column) *groupTracker {
	return &groupTracker{columns: columns}
}

// checkAndAdvance reports whether rec starts a new group. The first record
// never does. The tuple of rec becomes the current key either way.
func (g *groupTracker) checkAndAdvance(rec Record) (bool, error) {
	if len(g.columns) == 0 {
		return false, nil
	}
	next := make([]any, len(g.columns))
	for i, col := range g.columns {
		v, err := col.Accessor.Resolve(rec, col.Name)
		if err != nil {
			return false, err
		}
		next[i] = v
	}
	changed := false
	if g.started {
		for i := range next {
			if !LooseEqual(g.current[i], next[i]) {
				changed = true
				break
			}
		}
	}
	g.current = next
	g.started = true
	return changed, nil
}

// LooseEqual compares group-key values the way untyped report sources expect:
// "3" equals 3, numeric strings compare as numbers, nil equals "", 0 and
// false, bools compare by truthiness, and other values by their text.
func LooseEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if ab, ok := a.(bool); ok {
		return ab == truthy(b)
	}
	if bb, ok := b.(bool); ok {
		return bb == truthy(a)
	}
	if a == nil {
		return nilEqual(b)
	}
	if b == nil {
		return nilEqual(a)
	}
	if at, ok := asTime(a); ok {
		if bt, ok := asTime(b); ok {
			return at.Equal(bt)
		}
	}
	af, aNum := numericValue(a)
	bf, bNum := numericValue(b)
	if aNum && bNum {
		return af == bf
	}
	return Stringify(a) == Stringify(b)
}

func nilEqual(v any) bool {
	if f, ok := numericValue(v); ok && isNumber(v) {
		return f == 0
	}
	return Stringify(v) == ""
}

func numericValue(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		return parseNumeric(x)
	case []byte:
		return parseNumeric(string(x))
	}
	if isNumber(v) {
		return toFloat(v), true
	}
	return 0, false
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case *time.Time:
		if t != nil {
			return *t, true
		}
	}
	return time.Time{}, false
}
