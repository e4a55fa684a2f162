package tabulate

import (
	"strings"
	"unicode"
)

// Accessor obtains a column's raw value from a record. It is either a field
// lookup or a transform; build one with [Field] or [Transform].
type Accessor struct {
	field     string
	transform func(Record) any
}

// Field reads the named field from each record.
func Field(name string) Accessor { return Accessor{field: name} }

// Transform computes the value from the whole record.
func Transform(fn func(Record) any) Accessor { return Accessor{transform: fn} }

// FieldName returns the field read by a field accessor, or "" for transforms.
func (a Accessor) FieldName() string { return a.field }

// IsTransform reports whether the accessor computes its value.
func (a Accessor) IsTransform() bool { return a.transform != nil }

// Resolve returns the raw value of column for rec.
func (a Accessor) Resolve(rec Record, column string) (any, error) {
	if a.transform != nil {
		return a.transform(rec), nil
	}
	v, ok := rec.Get(a.field)
	if !ok {
		return nil, &MissingFieldError{Column: column, Field: a.field}
	}
	return v, nil
}

// Column is one declared report column. Name is the display label and the
// key every other column setting refers to.
type Column struct {
	Name     string
	Accessor Accessor
}

// Col declares a column reading the snake_case form of its label, so
// Col("Total Amount") reads field "total_amount".
func Col(name string) Column {
	return Column{Name: name, Accessor: Field(snakeCase(name))}
}

// FieldCol declares a column reading an explicit field.
func FieldCol(name, field string) Column {
	return Column{Name: name, Accessor: Field(field)}
}

// TransformCol declares a computed column.
func TransformCol(name string, fn func(Record) any) Column {
	return Column{Name: name, Accessor: Transform(fn)}
}

// DisplayFunc replaces a column's display value.
type DisplayFunc func(Record) any

// Literal returns a DisplayFunc that always shows v.
func Literal(v any) DisplayFunc {
	return func(Record) any { return v }
}

// Edit overrides how a column is presented. Class is a markup class name
// (ignored by non-markup formats). Display, when set, takes precedence over
// the raw value and over any [ColumnFormat].
type Edit struct {
	Class   string
	Display DisplayFunc
}

func (e Edit) merge(next Edit) Edit {
	if next.Class != "" {
		e.Class = next.Class
	}
	if next.Display != nil {
		e.Display = next.Display
	}
	return e
}

// resolveDisplay applies the override chain: edit display, then column
// format, then the raw value untouched.
func resolveDisplay(raw any, rec Record, edit *Edit, format *ColumnFormat) any {
	if edit != nil && edit.Display != nil {
		return edit.Display(rec)
	}
	if format != nil {
		return FormatValue(raw, format.Kind, format.Options)
	}
	return raw
}

func snakeCase(s string) string {
	var sb strings.Builder
	runes := []rune(strings.TrimSpace(s))
	for i, r := range runes {
		switch {
		case unicode.IsSpace(r) || r == '-':
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "_") {
				sb.WriteByte('_')
			}
		case unicode.IsUpper(r):
			if i > 0 && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "_") &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1]))) {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
