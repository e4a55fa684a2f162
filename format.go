package tabulate

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// FormatKind selects a display formatter for a column.
type FormatKind string

const (
	Currency   FormatKind = "currency"
	Number     FormatKind = "number"
	Date       FormatKind = "date"
	DateTime   FormatKind = "datetime"
	Percentage FormatKind = "percentage"
	Boolean    FormatKind = "boolean"
)

// Options carries formatter settings. Recognized keys are decimals, prefix,
// suffix, decimal_separator, thousands_separator, format, true and false.
// Unknown keys are ignored.
type Options map[string]any

// ColumnFormat pairs a formatter with its options.
type ColumnFormat struct {
	Kind    FormatKind
	Options Options
}

// maxDecimals caps the precision a format option may request.
const maxDecimals = 20

const (
	defaultDateLayout     = "Y-m-d"
	defaultDateTimeLayout = "Y-m-d H:i:s"
)

// FormatValue renders value as display text. It never fails: an unsupported
// kind, or a date that cannot be parsed, yields the value as text.
func FormatValue(value any, kind FormatKind, opts Options) string {
	switch kind {
	case Currency:
		return opts.str("prefix", "$") + formatNumber(
			value,
			opts.integer("decimals", 2),
			opts.str("decimal_separator", "."),
			opts.str("thousands_separator", ","),
		)
	case Number:
		return formatNumber(
			value,
			opts.integer("decimals", 0),
			opts.str("decimal_separator", "."),
			opts.str("thousands_separator", ","),
		)
	case Date:
		return formatDate(value, opts.str("format", defaultDateLayout))
	case DateTime:
		return formatDate(value, opts.str("format", defaultDateTimeLayout))
	case Percentage:
		return formatNumber(value, opts.integer("decimals", 2), ".", ",") + opts.str("suffix", "%")
	case Boolean:
		if truthy(value) {
			return opts.str("true", "Yes")
		}
		return opts.str("false", "No")
	default:
		return Stringify(value)
	}
}

func (o Options) str(key, def string) string {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	return Stringify(v)
}

func (o Options) integer(key string, def int) int {
	v, ok := o[key]
	if !ok || v == nil {
		return def
	}
	return int(toFloat(v))
}

// formatNumber keeps decimal inputs exact and converts everything else
// through toFloat.
func formatNumber(value any, decimals int, decSep, thouSep string) string {
	if d, ok := value.(decimal.Decimal); ok {
		return decimalFormat(d, decimals, decSep, thouSep)
	}
	return numberFormat(toFloat(value), decimals, decSep, thouSep)
}

// numberFormat renders v rounded half away from zero with the given
// separators, which may be any string including empty. NaN and infinities
// render as NaN, Inf and -Inf.
func numberFormat(v float64, decimals int, decSep, thouSep string) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimalFormat(decimal.NewFromFloat(v), decimals, decSep, thouSep)
}

// decimalFormat is numberFormat for exact values. A result that rounds to
// zero carries no sign.
func decimalFormat(d decimal.Decimal, decimals int, decSep, thouSep string) string {
	places := int32(max(0, min(decimals, maxDecimals)))
	rounded := d.Round(places)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(places), ".")

	digits, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return rounded.StringFixed(places)
	}
	var sb strings.Builder
	if rounded.Sign() < 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(strings.ReplaceAll(humanize.BigComma(digits), ",", thouSep))
	if frac != "" {
		sb.WriteString(decSep)
		sb.WriteString(frac)
	}
	return sb.String()
}

func formatDate(value any, layout string) string {
	switch v := value.(type) {
	case time.Time:
		return formatTimeLayout(v, layout)
	case *time.Time:
		if v == nil {
			return ""
		}
		return formatTimeLayout(*v, layout)
	case string:
		if v == "" {
			return v
		}
		t, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return v
		}
		return formatTimeLayout(t, layout)
	case []byte:
		return formatDate(string(v), layout)
	default:
		return Stringify(value)
	}
}

// toFloat converts loosely: numeric strings parse, bools count as 1 and 0,
// and anything else is 0.
func toFloat(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case uint:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case uint64:
		return float64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		f, _ := parseNumeric(v)
		return f
	case []byte:
		f, _ := parseNumeric(string(v))
		return f
	case decimal.Decimal:
		return v.InexactFloat64()
	case json.Number:
		f, _ := v.Float64()
		return f
	case fmt.Stringer:
		f, _ := parseNumeric(v.String())
		return f
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return 0
}

// parseNumeric reports whether s, trimmed, is a complete number.
func parseNumeric(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case []byte:
		return len(v) > 0 && string(v) != "0"
	case decimal.Decimal:
		return !v.IsZero()
	}
	if isNumber(value) {
		return toFloat(value) != 0
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64, decimal.Decimal, json.Number:
		return true
	}
	return false
}

// Stringify converts a resolved value to cell text.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.DateTime)
	case *time.Time:
		if v == nil {
			return ""
		}
		return v.Format(time.DateTime)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	}
	return fmt.Sprint(value)
}
