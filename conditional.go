package tabulate

import "strings"

// Predicate decides whether a conditional rule applies to a cell. It sees the
// display value (after overrides and formatting) and the source record.
type Predicate func(display any, rec Record) bool

// Declaration is one style property. The property "class" adds a class name;
// any other property becomes an inline declaration.
type Declaration struct {
	Property string
	Value    string
}

// Styles is an ordered list of declarations.
type Styles []Declaration

// Rule is a conditional format: when When matches, Styles apply.
type Rule struct {
	When   Predicate
	Styles Styles
}

// CellStyle is advisory styling for one cell. Class holds space-separated
// class names; Inline holds "prop:value;" declarations.
type CellStyle struct {
	Class  string
	Inline string
}

// IsZero reports whether no styling was produced.
func (s CellStyle) IsZero() bool { return s.Class == "" && s.Inline == "" }

// Evaluate applies rules in order. Every matching rule contributes; rules
// that don't match contribute nothing.
func Evaluate(display any, rec Record, rules []Rule) CellStyle {
	var classes []string
	var inline strings.Builder
	for _, rule := range rules {
		if rule.When == nil || !rule.When(display, rec) {
			continue
		}
		for _, d := range rule.Styles {
			if d.Property == "class" {
				if d.Value != "" {
					classes = append(classes, d.Value)
				}
				continue
			}
			inline.WriteString(d.Property)
			inline.WriteByte(':')
			inline.WriteString(d.Value)
			inline.WriteByte(';')
		}
	}
	return CellStyle{Class: strings.Join(classes, " "), Inline: inline.String()}
}
