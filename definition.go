package tabulate

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Pairs is an ordered YAML mapping of scalar values.
type Pairs []KeyValue

// UnmarshalYAML keeps mapping order, which a Go map would lose.
func (p *Pairs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidDefinition, node.Line)
	}
	out := make(Pairs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, KeyValue{Key: node.Content[i].Value, Value: node.Content[i+1].Value})
	}
	*p = out
	return nil
}

// ColumnDef declares one column. An empty Field reads the snake_case form of
// Name.
type ColumnDef struct {
	Name  string
	Field string
}

// ColumnDefs is the ordered column list. Each entry maps a label to a field
// name, to null, or to a mapping with a "field" key:
//
//	columns:
//	  Name: customer_name
//	  Total Amount: ~
//	  Region: {field: region_code}
type ColumnDefs []ColumnDef

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *ColumnDefs) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: line %d: columns must be a mapping", ErrInvalidDefinition, node.Line)
	}
	out := make(ColumnDefs, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name, value := node.Content[i].Value, node.Content[i+1]
		def := ColumnDef{Name: name}
		switch value.Kind {
		case yaml.ScalarNode:
			if value.Tag != "!!null" {
				def.Field = value.Value
			}
		case yaml.MappingNode:
			var m struct {
				Field string `yaml:"field"`
			}
			if err := value.Decode(&m); err != nil {
				return err
			}
			def.Field = m.Field
		default:
			return fmt.Errorf("%w: line %d: column %q", ErrInvalidDefinition, value.Line, name)
		}
		out = append(out, def)
	}
	*c = out
	return nil
}

// EditDef mirrors [Edit]. Display is a literal shown instead of the value.
type EditDef struct {
	Class   string  `yaml:"class"`
	Display *string `yaml:"display"`
}

// FormatDef mirrors [ColumnFormat].
type FormatDef struct {
	Type    FormatKind `yaml:"type"`
	Options Options    `yaml:"options"`
}

// ConditionDef is a declarative predicate. Op is one of eq, ne, gt, gte, lt,
// lte, contains and empty. The display value is tested unless Field names a
// record field to test instead.
type ConditionDef struct {
	Op    string `yaml:"op"`
	Value any    `yaml:"value"`
	Field string `yaml:"field"`
}

// RuleDef is one conditional format.
type RuleDef struct {
	When   ConditionDef `yaml:"when"`
	Styles Pairs        `yaml:"styles"`
}

// CacheDef configures artifact caching.
type CacheDef struct {
	TTL time.Duration `yaml:"ttl"`
	Key string        `yaml:"key"`
}

// Definition is the YAML form of a [Report].
type Definition struct {
	Title               string                   `yaml:"title"`
	Meta                Pairs                    `yaml:"meta"`
	Columns             ColumnDefs               `yaml:"columns"`
	Edit                map[string]EditDef       `yaml:"edit"`
	Format              map[string]FormatDef     `yaml:"format"`
	Totals              map[string]AggregateKind `yaml:"totals"`
	GroupBy             []string                 `yaml:"group_by"`
	Limit               int                      `yaml:"limit"`
	Conditional         map[string][]RuleDef     `yaml:"conditional"`
	ShowHeader          *bool                    `yaml:"show_header"`
	ShowMeta            *bool                    `yaml:"show_meta"`
	ShowNumColumn       *bool                    `yaml:"show_num_column"`
	WithoutManipulation bool                     `yaml:"without_manipulation"`
	CSS                 Pairs                    `yaml:"css"`
	Paper               string                   `yaml:"paper"`
	Orientation         Orientation              `yaml:"orientation"`
	Header              map[Position]string      `yaml:"header"`
	Footer              map[Position]string      `yaml:"footer"`
	Cache               *CacheDef                `yaml:"cache"`
}

// ParseDefinition decodes a YAML report definition.
func ParseDefinition(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDefinition, err)
	}
	return &def, nil
}

// LoadDefinition reads and decodes a YAML report definition file.
func LoadDefinition(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseDefinition(data)
}

var (
	formatKinds    = []FormatKind{Currency, Number, Date, DateTime, Percentage, Boolean}
	aggregateKinds = []AggregateKind{Sum, Avg, Min, Max, Count, Point}
)

// Report builds the report the definition describes. Column references are
// checked when the report renders.
func (d *Definition) Report() (*Report, error) {
	if len(d.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrInvalidDefinition)
	}
	columns := make([]Column, len(d.Columns))
	for i, c := range d.Columns {
		if c.Field == "" {
			columns[i] = Col(c.Name)
		} else {
			columns[i] = FieldCol(c.Name, c.Field)
		}
	}
	r := New(d.Title, d.Meta, columns...)

	for name, e := range d.Edit {
		edit := Edit{Class: e.Class}
		if e.Display != nil {
			edit.Display = Literal(*e.Display)
		}
		r.EditColumn(name, edit)
	}
	for name, f := range d.Format {
		if !slices.Contains(formatKinds, f.Type) {
			return nil, fmt.Errorf("%w: column %q: format type %q", ErrInvalidDefinition, name, f.Type)
		}
		r.FormatColumn(name, f.Type, f.Options)
	}
	for name, kind := range d.Totals {
		if !slices.Contains(aggregateKinds, kind) {
			return nil, fmt.Errorf("%w: column %q: aggregate %q", ErrInvalidDefinition, name, kind)
		}
	}
	r.ShowTotal(d.Totals)
	r.GroupBy(d.GroupBy...)
	r.Limit(d.Limit)

	for name, rules := range d.Conditional {
		for _, rule := range rules {
			pred, err := rule.When.predicate()
			if err != nil {
				return nil, fmt.Errorf("%w: column %q: %w", ErrInvalidDefinition, name, err)
			}
			styles := make(Styles, len(rule.Styles))
			for i, kv := range rule.Styles {
				styles[i] = Declaration{Property: kv.Key, Value: kv.Value}
			}
			r.ConditionalFormat(name, pred, styles)
		}
	}

	if d.ShowHeader != nil {
		r.ShowHeader(*d.ShowHeader)
	}
	if d.ShowMeta != nil {
		r.ShowMeta(*d.ShowMeta)
	}
	if d.ShowNumColumn != nil {
		r.ShowNumColumn(*d.ShowNumColumn)
	}
	if d.WithoutManipulation {
		r.WithoutManipulation()
	}
	for _, kv := range d.CSS {
		r.SetCSS(CSSRule{Selector: kv.Key, Style: kv.Value})
	}
	if d.Paper != "" {
		r.SetPaper(d.Paper)
	}
	if d.Orientation != "" {
		r.SetOrientation(d.Orientation)
	}
	for pos, content := range d.Header {
		r.SetHeaderContent(content, pos)
	}
	if d.Footer != nil {
		r.ClearFooter()
		for pos, content := range d.Footer {
			r.SetFooterContent(content, pos)
		}
	}
	if d.Cache != nil {
		r.CacheFor(d.Cache.TTL)
		if d.Cache.Key != "" {
			r.CacheAs(d.Cache.Key)
		}
	}
	return r, nil
}

func (c ConditionDef) predicate() (Predicate, error) {
	op := strings.ToLower(c.Op)
	var test func(v any) bool
	switch op {
	case "eq":
		test = func(v any) bool { return LooseEqual(v, c.Value) }
	case "ne":
		test = func(v any) bool { return !LooseEqual(v, c.Value) }
	case "gt", "gte", "lt", "lte":
		want, ok := numericValue(c.Value)
		if !ok {
			return nil, fmt.Errorf("op %q needs a numeric value, got %v", op, c.Value)
		}
		test = func(v any) bool {
			got, ok := numericValue(v)
			if !ok {
				return false
			}
			switch op {
			case "gt":
				return got > want
			case "gte":
				return got >= want
			case "lt":
				return got < want
			default:
				return got <= want
			}
		}
	case "contains":
		want := Stringify(c.Value)
		test = func(v any) bool { return strings.Contains(Stringify(v), want) }
	case "empty":
		test = func(v any) bool { return Stringify(v) == "" }
	default:
		return nil, fmt.Errorf("unknown op %q", c.Op)
	}
	if c.Field == "" {
		return func(display any, _ Record) bool { return test(display) }, nil
	}
	field := c.Field
	return func(_ any, rec Record) bool {
		v, ok := rec.Get(field)
		return ok && test(v)
	}, nil
}
