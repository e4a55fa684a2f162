package tabulate

import (
	"strconv"

	"github.com/sirupsen/logrus"
)

const (
	numberHeader    = "No"
	subtotalLabel   = "Subtotal"
	grandTotalLabel = "Grand Total"
)

// driver performs one single-pass render. It owns its aggregate state and
// group tracker; a driver is never reused across renders.
type driver struct {
	columns []Column
	edits   map[string]Edit
	formats map[string]ColumnFormat
	totals  map[string]AggregateKind
	groupBy []Column
	rules   map[string][]Rule

	showHeader bool
	// numbered is always false when raw is set.
	numbered bool
	raw      bool

	hooks hooks
	log   logrus.FieldLogger
}

// layout returns the label span of total rows and the index of the first
// totaled column. Without totals both are zero.
func (d *driver) layout() (span, first int) {
	if len(d.totals) == 0 {
		return 0, 0
	}
	for i, col := range d.columns {
		if _, ok := d.totals[col.Name]; ok {
			first = i
			break
		}
	}
	span = first
	if d.numbered {
		span++
	}
	return span, first
}

// run drives src into sink and reports the number of records rendered. The
// sink is begun but not closed.
func (d *driver) run(src Source, sink Sink, doc Document) (int, error) {
	if err := sink.Begin(doc); err != nil {
		return 0, err
	}

	group := NewAggregates(d.totals)
	grand := NewAggregates(d.totals)
	tracker := newGroupTracker(d.groupBy)
	span, first := d.layout()

	if d.showHeader {
		if err := sink.WriteHeader(d.header()); err != nil {
			return 0, err
		}
	}

	count, no := 0, 1
	for rec, err := range src {
		if err != nil {
			return count, err
		}
		changed, err := tracker.checkAndAdvance(rec)
		if err != nil {
			return count, err
		}
		if changed {
			d.log.WithField("row", count).Debug("group break")
			if len(d.totals) > 0 {
				if err := sink.WriteTotal(d.totalRow(group, subtotalLabel, span, first, false)); err != nil {
					return count, err
				}
			}
			group.Reset()
			no = 1
		}

		d.hooks.fireRow(rec, count)

		cells, err := d.row(rec, no, group, grand)
		if err != nil {
			return count, err
		}
		if err := sink.WriteRow(cells); err != nil {
			return count, err
		}
		count++
		no++
	}

	if count > 0 && len(d.totals) > 0 {
		if err := sink.WriteTotal(d.totalRow(grand, grandTotalLabel, span, first, true)); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (d *driver) header() []Cell {
	cells := make([]Cell, 0, len(d.columns)+1)
	if d.numbered {
		cells = append(cells, Cell{Value: numberHeader})
	}
	for _, col := range d.columns {
		cells = append(cells, Cell{Value: col.Name, Class: d.edits[col.Name].Class})
	}
	return cells
}

// row resolves every column of rec, folding raw values into both the group
// and the grand aggregates.
func (d *driver) row(rec Record, no int, group, grand *Aggregates) ([]Cell, error) {
	raws := make([]any, len(d.columns))
	for i, col := range d.columns {
		if !d.raw || group.Tracks(col.Name) {
			v, err := col.Accessor.Resolve(rec, col.Name)
			if err != nil {
				return nil, err
			}
			raws[i] = v
		}
		group.Update(col.Name, raws[i])
		grand.Update(col.Name, raws[i])
	}

	if d.raw {
		values := rec.Values()
		if len(values) > len(d.columns) {
			values = values[:len(values)-1]
		}
		cells := make([]Cell, len(values))
		for i, v := range values {
			cells[i] = Cell{Value: Stringify(v)}
		}
		return cells, nil
	}

	cells := make([]Cell, 0, len(d.columns)+1)
	if d.numbered {
		cells = append(cells, Cell{Value: strconv.Itoa(no)})
	}
	for i, col := range d.columns {
		var edit *Edit
		if e, ok := d.edits[col.Name]; ok {
			edit = &e
		}
		var format *ColumnFormat
		if f, ok := d.formats[col.Name]; ok {
			format = &f
		}
		display := resolveDisplay(raws[i], rec, edit, format)
		cell := Cell{Value: Stringify(display), Style: Evaluate(display, rec, d.rules[col.Name])}
		if edit != nil {
			cell.Class = edit.Class
		}
		cells = append(cells, cell)
	}
	return cells, nil
}

func (d *driver) totalRow(agg *Aggregates, label string, span, first int, grand bool) TotalRow {
	cells := make([]string, 0, len(d.columns)-first)
	for _, col := range d.columns[first:] {
		if agg.Tracks(col.Name) {
			cells = append(cells, agg.FormatResult(col.Name))
		} else {
			cells = append(cells, "")
		}
	}
	return TotalRow{Label: label, Span: span, Cells: cells, Grand: grand}
}
