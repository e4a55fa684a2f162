package tabulate

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// BorderStyle controls table border characters.
type BorderStyle int

const (
	BorderRounded BorderStyle = iota // ╭─╮╰╯│┬┴├┤┼
	BorderNone                       // No borders, space-separated columns
	BorderASCII                      // +-+|
	BorderHeavy                      // ┏━┓┗┛┃┳┻┣┫╋
	BorderDouble                     // ╔═╗╚╝║╦╩╠╣╬
)

// Alignment controls column text alignment.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// alignmentOf maps a markup class list to a text alignment.
func alignmentOf(class string) Alignment {
	for _, c := range strings.Fields(class) {
		switch c {
		case "right":
			return AlignRight
		case "center", "middle":
			return AlignCenter
		}
	}
	return AlignLeft
}

type borderChars struct {
	topLeft, topRight, bottomLeft, bottomRight string
	horizontal, vertical                       string
	topTee, bottomTee, leftTee, rightTee       string
	cross                                      string
}

var borderSets = map[BorderStyle]borderChars{
	BorderRounded: {
		topLeft: "╭", topRight: "╮", bottomLeft: "╰", bottomRight: "╯",
		horizontal: "─", vertical: "│",
		topTee: "┬", bottomTee: "┴", leftTee: "├", rightTee: "┤",
		cross: "┼",
	},
	BorderASCII: {
		topLeft: "+", topRight: "+", bottomLeft: "+", bottomRight: "+",
		horizontal: "-", vertical: "|",
		topTee: "+", bottomTee: "+", leftTee: "+", rightTee: "+",
		cross: "+",
	},
	BorderHeavy: {
		topLeft: "┏", topRight: "┓", bottomLeft: "┗", bottomRight: "┛",
		horizontal: "━", vertical: "┃",
		topTee: "┳", bottomTee: "┻", leftTee: "┣", rightTee: "┫",
		cross: "╋",
	},
	BorderDouble: {
		topLeft: "╔", topRight: "╗", bottomLeft: "╚", bottomRight: "╝",
		horizontal: "═", vertical: "║",
		topTee: "╦", bottomTee: "╩", leftTee: "╠", rightTee: "╣",
		cross: "╬",
	},
}

// tableLine is one buffered body line. ruled lines get a separator above.
type tableLine struct {
	cells  []string
	styles []func(string) string
	ruled  bool
}

// tableSink lays out a bordered terminal table. Layout needs every column
// width, so rendered cell strings are buffered until Close.
type tableSink struct {
	w      io.Writer
	doc    Document
	header []string
	aligns []Alignment
	lines  []tableLine
}

func newTableSink(w io.Writer) *tableSink {
	return &tableSink{w: w}
}

func (s *tableSink) Begin(doc Document) error {
	s.doc = doc
	return nil
}

func (s *tableSink) WriteHeader(labels []Cell) error {
	s.header = cellValues(labels)
	s.aligns = make([]Alignment, len(labels))
	for i, l := range labels {
		s.aligns[i] = alignmentOf(l.Class)
	}
	return nil
}

func (s *tableSink) WriteRow(cells []Cell) error {
	line := tableLine{cells: cellValues(cells), styles: make([]func(string) string, len(cells))}
	for i, c := range cells {
		line.styles[i] = ansiStyle(c.Style.Inline)
	}
	s.lines = append(s.lines, line)
	return nil
}

func (s *tableSink) WriteTotal(row TotalRow) error {
	cells := row.Flatten()
	bold := color.New(color.Bold).SprintFunc()
	styles := make([]func(string) string, len(cells))
	for i := range styles {
		styles[i] = func(v string) string { return bold(v) }
	}
	s.lines = append(s.lines, tableLine{cells: cells, styles: styles, ruled: true})
	return nil
}

func (s *tableSink) Close() error {
	if s.doc.ShowMeta {
		for _, kv := range s.doc.Meta {
			if _, err := fmt.Fprintf(s.w, "%s: %s\n", kv.Key, kv.Value); err != nil {
				return err
			}
		}
	}
	rows := make([][]string, len(s.lines))
	for i, l := range s.lines {
		rows[i] = l.cells
	}
	numCols := colCount(s.header, rows)
	if numCols == 0 {
		return nil
	}
	widths := computeWidths(numCols, s.header, rows)
	aligns := extendAligns(s.aligns, numCols)
	if s.doc.Border == BorderNone {
		return s.renderPlain(widths, aligns)
	}
	return s.renderBordered(widths, aligns)
}

func colCount(header []string, rows [][]string) int {
	n := len(header)
	for _, row := range rows {
		if len(row) > n {
			n = len(row)
		}
	}
	return n
}

func computeWidths(numCols int, header []string, rows [][]string) []int {
	widths := make([]int, numCols)
	for i, h := range header {
		if w := runewidth.StringWidth(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); i < numCols && w > widths[i] {
				widths[i] = w
			}
		}
	}
	return widths
}

func extendAligns(aligns []Alignment, numCols int) []Alignment {
	if len(aligns) >= numCols {
		return aligns[:numCols]
	}
	extended := make([]Alignment, numCols)
	copy(extended, aligns)
	return extended
}

func (s *tableSink) renderPlain(widths []int, aligns []Alignment) error {
	if s.doc.Title != "" {
		if _, err := fmt.Fprintln(s.w, s.doc.Title); err != nil {
			return err
		}
	}
	if len(s.header) > 0 {
		if err := writePlainRow(s.w, s.header, nil, widths, aligns); err != nil {
			return err
		}
		if err := writePlainSep(s.w, widths); err != nil {
			return err
		}
	}
	for _, l := range s.lines {
		if l.ruled {
			if err := writePlainSep(s.w, widths); err != nil {
				return err
			}
		}
		if err := writePlainRow(s.w, l.cells, l.styles, widths, aligns); err != nil {
			return err
		}
	}
	return nil
}

func writePlainSep(w io.Writer, widths []int) error {
	sep := make([]string, len(widths))
	for i, width := range widths {
		sep[i] = strings.Repeat("-", width)
	}
	_, err := fmt.Fprintln(w, strings.Join(sep, "  "))
	return err
}

func writePlainRow(w io.Writer, cells []string, styles []func(string) string, widths []int, aligns []Alignment) error {
	parts := make([]string, len(widths))
	for i, width := range widths {
		parts[i] = styledCell(cells, styles, i, width, aligns[i])
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	return err
}

func (s *tableSink) renderBordered(widths []int, aligns []Alignment) error {
	bc, ok := borderSets[s.doc.Border]
	if !ok {
		bc = borderSets[BorderRounded]
	}
	w := s.w

	if s.doc.Title != "" {
		if err := drawHLine(w, widths, bc.topLeft, bc.horizontal, bc.horizontal, bc.topRight); err != nil {
			return err
		}
		inner := tableInnerWidth(widths) - 2
		padded := alignCell(runewidth.Truncate(s.doc.Title, inner, "..."), inner, AlignCenter)
		if _, err := fmt.Fprintf(w, "%s %s %s\n", bc.vertical, padded, bc.vertical); err != nil {
			return err
		}
		if err := drawHLine(w, widths, bc.leftTee, bc.horizontal, bc.topTee, bc.rightTee); err != nil {
			return err
		}
	} else if err := drawHLine(w, widths, bc.topLeft, bc.horizontal, bc.topTee, bc.topRight); err != nil {
		return err
	}

	if len(s.header) > 0 {
		if err := drawBorderedRow(w, s.header, nil, widths, aligns, bc.vertical); err != nil {
			return err
		}
		if err := drawHLine(w, widths, bc.leftTee, bc.horizontal, bc.cross, bc.rightTee); err != nil {
			return err
		}
	}

	for _, l := range s.lines {
		if l.ruled {
			if err := drawHLine(w, widths, bc.leftTee, bc.horizontal, bc.cross, bc.rightTee); err != nil {
				return err
			}
		}
		if err := drawBorderedRow(w, l.cells, l.styles, widths, aligns, bc.vertical); err != nil {
			return err
		}
	}

	return drawHLine(w, widths, bc.bottomLeft, bc.horizontal, bc.bottomTee, bc.bottomRight)
}

// tableInnerWidth returns the width between the outer vertical borders. Each
// cell contributes its width plus one space of padding per side, and cells
// are separated by a single border character.
func tableInnerWidth(widths []int) int {
	n := 0
	for _, w := range widths {
		n += w + 2
	}
	if len(widths) > 1 {
		n += len(widths) - 1
	}
	return n
}

func drawHLine(w io.Writer, widths []int, left, fill, mid, right string) error {
	var sb strings.Builder
	sb.WriteString(left)
	for i, width := range widths {
		sb.WriteString(strings.Repeat(fill, width+2))
		if i < len(widths)-1 {
			sb.WriteString(mid)
		}
	}
	sb.WriteString(right)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

func drawBorderedRow(w io.Writer, cells []string, styles []func(string) string, widths []int, aligns []Alignment, vert string) error {
	var sb strings.Builder
	sb.WriteString(vert)
	for i, width := range widths {
		sb.WriteString(" ")
		sb.WriteString(styledCell(cells, styles, i, width, aligns[i]))
		sb.WriteString(" ")
		if i < len(widths)-1 {
			sb.WriteString(vert)
		}
	}
	sb.WriteString(vert)
	_, err := fmt.Fprintln(w, sb.String())
	return err
}

// styledCell pads cell i and only then applies its style, so escape codes
// never count toward the column width.
func styledCell(cells []string, styles []func(string) string, i, width int, align Alignment) string {
	cell := ""
	if i < len(cells) {
		cell = cells[i]
	}
	out := alignCell(cell, width, align)
	if i < len(styles) && styles[i] != nil && cell != "" {
		out = styles[i](out)
	}
	return out
}

func alignCell(s string, width int, align Alignment) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return s
	}
	switch align {
	case AlignRight:
		return strings.Repeat(" ", pad) + s
	case AlignCenter:
		left := pad / 2
		right := pad - left
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", right)
	default:
		return s + strings.Repeat(" ", pad)
	}
}

var namedColors = map[string][2]color.Attribute{
	"black":   {color.FgBlack, color.BgBlack},
	"red":     {color.FgRed, color.BgRed},
	"green":   {color.FgGreen, color.BgGreen},
	"yellow":  {color.FgYellow, color.BgYellow},
	"blue":    {color.FgBlue, color.BgBlue},
	"magenta": {color.FgMagenta, color.BgMagenta},
	"cyan":    {color.FgCyan, color.BgCyan},
	"white":   {color.FgWhite, color.BgWhite},
}

// ansiStyle translates inline declarations into a terminal style. Only
// color, background-color and a bold font-weight are understood; anything
// else is ignored. It returns nil when nothing applies.
func ansiStyle(inline string) func(string) string {
	if inline == "" {
		return nil
	}
	c := color.New()
	applied := false
	for _, decl := range strings.Split(inline, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.ToLower(strings.TrimSpace(value))
		switch prop {
		case "color", "background-color":
			bg := prop == "background-color"
			if attrs, ok := namedColors[value]; ok {
				if bg {
					c.Add(attrs[1])
				} else {
					c.Add(attrs[0])
				}
				applied = true
			} else if r, g, b, ok := hexColor(value); ok {
				if bg {
					c.AddBgRGB(r, g, b)
				} else {
					c.AddRGB(r, g, b)
				}
				applied = true
			}
		case "font-weight":
			if value == "bold" || value == "bolder" || value == "600" || value == "700" || value == "800" || value == "900" {
				c.Add(color.Bold)
				applied = true
			}
		}
	}
	if !applied {
		return nil
	}
	sprint := c.SprintFunc()
	return func(v string) string { return sprint(v) }
}

// hexColor parses #rgb and #rrggbb.
func hexColor(v string) (r, g, b int, ok bool) {
	hex, found := strings.CutPrefix(v, "#")
	if !found {
		return 0, 0, 0, false
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return 0, 0, 0, false
	}
	return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
}
