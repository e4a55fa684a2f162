package tabulate

import (
	"fmt"
	"html"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const baseCSS = `body { font-family: Arial, Helvetica, sans-serif; }
.wrapper { margin: 0 -20px 0; padding: 0 15px; }
.middle { text-align: center; }
.title { font-size: 35px; }
.pb-10 { padding-bottom: 10px; }
.pb-5 { padding-bottom: 5px; }
.head-content { padding-bottom: 4px; border-style: none none ridge none; font-size: 18px; }
.meta-key { color: #808080; }
.page-header, .page-footer { display: flex; justify-content: space-between; font-size: 11px; }
thead { display: table-header-group; }
tfoot { display: table-row-group; }
tr { page-break-inside: avoid; }
table.table { font-size: 13px; border-collapse: collapse; }
tr.even { background-color: #eff0f1; }
table .left { text-align: left; }
table .right { text-align: right; }
table .center { text-align: center; }
table .bold { font-weight: 600; }
.bg-black { background-color: #000; }
.f-white { color: #fff; }
`

// htmlSink streams a standalone HTML document. Rows are written as they
// arrive; only the open/closed state of the table body is tracked.
type htmlSink struct {
	w      io.Writer
	err    error
	doc    Document
	inBody bool
	rows   int
	title  cases.Caser
}

func newHTMLSink(w io.Writer) *htmlSink {
	return &htmlSink{w: w, title: cases.Title(language.Und, cases.NoLower)}
}

// printf writes unless an earlier write failed, and reports the first error.
func (s *htmlSink) printf(format string, args ...any) error {
	if s.err == nil {
		_, s.err = fmt.Fprintf(s.w, format, args...)
	}
	return s.err
}

func (s *htmlSink) Begin(doc Document) error {
	s.doc = doc
	s.printf("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"UTF-8\">\n")
	s.printf("<title>%s</title>\n<style>\n%s", html.EscapeString(doc.Title), baseCSS)
	for _, rule := range doc.CSS {
		s.printf("%s { %s }\n", rule.Selector, rule.Style)
	}
	s.printf("</style>\n</head>\n<body>\n")
	s.decoration("page-header", doc.Header)
	s.printf("<div class=\"wrapper\">\n<div class=\"pb-5\">\n")
	s.printf("<div class=\"middle pb-10 title\">%s</div>\n", html.EscapeString(doc.Title))
	if doc.ShowMeta && len(doc.Meta) > 0 {
		s.printf("<div class=\"head-content\">\n<table cellpadding=\"0\" cellspacing=\"0\" width=\"100%%\" border=\"0\">\n")
		for i, kv := range doc.Meta {
			if i%2 == 0 {
				s.printf("<tr>")
			}
			s.printf("<td><span class=\"meta-key\">%s</span>: %s</td>",
				html.EscapeString(kv.Key), html.EscapeString(s.title.String(kv.Value)))
			if i%2 == 1 || i == len(doc.Meta)-1 {
				s.printf("</tr>\n")
			}
		}
		s.printf("</table>\n</div>\n")
	}
	return s.printf("</div>\n<div class=\"content\">\n<table width=\"100%%\" class=\"table\">\n")
}

// decoration writes header or footer content as left, center and right
// blocks. Placeholders the page backend resolves are left in place.
func (s *htmlSink) decoration(class string, content map[Position]string) {
	if len(content) == 0 {
		return
	}
	s.printf("<div class=\"%s\">", class)
	for _, pos := range []Position{Left, Center, Right} {
		s.printf("<span class=\"%s-%s\">%s</span>", class, pos, html.EscapeString(content[pos]))
	}
	s.printf("</div>\n")
}

func (s *htmlSink) WriteHeader(labels []Cell) error {
	s.printf("<thead>\n<tr>\n")
	for _, l := range labels {
		s.printf("<th class=\"%s\">%s</th>\n", html.EscapeString(cellClass(l)), html.EscapeString(l.Value))
	}
	return s.printf("</tr>\n</thead>\n")
}

func (s *htmlSink) openBody() {
	if !s.inBody {
		s.printf("<tbody>\n")
		s.inBody = true
	}
}

func (s *htmlSink) WriteRow(cells []Cell) error {
	s.openBody()
	s.rows++
	if s.rows%2 == 0 {
		s.printf("<tr class=\"even\">\n")
	} else {
		s.printf("<tr>\n")
	}
	for _, c := range cells {
		s.printf("<td class=\"%s\"", html.EscapeString(cellClass(c)))
		if c.Style.Inline != "" {
			s.printf(" style=\"%s\"", html.EscapeString(c.Style.Inline))
		}
		s.printf(">%s</td>\n", html.EscapeString(c.Value))
	}
	return s.printf("</tr>\n")
}

func (s *htmlSink) WriteTotal(row TotalRow) error {
	s.openBody()
	kind := "subtotal"
	if row.Grand {
		kind = "grand-total"
	}
	s.printf("<tr class=\"bg-black f-white %s\">\n", kind)
	if row.Span > 0 {
		s.printf("<td colspan=\"%d\"><b>%s</b></td>\n", row.Span, html.EscapeString(row.Label))
	}
	for _, v := range row.Cells {
		if v == "" {
			s.printf("<td></td>\n")
			continue
		}
		s.printf("<td class=\"right\"><b>%s</b></td>\n", html.EscapeString(v))
	}
	return s.printf("</tr>\n")
}

func (s *htmlSink) Close() error {
	if s.inBody {
		s.printf("</tbody>\n")
	}
	s.printf("</table>\n</div>\n</div>\n")
	s.decoration("page-footer", s.doc.Footer)
	return s.printf("</body>\n</html>\n")
}

// cellClass joins the column class, defaulting to left alignment, with any
// conditional classes.
func cellClass(c Cell) string {
	class := c.Class
	if class == "" {
		class = "left"
	}
	if c.Style.Class != "" {
		class += " " + c.Style.Class
	}
	return strings.TrimSpace(class)
}
