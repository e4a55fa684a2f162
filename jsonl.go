package tabulate

import (
	"encoding/json"
	"io"
	"strconv"
)

// jsonlLine is one JSON-lines record. Kind is "meta", "row", "subtotal" or
// "total"; rows carry Values keyed by header label.
type jsonlLine struct {
	Kind   string            `json:"kind"`
	Title  string            `json:"title,omitempty"`
	Meta   map[string]string `json:"meta,omitempty"`
	Values map[string]string `json:"values,omitempty"`
	Label  string            `json:"label,omitempty"`
}

// jsonlSink writes one JSON object per line. Rows are keyed by the header
// labels; when the header is disabled, positional keys "1", "2", ... are used.
type jsonlSink struct {
	enc    *json.Encoder
	labels []string
}

func newJSONLSink(w io.Writer) *jsonlSink {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &jsonlSink{enc: enc}
}

func (s *jsonlSink) Begin(doc Document) error {
	if !doc.ShowMeta {
		return nil
	}
	meta := make(map[string]string, len(doc.Meta))
	for _, kv := range doc.Meta {
		meta[kv.Key] = kv.Value
	}
	return s.enc.Encode(jsonlLine{Kind: "meta", Title: doc.Title, Meta: meta})
}

func (s *jsonlSink) WriteHeader(labels []Cell) error {
	s.labels = cellValues(labels)
	return nil
}

// keyed maps values onto header labels, starting at column offset.
func (s *jsonlSink) keyed(offset int, values []string) map[string]string {
	out := make(map[string]string, len(values))
	for i, v := range values {
		key := ""
		if i+offset < len(s.labels) {
			key = s.labels[i+offset]
		}
		if key == "" {
			key = strconv.Itoa(i + offset + 1)
		}
		out[key] = v
	}
	return out
}

func (s *jsonlSink) WriteRow(cells []Cell) error {
	return s.enc.Encode(jsonlLine{Kind: "row", Values: s.keyed(0, cellValues(cells))})
}

func (s *jsonlSink) WriteTotal(row TotalRow) error {
	kind := "subtotal"
	if row.Grand {
		kind = "total"
	}
	values := s.keyed(row.Span, row.Cells)
	for k, v := range values {
		if v == "" {
			delete(values, k)
		}
	}
	return s.enc.Encode(jsonlLine{Kind: kind, Label: row.Label, Values: values})
}

func (s *jsonlSink) Close() error { return nil }
