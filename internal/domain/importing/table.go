package importing

import "github.com/mohammadpnp/asset-import/internal/domain/attribute"

// Table is an in-memory tabular file: ordered headers and rows whose cells are
// aligned with those headers. Missing or blank cells are null values.
type Table struct {
	Headers []string
	Rows    []Row
}

type Row struct {
	headers []string
	values  []attribute.Value
}

func NewRow(headers []string, values []attribute.Value) Row {
	aligned := make([]attribute.Value, len(headers))
	copy(aligned, values)
	return Row{headers: headers, values: aligned}
}

func (r Row) Get(header string) attribute.Value {
	for i, h := range r.headers {
		if h == header {
			return r.values[i]
		}
	}
	return attribute.Null()
}

// Each visits cells in header order, including null ones.
func (r Row) Each(fn func(header string, v attribute.Value)) {
	for i, h := range r.headers {
		fn(h, r.values[i])
	}
}

func (r Row) Record() map[string]any {
	out := make(map[string]any, len(r.headers))
	for i, h := range r.headers {
		out[h] = r.values[i].Any()
	}
	return out
}

func (t Table) Len() int { return len(t.Rows) }

// Distinct returns the distinct non-null textual values of a column in first
// seen order.
func (t Table) Distinct(header string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0)
	for _, row := range t.Rows {
		v := row.Get(header)
		if v.IsNull() {
			continue
		}
		text := v.Text()
		if _, ok := seen[text]; ok {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

func (t Table) Preview(n int) []map[string]any {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	out := make([]map[string]any, 0, n)
	for _, row := range t.Rows[:n] {
		out = append(out, row.Record())
	}
	return out
}
