package centers

import "github.com/tidwall/gjson"

// Row is one raw listing row. Backends encode rows either as an array
// of cells (often raw HTML per cell) or as an object; both are folded
// into this tagged form so the parser has a single code path.
type Row struct {
	kind   rowKind
	cells  []string
	fields map[string]string
}

type rowKind int

const (
	positional rowKind = iota
	keyed
)

// RowFromJSON builds a Row from one element of the listing payload.
// Returns ok=false for scalar elements, which carry no usable fields.
func RowFromJSON(r gjson.Result) (Row, bool) {
	switch {
	case r.IsArray():
		var cells []string
		for _, c := range r.Array() {
			cells = append(cells, c.String())
		}
		return Row{kind: positional, cells: cells}, true
	case r.IsObject():
		fields := make(map[string]string)
		r.ForEach(func(k, v gjson.Result) bool {
			fields[k.String()] = v.String()
			return true
		})
		return Row{kind: keyed, fields: fields}, true
	default:
		return Row{}, false
	}
}

// Positional reports whether the row was encoded as a cell array.
func (r Row) Positional() bool { return r.kind == positional }

// Cell returns the i-th cell, or "" when absent. Keyed rows have no cells.
func (r Row) Cell(i int) string {
	if r.kind != positional || i < 0 || i >= len(r.cells) {
		return ""
	}
	return r.cells[i]
}

// LastCell returns the final cell, commonly an actions column.
func (r Row) LastCell() string {
	if r.kind != positional || len(r.cells) == 0 {
		return ""
	}
	return r.cells[len(r.cells)-1]
}

// Field returns the value under the first of keys present in a keyed
// row. Key match is exact and case-sensitive.
func (r Row) Field(keys ...string) string {
	if r.kind != keyed {
		return ""
	}
	for _, k := range keys {
		if v, ok := r.fields[k]; ok && v != "" {
			return v
		}
	}
	return ""
}
