package domain

import (
	"fmt"
	"sort"
	"strconv"
)

// Row is one survey response. Pos is its ordinal in the source export and
// never changes, even after other rows are dropped.
type Row struct {
	Pos   int
	cells map[string]Value
}

// NewRow builds a row at the given source position.
func NewRow(pos int, cells map[string]Value) *Row {
	if cells == nil {
		cells = make(map[string]Value)
	}
	return &Row{Pos: pos, cells: cells}
}

// Get returns the cell for col, or null when the row has no such column.
func (r *Row) Get(col string) Value {
	return r.cells[col]
}

// Set stores a cell value.
func (r *Row) Set(col string, v Value) {
	r.cells[col] = v
}

// Key identifies the row by position and submission time.
func (r *Row) Key() string {
	return fmt.Sprintf("%d|%s", r.Pos, r.Get(ColDateCreated).Text())
}

// Table is the fully materialized response table. It is owned by one
// pipeline run and mutated in place by each stage.
type Table struct {
	Columns []string
	Rows    []*Row
}

// missingMarkers are the spreadsheet placeholders for an unavailable answer.
// Matching is exact, so "n/a" and "N/A" are both listed.
var missingMarkers = map[string]bool{
	"":         true,
	"#N/A":     true,
	"#N/A N/A": true,
	"#NA":      true,
	"-1.#IND":  true,
	"-1.#QNAN": true,
	"-NaN":     true,
	"-nan":     true,
	"1.#IND":   true,
	"1.#QNAN":  true,
	"<NA>":     true,
	"N/A":      true,
	"NA":       true,
	"NULL":     true,
	"NaN":      true,
	"None":     true,
	"n/a":      true,
	"nan":      true,
	"null":     true,
}

// IsMissingMarker reports whether a raw cell is a placeholder for no answer.
func IsMissingMarker(s string) bool {
	return missingMarkers[s]
}

// NewTable builds a table from a CSV header and records. Empty cells and
// missing markers ("N/A", "null", ...) are null. Duplicate headers get a ".N"
// suffix so no column is lost.
func NewTable(header []string, records [][]string) *Table {
	cols := dedupeHeader(header)
	t := &Table{Columns: cols, Rows: make([]*Row, 0, len(records))}
	for i, rec := range records {
		cells := make(map[string]Value, len(cols))
		for j, col := range cols {
			if j < len(rec) && !IsMissingMarker(rec[j]) {
				cells[col] = String(rec[j])
			}
		}
		t.Rows = append(t.Rows, NewRow(i, cells))
	}
	return t
}

func dedupeHeader(header []string) []string {
	seen := make(map[string]int, len(header))
	cols := make([]string, len(header))
	for i, h := range header {
		n := seen[h]
		seen[h] = n + 1
		if n == 0 {
			cols[i] = h
			continue
		}
		cols[i] = h + "." + strconv.Itoa(n)
	}
	return cols
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// HasColumn reports whether col is part of the table.
func (t *Table) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Rename applies a from->to header mapping. Keys that are not columns of the
// table are skipped and returned, sorted, so callers can report them.
func (t *Table) Rename(mapping map[string]string) []string {
	present := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		present[c] = true
	}

	var missing []string
	for from := range mapping {
		if !present[from] {
			missing = append(missing, from)
		}
	}
	sort.Strings(missing)

	for i, c := range t.Columns {
		to, ok := mapping[c]
		if !ok || to == c {
			continue
		}
		t.Columns[i] = to
		for _, r := range t.Rows {
			if v, ok := r.cells[c]; ok {
				r.cells[to] = v
				delete(r.cells, c)
			}
		}
	}
	return missing
}

// Apply replaces every cell of col with fn(cell). It returns false, without
// touching any row, when the column does not exist.
func (t *Table) Apply(col string, fn func(Value) Value) bool {
	if !t.HasColumn(col) {
		return false
	}
	for _, r := range t.Rows {
		r.Set(col, fn(r.Get(col)))
	}
	return true
}

// SetColumn computes col for every row, appending it to the header if new.
func (t *Table) SetColumn(col string, fn func(*Row) Value) {
	if !t.HasColumn(col) {
		t.Columns = append(t.Columns, col)
	}
	for _, r := range t.Rows {
		r.Set(col, fn(r))
	}
}

// Filter keeps the rows for which keep returns true, preserving order, and
// returns how many rows were removed.
func (t *Table) Filter(keep func(*Row) bool) int {
	kept := t.Rows[:0]
	for _, r := range t.Rows {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	removed := len(t.Rows) - len(kept)
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return removed
}

// Distinct returns the non-null values of col in first-seen order.
func (t *Table) Distinct(col string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		v := r.Get(col)
		if v.IsNull() {
			continue
		}
		s := v.Text()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Records renders the header and every row as CSV text.
func (t *Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, append([]string(nil), t.Columns...))
	for _, r := range t.Rows {
		rec := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			rec[i] = r.Get(c).Text()
		}
		out = append(out, rec)
	}
	return out
}
