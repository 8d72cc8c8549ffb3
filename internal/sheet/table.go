package sheet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a fetch produced no rows at all.
var ErrNoData = errors.New("no data found in sheet")

// Header maps column names to their position in the header row.
type Header struct {
	names   []string
	indexes map[string]int
}

// NewHeader builds a Header from the first spreadsheet row. When two columns
// share a name the rightmost one wins.
func NewHeader(names []string) *Header {
	h := &Header{
		names:   make([]string, len(names)),
		indexes: make(map[string]int, len(names)),
	}
	for i, name := range names {
		h.names[i] = name
		h.indexes[name] = i
	}
	return h
}

// Index returns the column position for name.
func (h *Header) Index(name string) (int, bool) {
	if h == nil {
		return 0, false
	}
	i, ok := h.indexes[name]
	return i, ok
}

// Names returns a copy of the header cells in column order.
func (h *Header) Names() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of header columns.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.names)
}

// RawRow is one data row. Cells can be shorter than the header.
type RawRow struct {
	header *Header
	cells  []string
}

// NewRawRow pairs cells with a header.
func NewRawRow(header *Header, cells []string) RawRow {
	return RawRow{header: header, cells: cells}
}

// ByHeader returns the cell under the named column, or "" when the column or
// the cell does not exist.
func (r RawRow) ByHeader(name string) string {
	i, ok := r.header.Index(name)
	if !ok {
		return ""
	}
	v, _ := r.ByPosition(i)
	return v
}

// FirstHeader returns the first non-empty cell among the named columns.
func (r RawRow) FirstHeader(names ...string) string {
	for _, name := range names {
		if v := r.ByHeader(name); v != "" {
			return v
		}
	}
	return ""
}

// ByPosition returns the cell at column i. The bool is false when the row
// is too short.
func (r RawRow) ByPosition(i int) (string, bool) {
	if i < 0 || i >= len(r.cells) {
		return "", false
	}
	return r.cells[i], true
}

// Len returns the number of cells present in the row.
func (r RawRow) Len() int {
	return len(r.cells)
}

// Cells returns a copy of the row cells.
func (r RawRow) Cells() []string {
	out := make([]string, len(r.cells))
	copy(out, r.cells)
	return out
}

// Table is a header plus its data rows in sheet order.
type Table struct {
	Header *Header
	Rows   []RawRow
}

// NewTable builds a table from string rows. The first row is the header.
func NewTable(rows [][]string) (*Table, error) {
	if len(rows) == 0 {
		return nil, ErrNoData
	}
	header := NewHeader(rows[0])
	t := &Table{
		Header: header,
		Rows:   make([]RawRow, 0, len(rows)-1),
	}
	for _, cells := range rows[1:] {
		t.Rows = append(t.Rows, NewRawRow(header, cells))
	}
	return t, nil
}

// FromValues builds a table from the value matrix returned by the Sheets API.
// Non-string cells are formatted with fmt.Sprint.
func FromValues(values [][]interface{}) (*Table, error) {
	if len(values) == 0 {
		return nil, ErrNoData
	}
	rows := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return NewTable(rows)
}

// Matrix returns the table as string rows, header first. It is the inverse of
// NewTable and is used to persist snapshots.
func (t *Table) Matrix() [][]string {
	if t == nil {
		return nil
	}
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header.Names())
	for _, row := range t.Rows {
		out = append(out, row.Cells())
	}
	return out
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
