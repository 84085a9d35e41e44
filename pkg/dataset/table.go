package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownColumn is returned when an operation names a column the table
	// does not have.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateColumn is returned when a table would end up with two
	// columns of the same name.
	ErrDuplicateColumn = errors.New("duplicate column")
	// ErrShape is returned when row or mask lengths disagree with the table.
	ErrShape = errors.New("shape mismatch")
)

// Table is an immutable, column-major long-format table.
//
// Column slices may be shared between tables derived from one another. No
// method writes into an existing column slice, so sharing is safe.
type Table struct {
	columns []string
	index   map[string]int
	data    [][]Cell
	rows    int
}

// New builds a table from row-major cells. Every row must have one cell per
// column.
func New(columns []string, rows [][]Cell) (*Table, error) {
	index, err := indexColumns(columns)
	if err != nil {
		return nil, err
	}
	data := make([][]Cell, len(columns))
	for c := range data {
		data[c] = make([]Cell, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrShape, r, len(row), len(columns))
		}
		for c, cell := range row {
			data[c][r] = cell
		}
	}
	return &Table{
		columns: append([]string(nil), columns...),
		index:   index,
		data:    data,
		rows:    len(rows),
	}, nil
}

// FromStrings builds a table whose cells are all Text.
func FromStrings(columns []string, rows [][]string) (*Table, error) {
	cells := make([][]Cell, len(rows))
	for r, row := range rows {
		cells[r] = make([]Cell, len(row))
		for c, s := range row {
			cells[r][c] = Text(s)
		}
	}
	return New(columns, cells)
}

// Empty returns a table with the given columns and no rows.
func Empty(columns []string) (*Table, error) {
	return New(columns, nil)
}

func indexColumns(columns []string) (map[string]int, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		index[name] = i
	}
	return index, nil
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// HasColumn reports whether the table has a column called name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Values returns a copy of the named column.
func (t *Table) Values(name string) ([]Cell, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	out := make([]Cell, len(t.data[c]))
	copy(out, t.data[c])
	return out, nil
}

// Cell returns the value at row r of the named column.
func (t *Table) Cell(r int, name string) (Cell, error) {
	c, ok := t.index[name]
	if !ok {
		return Cell{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	if r < 0 || r >= t.rows {
		return Cell{}, fmt.Errorf("%w: row %d out of range [0,%d)", ErrShape, r, t.rows)
	}
	return t.data[c][r], nil
}

// Groups returns, for each distinct text value of the named column, the row
// indices holding it in ascending order. Null cells belong to no group.
func (t *Table) Groups(name string) (map[string][]int, error) {
	c, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	groups := make(map[string][]int)
	for r, cell := range t.data[c] {
		if cell.IsNull() {
			continue
		}
		key := cell.String()
		groups[key] = append(groups[key], r)
	}
	return groups, nil
}

// Row returns a copy of row r in column order.
func (t *Table) Row(r int) []Cell {
	row := make([]Cell, len(t.columns))
	for c := range t.columns {
		row[c] = t.data[c][r]
	}
	return row
}

// Drop returns a table without the rows where mask is true. Surviving rows
// keep their relative order.
func (t *Table) Drop(mask Mask) (*Table, error) {
	if len(mask) != t.rows {
		return nil, fmt.Errorf("%w: mask has %d entries, table has %d rows", ErrShape, len(mask), t.rows)
	}
	if !mask.Any() {
		return t, nil
	}
	keep := t.rows - mask.Count()
	data := make([][]Cell, len(t.columns))
	for c, col := range t.data {
		out := make([]Cell, 0, keep)
		for r, cell := range col {
			if !mask[r] {
				out = append(out, cell)
			}
		}
		data[c] = out
	}
	return &Table{columns: t.columns, index: t.index, data: data, rows: keep}, nil
}

// WithColumn returns a table whose column name holds values. An existing
// column is replaced in place. A new column is appended.
func (t *Table) WithColumn(name string, values []Cell) (*Table, error) {
	if len(values) != t.rows {
		return nil, fmt.Errorf("%w: column %q has %d values, table has %d rows", ErrShape, name, len(values), t.rows)
	}
	col := make([]Cell, len(values))
	copy(col, values)
	data := append([][]Cell(nil), t.data...)
	if c, ok := t.index[name]; ok {
		data[c] = col
		return &Table{columns: t.columns, index: t.index, data: data, rows: t.rows}, nil
	}
	columns := append(append([]string(nil), t.columns...), name)
	index := make(map[string]int, len(columns))
	for i, n := range columns {
		index[n] = i
	}
	return &Table{columns: columns, index: index, data: append(data, col), rows: t.rows}, nil
}

// Select returns a table with only the named columns, in the order given.
func (t *Table) Select(names []string) (*Table, error) {
	index, err := indexColumns(names)
	if err != nil {
		return nil, err
	}
	data := make([][]Cell, len(names))
	for i, name := range names {
		c, ok := t.index[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
		}
		data[i] = t.data[c]
	}
	return &Table{columns: append([]string(nil), names...), index: index, data: data, rows: t.rows}, nil
}

// Rename returns a table whose columns are renamed according to mapping.
// Columns missing from mapping keep their name and column order is unchanged.
func (t *Table) Rename(mapping map[string]string) (*Table, error) {
	columns := make([]string, len(t.columns))
	for i, name := range t.columns {
		if to, ok := mapping[name]; ok {
			columns[i] = to
		} else {
			columns[i] = name
		}
	}
	index, err := indexColumns(columns)
	if err != nil {
		return nil, err
	}
	return &Table{columns: columns, index: index, data: t.data, rows: t.rows}, nil
}

// Equal reports whether two tables have the same columns and cells.
func (t *Table) Equal(o *Table) bool {
	if t.rows != o.rows || len(t.columns) != len(o.columns) {
		return false
	}
	for c, name := range t.columns {
		if o.columns[c] != name {
			return false
		}
		for r := range t.data[c] {
			if !t.data[c][r].Equal(o.data[c][r]) {
				return false
			}
		}
	}
	return true
}
