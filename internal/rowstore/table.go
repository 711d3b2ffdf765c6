// Package rowstore is the row/column data source behind bound widgets.
//
// Rows keep their storage position for as long as they exist; sort and filter
// orderings live in wrapper layers on top (see internal/index).
package rowstore

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrNoSuchColumn  = errors.New("no such column")
	ErrRowOutOfRange = errors.New("row out of range")
	ErrTypeMismatch  = errors.New("value does not match column type")
	ErrDetachedRow   = errors.New("row is no longer in a table")
)

type ColumnType string

const (
	TypeString ColumnType = "string"
	TypeFloat  ColumnType = "float"
	TypeInt    ColumnType = "int"
	TypeTime   ColumnType = "time"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// accepts reports whether v may be stored in a column of type t. nil clears a cell.
func (t ColumnType) accepts(v any) bool {
	if v == nil {
		return true
	}
	switch t {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeFloat:
		f, ok := v.(float64)
		return ok && !math.IsNaN(f) && !math.IsInf(f, 0)
	case TypeInt:
		_, ok := v.(int)
		return ok
	case TypeTime:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

type EventKind int

const (
	RowsInserted EventKind = iota
	RowsRemoved
	ValueChanged
	StructureChanged
)

func (k EventKind) String() string {
	switch k {
	case RowsInserted:
		return "rows-inserted"
	case RowsRemoved:
		return "rows-removed"
	case ValueChanged:
		return "value-changed"
	case StructureChanged:
		return "structure-changed"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event describes one change. Row and Column are -1 when not applicable.
type Event struct {
	Kind   EventKind
	Row    int
	Column int
	Old    any
	New    any
}

type listener struct {
	id int
	fn func(Event)
}

// Table is an ordered, mutable collection of rows. It is not safe for
// concurrent use; bound widgets touch it only from the UI loop.
type Table struct {
	name string
	cols []Column
	rows []*Row

	// loaded is the number of rows available to readers, or -1 for all.
	loaded int

	listeners []listener
	nextID    int
	version   uint64
}

func NewTable(name string, cols ...Column) *Table {
	return &Table{name: name, cols: append([]Column(nil), cols...), loaded: -1}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []Column { return append([]Column(nil), t.cols...) }

func (t *Table) ColumnCount() int { return len(t.cols) }

func (t *Table) RowCount() int { return len(t.rows) }

// Version changes on every mutation.
func (t *Table) Version() uint64 { return t.version }

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.cols {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// AddColumn appends a column; existing rows get an empty cell.
func (t *Table) AddColumn(c Column) error {
	if t.ColumnIndex(c.Name) >= 0 {
		return fmt.Errorf("add column %q: already exists", c.Name)
	}
	t.cols = append(t.cols, c)
	for _, r := range t.rows {
		r.cells = append(r.cells, nil)
	}
	t.fire(Event{Kind: StructureChanged, Row: -1, Column: len(t.cols) - 1})
	return nil
}

func (t *Table) Row(i int) *Row {
	if i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i]
}

// IndexOf returns r's storage index, or -1 when r is not in t.
func (t *Table) IndexOf(r *Row) int {
	if r == nil || r.table != t {
		return -1
	}
	for i, x := range t.rows {
		if x == r {
			return i
		}
	}
	return -1
}

// Value returns a cell, or nil when the row or column does not exist.
func (t *Table) Value(row, col int) any {
	if row < 0 || row >= len(t.rows) || col < 0 || col >= len(t.cols) {
		return nil
	}
	return t.rows[row].cells[col]
}

func (t *Table) SetValue(row, col int, v any) error {
	if row < 0 || row >= len(t.rows) {
		return fmt.Errorf("set %s[%d]: %w", t.name, row, ErrRowOutOfRange)
	}
	if col < 0 || col >= len(t.cols) {
		return fmt.Errorf("set %s[%d] column %d: %w", t.name, row, col, ErrNoSuchColumn)
	}
	c := t.cols[col]
	if !c.Type.accepts(v) {
		return fmt.Errorf("set %s[%d].%s = %T: %w", t.name, row, c.Name, v, ErrTypeMismatch)
	}
	r := t.rows[row]
	old := r.cells[col]
	if cellEqual(old, v) {
		return nil
	}
	r.cells[col] = v
	t.fire(Event{Kind: ValueChanged, Row: row, Column: col, Old: old, New: v})
	return nil
}

// AddRow appends an empty row and returns it.
func (t *Table) AddRow() *Row {
	r := &Row{table: t, cells: make([]any, len(t.cols))}
	t.rows = append(t.rows, r)
	if t.loaded >= 0 && t.loaded == len(t.rows)-1 {
		t.loaded++
	}
	t.fire(Event{Kind: RowsInserted, Row: len(t.rows) - 1, Column: -1})
	return r
}

// RemoveRow deletes the row at i. Storage indices above i shift down by one;
// the removed *Row is detached and rejects further writes.
func (t *Table) RemoveRow(i int) error {
	if i < 0 || i >= len(t.rows) {
		return fmt.Errorf("remove %s[%d]: %w", t.name, i, ErrRowOutOfRange)
	}
	r := t.rows[i]
	t.rows = append(t.rows[:i], t.rows[i+1:]...)
	r.table = nil
	if t.loaded > i {
		t.loaded--
	}
	t.fire(Event{Kind: RowsRemoved, Row: i, Column: -1})
	return nil
}

// SetLoaded marks only the first n rows as available to readers; rows past
// that are still being fetched. n < 0 marks everything loaded.
func (t *Table) SetLoaded(n int) {
	if n > len(t.rows) {
		n = len(t.rows)
	}
	t.loaded = n
	t.fire(Event{Kind: StructureChanged, Row: -1, Column: -1})
}

// Loaded reports whether row i is available to readers.
func (t *Table) Loaded(i int) bool {
	if i < 0 || i >= len(t.rows) {
		return false
	}
	return t.loaded < 0 || i < t.loaded
}

// Listen registers fn for change events and returns a func removing it.
func (t *Table) Listen(fn func(Event)) func() {
	t.nextID++
	id := t.nextID
	t.listeners = append(t.listeners, listener{id: id, fn: fn})
	return func() {
		for i, l := range t.listeners {
			if l.id == id {
				t.listeners = append(t.listeners[:i], t.listeners[i+1:]...)
				return
			}
		}
	}
}

func (t *Table) fire(ev Event) {
	t.version++
	for _, l := range append([]listener(nil), t.listeners...) {
		l.fn(ev)
	}
}

func cellEqual(a, b any) bool {
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return a == b
}
