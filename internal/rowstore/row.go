package rowstore

import (
	"fmt"
	"time"
)

// Row is a stable handle to one stored row. It stays the same object for the
// row's whole life in the table, whatever order the row is displayed in.
type Row struct {
	table *Table
	cells []any
}

// Table returns the owning table, or nil once the row was removed.
func (r *Row) Table() *Table { return r.table }

// Index returns the current storage index, or -1 once removed.
func (r *Row) Index() int {
	if r.table == nil {
		return -1
	}
	return r.table.IndexOf(r)
}

// Get returns the named cell, or nil.
func (r *Row) Get(name string) any {
	if r.table == nil {
		return nil
	}
	c := r.table.ColumnIndex(name)
	if c < 0 || c >= len(r.cells) {
		return nil
	}
	return r.cells[c]
}

// Set writes the named cell through the table so listeners see the change.
func (r *Row) Set(name string, v any) error {
	if r.table == nil {
		return ErrDetachedRow
	}
	c := r.table.ColumnIndex(name)
	if c < 0 {
		return fmt.Errorf("set %s.%s: %w", r.table.name, name, ErrNoSuchColumn)
	}
	i := r.Index()
	if i < 0 {
		return ErrDetachedRow
	}
	return r.table.SetValue(i, c, v)
}

func (r *Row) String(name string) string {
	s, _ := r.Get(name).(string)
	return s
}

func (r *Row) Float(name string) float64 {
	f, _ := r.Get(name).(float64)
	return f
}

func (r *Row) Time(name string) time.Time {
	t, _ := r.Get(name).(time.Time)
	return t
}

// Values returns a copy of the cells keyed by column name.
func (r *Row) Values() map[string]any {
	out := map[string]any{}
	if r.table == nil {
		return out
	}
	for i, c := range r.table.cols {
		if i < len(r.cells) {
			out[c.Name] = r.cells[i]
		}
	}
	return out
}

// Empty reports whether every cell is unset.
func (r *Row) Empty() bool {
	for _, v := range r.cells {
		if v != nil {
			return false
		}
	}
	return true
}
