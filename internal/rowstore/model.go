package rowstore

import "rowbind/internal/index"

// Model exposes a Table as the innermost layer of a wrapper chain. Its row
// indices are storage indices, so it declares stable identity, and it projects
// rows as *Row for template bindings.
type Model struct {
	T *Table
}

var (
	_ index.Cells          = Model{}
	_ index.StableIdentity = Model{}
	_ index.Versioned      = Model{}
)

func NewModel(t *Table) Model { return Model{T: t} }

func (m Model) RowCount() int           { return m.T.RowCount() }
func (m Model) ColumnCount() int        { return m.T.ColumnCount() }
func (m Model) Value(row, col int) any  { return m.T.Value(row, col) }
func (m Model) HasStableIdentity() bool { return true }
func (m Model) Version() uint64         { return m.T.Version() }

// RowValue returns the row at storage index i. Rows that are not loaded yet
// report false.
func (m Model) RowValue(i int) (*Row, bool) {
	if !m.T.Loaded(i) {
		return nil, false
	}
	return m.T.Row(i), true
}
