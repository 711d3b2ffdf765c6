package index

// AllColumns makes a FilterLayer match the query against every column.
const AllColumns = -1

// FilterLayer hides child rows whose text does not match a query.
type FilterLayer struct {
	child Cells

	col   int
	query string
	mode  SearchMode

	visible   []int // view -> child row
	fromChild []int // child row -> view or NoRow

	builtFor uint64
	builtN   int
	built    bool
	gen      uint64
}

func NewFilterLayer(child Cells) *FilterLayer {
	return &FilterLayer{child: child, col: AllColumns}
}

func (f *FilterLayer) Child() Layer { return f.child }

func (f *FilterLayer) RowCount() int {
	f.ensure()
	return len(f.visible)
}

func (f *FilterLayer) ColumnCount() int { return f.child.ColumnCount() }

func (f *FilterLayer) Value(row, col int) any {
	r := f.ToChild(row)
	if r == NoRow {
		return nil
	}
	return f.child.Value(r, col)
}

func (f *FilterLayer) Version() uint64 { return childVersion(f.child) + f.gen }

// Query reports the active filter.
func (f *FilterLayer) Query() (query string, col int, mode SearchMode) {
	return f.query, f.col, f.mode
}

// SetQuery changes the filter; an empty query shows every row.
func (f *FilterLayer) SetQuery(query string, col int, mode SearchMode) {
	if f.query == query && f.col == col && f.mode == mode {
		return
	}
	f.query, f.col, f.mode = query, col, mode
	f.built = false
	f.gen++
}

func (f *FilterLayer) ToChild(i int) int {
	f.ensure()
	if i < 0 || i >= len(f.visible) {
		return NoRow
	}
	return f.visible[i]
}

func (f *FilterLayer) FromChild(i int) int {
	f.ensure()
	if i < 0 || i >= len(f.fromChild) {
		return NoRow
	}
	return f.fromChild[i]
}

func (f *FilterLayer) matches(row int) bool {
	if f.query == "" {
		return true
	}
	if f.col != AllColumns {
		return f.mode.Match(FormatValue(f.child.Value(row, f.col)), f.query)
	}
	for c := 0; c < f.child.ColumnCount(); c++ {
		if f.mode.Match(FormatValue(f.child.Value(row, c)), f.query) {
			return true
		}
	}
	return false
}

func (f *FilterLayer) ensure() {
	n := f.child.RowCount()
	v := childVersion(f.child)
	if f.built && f.builtN == n && f.builtFor == v {
		return
	}
	visible := make([]int, 0, n)
	from := make([]int, n)
	for row := 0; row < n; row++ {
		if f.matches(row) {
			from[row] = len(visible)
			visible = append(visible, row)
		} else {
			from[row] = NoRow
		}
	}
	f.visible, f.fromChild = visible, from
	f.builtFor, f.builtN, f.built = v, n, true
}
