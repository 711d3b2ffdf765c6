package index

import "sort"

// SortLayer presents its child's rows ordered by one column. Ties keep the
// child's order.
type SortLayer struct {
	child Cells

	col  int
	desc bool

	// toChild[view] = child row; fromChild[child row] = view.
	toChild   []int
	fromChild []int

	builtFor uint64
	builtN   int
	built    bool
	gen      uint64
}

// NewSortLayer wraps child. col < 0 leaves the child's order untouched.
func NewSortLayer(child Cells, col int, desc bool) *SortLayer {
	return &SortLayer{child: child, col: col, desc: desc}
}

func (s *SortLayer) Child() Layer { return s.child }

func (s *SortLayer) RowCount() int { return s.child.RowCount() }

func (s *SortLayer) ColumnCount() int { return s.child.ColumnCount() }

func (s *SortLayer) Value(row, col int) any {
	r := s.ToChild(row)
	if r == NoRow {
		return nil
	}
	return s.child.Value(r, col)
}

func (s *SortLayer) Version() uint64 { return childVersion(s.child) + s.gen }

// SortColumn reports the column and direction in effect.
func (s *SortLayer) SortColumn() (col int, desc bool) { return s.col, s.desc }

// SetSort changes the sort key. col < 0 disables sorting.
func (s *SortLayer) SetSort(col int, desc bool) {
	if s.col == col && s.desc == desc {
		return
	}
	s.col, s.desc = col, desc
	s.built = false
	s.gen++
}

func (s *SortLayer) ToChild(i int) int {
	s.ensure()
	if i < 0 || i >= len(s.toChild) {
		return NoRow
	}
	return s.toChild[i]
}

func (s *SortLayer) FromChild(i int) int {
	s.ensure()
	if i < 0 || i >= len(s.fromChild) {
		return NoRow
	}
	return s.fromChild[i]
}

func (s *SortLayer) ensure() {
	n := s.child.RowCount()
	v := childVersion(s.child)
	if s.built && s.builtN == n && s.builtFor == v {
		return
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	if s.col >= 0 && s.col < s.child.ColumnCount() {
		sort.SliceStable(perm, func(a, b int) bool {
			c := CompareValues(s.child.Value(perm[a], s.col), s.child.Value(perm[b], s.col))
			if s.desc {
				return c > 0
			}
			return c < 0
		})
	}
	inv := make([]int, n)
	for view, row := range perm {
		inv[row] = view
	}
	s.toChild, s.fromChild = perm, inv
	s.builtFor, s.builtN, s.built = v, n, true
}

func childVersion(l Layer) uint64 {
	if v, ok := l.(Versioned); ok {
		return v.Version()
	}
	return 0
}
