// Package index translates row positions between what a widget displays and
// the stable storage order of the row store underneath it.
//
// A widget's model is a chain of layers. The outermost layer is what the widget
// paints; each wrapping layer (sort, filter, ...) reorders or hides the rows of
// its child. The chain ends at a layer that exposes stable identity, normally
// the row store itself.
package index

// NoRow is the "no row" sentinel for both view and storage indices.
const NoRow = -1

// maxDepth bounds chain walks so that a cyclic Child() never hangs a paint.
const maxDepth = 64

// Layer is one model in a wrapper chain.
type Layer interface {
	RowCount() int
}

// Wrapper is a layer that sits on top of another layer.
type Wrapper interface {
	Layer
	Child() Layer
}

// StableIdentity is implemented by layers whose row indices do not move when
// the display is sorted or filtered.
type StableIdentity interface {
	HasStableIdentity() bool
}

// Mapper maps indices between a layer and its immediate child.
type Mapper interface {
	// ToChild maps an index of this layer to an index of the child.
	ToChild(i int) int
	// FromChild maps a child index back to this layer, or NoRow if hidden.
	FromChild(i int) int
}

// Cells is a layer that can answer cell values; sort and filter layers need
// it from their child.
type Cells interface {
	Layer
	ColumnCount() int
	Value(row, col int) any
}

// Versioned layers report a counter that changes whenever their rows or
// values change. Wrapping layers use it to know when to rebuild.
type Versioned interface {
	Version() uint64
}

// Component is a widget that displays a wrapper chain.
type Component interface {
	Model() Layer
}

// Chain returns the layers from top down to the first non-wrapping layer.
func Chain(top Layer) []Layer {
	var out []Layer
	l := top
	for depth := 0; l != nil && depth < maxDepth; depth++ {
		out = append(out, l)
		w, ok := l.(Wrapper)
		if !ok {
			break
		}
		l = w.Child()
	}
	return out
}

func isStable(l Layer) bool {
	s, ok := l.(StableIdentity)
	return ok && s.HasStableIdentity()
}

// identityLayer returns the position in chain of the layer whose indices are
// storage indices: the first stable layer, or failing that the first
// non-wrapping one. It returns -1 when neither exists.
func identityLayer(chain []Layer) int {
	for i, l := range chain {
		if isStable(l) {
			return i
		}
	}
	for i, l := range chain {
		if w, ok := l.(Wrapper); !ok || w.Child() == nil {
			return i
		}
	}
	return -1
}

func chainOf(c Component) []Layer {
	if c == nil {
		return nil
	}
	return Chain(c.Model())
}

// ViewToModel converts a displayed row index of c into a storage index.
// It never fails: anything it cannot translate comes back unchanged.
func ViewToModel(c Component, view int) (storage int) {
	if view == NoRow {
		return NoRow
	}
	defer func() {
		if recover() != nil {
			storage = view
		}
	}()

	chain := chainOf(c)
	if len(chain) == 0 || isStable(chain[0]) {
		return view
	}
	target := identityLayer(chain)
	if target <= 0 {
		return view
	}

	i := view
	for k := 0; k < target; k++ {
		m, ok := chain[k].(Mapper)
		if !ok {
			continue
		}
		i = m.ToChild(i)
		if i == NoRow {
			return NoRow
		}
	}
	return i
}

// ModelToView converts a storage index into the row index c currently
// displays it at, or NoRow when the row is hidden.
func ModelToView(c Component, storage int) (view int) {
	if storage == NoRow {
		return NoRow
	}
	defer func() {
		if recover() != nil {
			view = storage
		}
	}()

	chain := chainOf(c)
	if len(chain) == 0 || isStable(chain[0]) {
		return storage
	}
	target := identityLayer(chain)
	if target <= 0 {
		return storage
	}

	i := storage
	for k := target - 1; k >= 0; k-- {
		m, ok := chain[k].(Mapper)
		if !ok {
			continue
		}
		i = m.FromChild(i)
		if i == NoRow {
			return NoRow
		}
	}
	return i
}

// Static adapts a bare layer into a Component.
type Static struct{ L Layer }

func (s Static) Model() Layer { return s.L }
