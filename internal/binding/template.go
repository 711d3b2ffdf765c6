package binding

import "github.com/charmbracelet/lipgloss"

// Template holds one row's projected value at a time.
type Template[T any] interface {
	SetValue(v T)
	SetColors(c Colors)
}

// Renderer is the shared, paint-only role. The binding keeps one per setup
// and reuses it for every paint; callers must not hold on to it.
type Renderer[T any] interface {
	Template[T]
}

// Editor is the session-owned role. A fresh one is built for every edit
// session and dropped after its deferred commit runs.
type Editor[T any] interface {
	Template[T]
	// Root is the editor's component tree, used to route the initial focus.
	Root() Node
	// Commit writes the edited values back. It runs on a later loop turn, so
	// the row it was created for may have changed or gone in the meantime.
	Commit() error
}

// Colors is the decoration applied to a template before it is shown.
type Colors struct {
	Foreground lipgloss.TerminalColor
	Background lipgloss.TerminalColor
}

// Style turns c into a lipgloss style.
func (c Colors) Style() lipgloss.Style {
	st := lipgloss.NewStyle()
	if c.Foreground != nil {
		st = st.Foreground(c.Foreground)
	}
	if c.Background != nil {
		st = st.Background(c.Background)
	}
	return st
}

// Rect is a cell-relative rectangle.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

type Point struct {
	X, Y int
}

// Node is an element of an editor's component tree. Bounds are relative to
// the parent node.
type Node interface {
	Bounds() Rect
	Children() []Node
}

// Focusable nodes can take input focus.
type Focusable interface {
	RequestFocus()
}

// DeepestAt returns the deepest node under p (relative to root's parent), and
// the path leading to it from root. It returns nil when p misses root.
func DeepestAt(root Node, p Point) (Node, []Node) {
	if root == nil || !root.Bounds().Contains(p) {
		return nil, nil
	}
	path := []Node{root}
	cur := root
	for depth := 0; depth < 64; depth++ {
		b := cur.Bounds()
		local := Point{X: p.X - b.X, Y: p.Y - b.Y}
		var next Node
		kids := cur.Children()
		// Later children paint on top; prefer them.
		for i := len(kids) - 1; i >= 0; i-- {
			if kids[i] != nil && kids[i].Bounds().Contains(local) {
				next = kids[i]
				break
			}
		}
		if next == nil {
			break
		}
		p = local
		cur = next
		path = append(path, cur)
	}
	return cur, path
}

// focusAt asks the deepest focusable node under p to take focus. When the
// deepest node cannot take focus, its closest focusable ancestor does.
func focusAt(root Node, p Point) Node {
	_, path := DeepestAt(root, p)
	for i := len(path) - 1; i >= 0; i-- {
		if f, ok := path[i].(Focusable); ok {
			f.RequestFocus()
			return path[i]
		}
	}
	return nil
}
