package tui

import (
	"fmt"
	"io"
	"strings"

	"rowbind/internal/binding"
	"rowbind/internal/index"
	"rowbind/internal/rowstore"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	xansi "github.com/charmbracelet/x/ansi"
)

// rowItem is a placeholder list entry; the delegate paints view row index
// through the binding, so items carry no data of their own.
type rowItem struct{ view int }

func (i rowItem) FilterValue() string { return "" }

// grid is the host widget the binding and index translator see: it displays
// the top of the filter -> sort -> table chain.
type grid struct {
	top index.Layer

	// top-left screen position of the first visible row.
	originX, originY int
	width            int
	pageStart        int
}

var (
	_ index.Component     = (*grid)(nil)
	_ binding.CellBounder = (*grid)(nil)
)

func (g *grid) Model() index.Layer { return g.top }

// CellBounds returns the screen rect of a row. Columns share one template, so
// every column reports the whole row.
func (g *grid) CellBounds(row, _ int) binding.Rect {
	return binding.Rect{X: g.originX, Y: g.originY + row - g.pageStart, W: g.width, H: 1}
}

// rowAt maps a screen line to a view row, or NoRow.
func (g *grid) rowAt(y int) int {
	if y < g.originY {
		return index.NoRow
	}
	row := g.pageStart + y - g.originY
	if row >= g.top.RowCount() {
		return index.NoRow
	}
	return row
}

// editState is shared between the app and its delegate (which list.Model
// stores by value).
type editState struct {
	view   int
	editor *rowEditor
}

type gridDelegate struct {
	b    *binding.Binding[*rowstore.Row]
	g    *grid
	edit *editState
}

func (d gridDelegate) Height() int  { return 1 }
func (d gridDelegate) Spacing() int { return 0 }
func (d gridDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

func (d gridDelegate) Render(w io.Writer, m list.Model, i int, _ list.Item) {
	contentW := m.Width()
	if contentW < 4 {
		fmt.Fprint(w, "")
		return
	}
	if d.edit.editor != nil && d.edit.view == i {
		fmt.Fprint(w, clip(d.edit.editor.View(), contentW))
		return
	}
	r, err := d.b.RendererComponent(d.g, i, -1, i == m.Index())
	if err != nil {
		fmt.Fprint(w, errorStyle.Render(clip(err.Error(), contentW)))
		return
	}
	fmt.Fprint(w, clip(r.(*rowRenderer).View(contentW), contentW))
}

func clip(line string, width int) string {
	lineW := xansi.StringWidth(line)
	if lineW < width {
		line += strings.Repeat(" ", width-lineW)
	} else if lineW > width {
		line = xansi.Cut(line, 0, width)
	}
	return line
}
