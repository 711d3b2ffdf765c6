package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"rowbind/internal/binding"
	"rowbind/internal/entitysync"
	"rowbind/internal/model"
	"rowbind/internal/rowstore"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// Grid columns, left to right.
const (
	colName = iota
	colDone
	colStart
	colEnd
	colBar
	numCols
)

const (
	colGap     = 1
	nameMinW   = 12
	doneW      = 5
	dateW      = 10
	barMinW    = 10
	rowMinW    = nameMinW + doneW + 2*dateW + barMinW + 4*colGap
	loadingRow = "loading…"
)

type span struct{ x, w int }

// columnLayout splits width into the grid's column spans.
func columnLayout(width int) [numCols]span {
	if width < rowMinW {
		width = rowMinW
	}
	rest := width - doneW - 2*dateW - 4*colGap
	nameW := max(nameMinW, rest*2/5)
	barW := max(barMinW, rest-nameW)
	widths := [numCols]int{nameW, doneW, dateW, dateW, barW}

	var out [numCols]span
	x := 0
	for i, w := range widths {
		out[i] = span{x: x, w: w}
		x += w + colGap
	}
	return out
}

// columnAt returns the grid column under cell-relative x, or -1.
func columnAt(width, x int) int {
	for i, s := range columnLayout(width) {
		if x >= s.x && x < s.x+s.w {
			return i
		}
	}
	return -1
}

func fit(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(s)
	if w > width {
		return xansi.Truncate(s, width, "…")
	}
	return s + strings.Repeat(" ", width-w)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func formatCompletion(c float64) string {
	return strconv.Itoa(int(math.Round(c*100))) + "%"
}

// rowRenderer is the shared paint template of the grid.
type rowRenderer struct {
	chart *chart

	row    *rowstore.Row
	colors binding.Colors
}

var _ binding.Renderer[*rowstore.Row] = (*rowRenderer)(nil)

func (r *rowRenderer) SetValue(row *rowstore.Row) { r.row = row }
func (r *rowRenderer) SetColors(c binding.Colors) { r.colors = c }

func (r *rowRenderer) View(width int) string {
	style := r.colors.Style()
	if r.row == nil {
		return style.Render(fit(loadingRow, max(width, rowMinW)))
	}
	cols := r.chart.sync.Cols
	id := r.row.String(cols.ID)
	lower, upper := r.row.Time(cols.Lower), r.row.Time(cols.Upper)
	completion := r.row.Float(cols.Completion)

	name := strings.Repeat("  ", r.chart.depth(id)) + r.row.String(cols.Name)
	if r.chart.adjusted[id] > 0 {
		name = "*" + name
	}

	layout := columnLayout(width)
	cells := [numCols]string{
		fit(name, layout[colName].w),
		fit(formatCompletion(completion), layout[colDone].w),
		fit(formatDate(lower), layout[colStart].w),
		fit(formatDate(upper), layout[colEnd].w),
		r.bar(lower, upper, completion, layout[colBar].w),
	}
	gap := strings.Repeat(" ", colGap)
	return style.Render(strings.Join(cells[:], gap))
}

// bar draws the row's range against the whole chart span, filled up to the
// completion fraction.
func (r *rowRenderer) bar(lower, upper time.Time, completion float64, width int) string {
	lo, hi, ok := r.chart.span()
	if !ok || lower.IsZero() || upper.IsZero() || !hi.After(lo) {
		return strings.Repeat(" ", width)
	}
	total := hi.Sub(lo).Seconds()
	pos := func(t time.Time) int {
		return int(math.Round(t.Sub(lo).Seconds() / total * float64(width)))
	}
	start := min(max(pos(lower), 0), width-1)
	end := min(max(pos(upper), start+1), width)
	filled := start + int(math.Round(completion*float64(end-start)))

	var b strings.Builder
	for i := 0; i < width; i++ {
		switch {
		case i < start || i >= end:
			b.WriteByte(' ')
		case i < filled:
			b.WriteString("█")
		default:
			b.WriteString("░")
		}
	}
	return b.String()
}

// editorField is one text input of the row editor.
type editorField struct {
	ed     *rowEditor
	idx    int
	bounds binding.Rect
	input  textinput.Model
}

func (f *editorField) Bounds() binding.Rect     { return f.bounds }
func (f *editorField) Children() []binding.Node { return nil }
func (f *editorField) RequestFocus()            { f.ed.focusField(f.idx) }

// editorRoot is the cell-sized root of the editor's component tree.
type editorRoot struct {
	bounds binding.Rect
	fields []binding.Node
}

func (n *editorRoot) Bounds() binding.Rect     { return n.bounds }
func (n *editorRoot) Children() []binding.Node { return n.fields }

// rowEditor edits one entity row. It remembers the entity id, not the row
// position: the commit runs later and looks the row up again.
type rowEditor struct {
	sync *entitysync.Synchronizer
	log  *slog.Logger

	width  int
	id     string
	colors binding.Colors
	root   *editorRoot
	fields []*editorField
	focus  int
}

var _ binding.Editor[*rowstore.Row] = (*rowEditor)(nil)

// Editable columns, in focus order.
var editorColumns = []int{colName, colDone, colStart, colEnd}

func newRowEditor(s *entitysync.Synchronizer, log *slog.Logger, width int) *rowEditor {
	ed := &rowEditor{sync: s, log: log, width: width}
	layout := columnLayout(width)
	full := layout[colBar].x + layout[colBar].w
	ed.root = &editorRoot{bounds: binding.Rect{X: 0, Y: 0, W: full, H: 1}}
	for i, col := range editorColumns {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = max(layout[col].w-1, 1)
		f := &editorField{
			ed:     ed,
			idx:    i,
			bounds: binding.Rect{X: layout[col].x, Y: 0, W: layout[col].w, H: 1},
			input:  ti,
		}
		ed.fields = append(ed.fields, f)
		ed.root.fields = append(ed.root.fields, f)
	}
	ed.focusField(0)
	return ed
}

func (e *rowEditor) SetColors(c binding.Colors) { e.colors = c }
func (e *rowEditor) Root() binding.Node         { return e.root }

func (e *rowEditor) SetValue(row *rowstore.Row) {
	if row == nil {
		e.id = ""
		return
	}
	cols := e.sync.Cols
	e.id = row.String(cols.ID)
	vals := []string{
		row.String(cols.Name),
		formatCompletion(row.Float(cols.Completion)),
		formatDate(row.Time(cols.Lower)),
		formatDate(row.Time(cols.Upper)),
	}
	for i, v := range vals {
		e.fields[i].input.SetValue(v)
		e.fields[i].input.CursorEnd()
	}
}

func (e *rowEditor) focusField(i int) tea.Cmd {
	if i < 0 || i >= len(e.fields) {
		return nil
	}
	e.focus = i
	var cmd tea.Cmd
	for j, f := range e.fields {
		if j == i {
			cmd = f.input.Focus()
		} else {
			f.input.Blur()
		}
	}
	return cmd
}

func (e *rowEditor) next() tea.Cmd { return e.focusField((e.focus + 1) % len(e.fields)) }
func (e *rowEditor) prev() tea.Cmd {
	return e.focusField((e.focus + len(e.fields) - 1) % len(e.fields))
}

func (e *rowEditor) update(msg tea.Msg) tea.Cmd {
	f := e.fields[e.focus]
	var cmd tea.Cmd
	f.input, cmd = f.input.Update(msg)
	return cmd
}

type editedValues struct {
	name       string
	completion float64
	lower      time.Time
	upper      time.Time
}

var errEmptyName = errors.New("name must not be empty")

// values parses the fields. Host code calls it before closing the editor so
// input mistakes never reach the commit.
func (e *rowEditor) values() (editedValues, error) {
	var v editedValues
	v.name = strings.TrimSpace(e.fields[0].input.Value())
	if v.name == "" {
		return v, errEmptyName
	}
	c, err := parseCompletion(e.fields[1].input.Value())
	if err != nil {
		return v, err
	}
	v.completion = c
	if v.lower, err = parseDate(e.fields[2].input.Value()); err != nil {
		return v, fmt.Errorf("start: %w", err)
	}
	if v.upper, err = parseDate(e.fields[3].input.Value()); err != nil {
		return v, fmt.Errorf("end: %w", err)
	}
	return v, nil
}

// Commit writes the edit back to the entity's current row.
func (e *rowEditor) Commit() error {
	if e.id == "" {
		return nil
	}
	v, err := e.values()
	if err != nil {
		return err
	}
	row, ok := e.sync.Lookup(e.id)
	if !ok {
		e.log.Info("edited row removed before commit", "id", e.id)
		return nil
	}
	upd := e.sync.EntityFromRow(row)
	upd.Name = v.name
	upd.SetCompletion(v.completion)
	switch {
	case v.lower.IsZero() && v.upper.IsZero():
		upd.Range = nil
	case v.lower.IsZero():
		upd.Range = model.NewRange(v.upper, v.upper)
	case v.upper.IsZero():
		upd.Range = model.NewRange(v.lower, v.lower)
	default:
		upd.Range = model.NewRange(v.lower, v.upper)
	}
	_, err = e.sync.Push(upd)
	return err
}

func (e *rowEditor) View() string {
	style := e.colors.Style()
	gap := style.Render(strings.Repeat(" ", colGap))
	parts := make([]string, 0, len(e.fields)*2+1)
	for i, f := range e.fields {
		if i > 0 {
			parts = append(parts, gap)
		}
		cell := f.input.View()
		w := f.bounds.W
		if cw := lipgloss.Width(cell); cw < w {
			cell += style.Render(strings.Repeat(" ", w-cw))
		}
		parts = append(parts, cell)
	}
	layout := columnLayout(e.width)
	parts = append(parts, gap, style.Render(fit("enter ok · esc cancel", layout[colBar].w)))
	return strings.Join(parts, "")
}

func parseCompletion(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	pct := strings.HasSuffix(s, "%")
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("completion %q: not a number", s)
	}
	if pct || f > 1 {
		f /= 100
	}
	if f < 0 || f > 1 {
		return 0, fmt.Errorf("completion %q: out of range", s)
	}
	return f, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	return t, nil
}
