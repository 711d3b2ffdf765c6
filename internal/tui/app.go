package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rowbind/internal/binding"
	"rowbind/internal/deferred"
	"rowbind/internal/entitysync"
	"rowbind/internal/index"
	"rowbind/internal/rowstore"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Lines above the first grid row: title and column header.
const headerLines = 2

// sortColumns is the cycle used by the sort key; -1 is storage order.
var sortColumns = []string{"", rowstore.ColName, rowstore.ColCompletion, rowstore.ColLower, rowstore.ColUpper}

// runState outlives value copies of appModel.
type runState struct {
	fatal error
	dirty bool
}

type appModel struct {
	log    *slog.Logger
	dbPath string

	entities  *rowstore.Table
	relations *rowstore.Table
	sync      *entitysync.Synchronizer
	chart     *chart

	sorter  *index.SortLayer
	filter  *index.FilterLayer
	grid    *grid
	binding *binding.Binding[*rowstore.Row]
	queue   *deferred.Queue
	edit    *editState
	st      *runState

	list        list.Model
	filterInput textinput.Model
	filtering   bool
	searchMode  index.SearchMode
	sortIdx     int
	sortDesc    bool
	keys        keyMap

	width  int
	height int
	status string
}

type appOptions struct {
	DBPath     string
	Logger     *slog.Logger
	SearchMode index.SearchMode
	Decorator  binding.Decorator
}

func newAppModel(entities, relations *rowstore.Table, opts appOptions) (appModel, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	s := entitysync.New(entities, relations, log)
	m := appModel{
		log:        log,
		dbPath:     opts.DBPath,
		entities:   entities,
		relations:  relations,
		sync:       s,
		chart:      newChart(s),
		queue:      deferred.NewQueue(),
		edit:       &editState{view: index.NoRow},
		st:         &runState{},
		searchMode: opts.SearchMode,
		keys:       defaultKeyMap(),
		width:      80,
		height:     24,
	}
	entities.Listen(m.chart.onTableEvent)
	entities.Listen(func(rowstore.Event) { m.st.dirty = true })
	relations.Listen(func(rowstore.Event) { m.st.dirty = true })

	m.sorter = index.NewSortLayer(rowstore.NewModel(entities), -1, false)
	m.filter = index.NewFilterLayer(m.sorter)
	m.grid = &grid{top: m.filter, originY: headerLines, width: m.width}

	st := m.st
	b, err := binding.New(binding.Options[*rowstore.Row]{
		NewRenderer: func() (binding.Renderer[*rowstore.Row], error) {
			return &rowRenderer{chart: m.chart}, nil
		},
		NewEditor: func() (binding.Editor[*rowstore.Row], error) {
			return newRowEditor(s, log, m.grid.width), nil
		},
		Scheduler: m.queue,
		Decorator: opts.Decorator,
		OnCommitError: func(err error) {
			// Unrecoverable: stop the program and report it rather than drop the edit.
			st.fatal = err
		},
		Logger: log,
	})
	if err != nil {
		return appModel{}, err
	}
	m.binding = b
	// Fail fast on a miswired chain instead of painting errors into every row.
	if _, err := b.RendererComponent(m.grid, index.NoRow, -1, false); err != nil {
		return appModel{}, err
	}

	m.list = list.New(nil, gridDelegate{b: b, g: m.grid, edit: m.edit}, m.width, m.height-headerLines-1)
	m.list.SetShowTitle(false)
	m.list.SetShowStatusBar(false)
	m.list.SetShowHelp(false)
	m.list.SetShowPagination(false)
	m.list.SetFilteringEnabled(false)
	m.list.DisableQuitKeybindings()

	m.filterInput = textinput.New()
	m.filterInput.Prompt = "/"
	m.filterInput.Placeholder = "filter"

	m.refreshRows()
	return m, nil
}

func (m appModel) Init() tea.Cmd { return nil }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ok, cmd := m.queue.Handle(msg); ok {
		m.refreshRows()
		if m.st.fatal != nil {
			return m, tea.Quit
		}
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, max(m.height-headerLines-1, 1))
		m.syncGrid()
		return m, nil

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && m.edit.editor == nil && !m.filtering {
			m.syncGrid()
			row := m.grid.rowAt(msg.Y)
			if row == index.NoRow {
				return m, nil
			}
			m.list.Select(row)
			return m, m.startEdit(row, &binding.PointerEvent{X: msg.X, Y: msg.Y})
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case m.edit.editor != nil:
			return m.updateEditing(msg)
		case m.filtering:
			return m.updateFiltering(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Edit):
			return m, m.startEdit(m.list.Index(), nil)
		case key.Matches(msg, m.keys.Sort):
			m.sortIdx = (m.sortIdx + 1) % len(sortColumns)
			m.applySort()
			return m, nil
		case key.Matches(msg, m.keys.SortDir):
			m.sortDesc = !m.sortDesc
			m.applySort()
			return m, nil
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			return m, m.filterInput.Focus()
		case key.Matches(msg, m.keys.Mode):
			m.searchMode = (m.searchMode + 1) % (index.SearchExact + 1)
			m.applyFilter()
			m.status = "match: " + m.searchMode.String()
			return m, nil
		case key.Matches(msg, m.keys.Save):
			if err := m.save(); err != nil {
				m.status = "save failed: " + err.Error()
			} else {
				m.status = "saved"
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *appModel) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ed := m.edit.editor
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.binding.CancelEditing()
		m.closeEditor()
		return *m, nil
	case key.Matches(msg, m.keys.Commit):
		if _, err := ed.values(); err != nil {
			m.status = err.Error()
			return *m, nil
		}
		// The returned value is a placeholder; the write happens on a later turn.
		_ = m.binding.EditorValue()
		m.closeEditor()
		return *m, m.queue.Cmd()
	case key.Matches(msg, m.keys.NextFld):
		return *m, ed.next()
	case key.Matches(msg, m.keys.PrevFld):
		return *m, ed.prev()
	}
	return *m, ed.update(msg)
}

func (m *appModel) updateFiltering(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterInput.SetValue("")
		m.filtering = false
		m.filterInput.Blur()
		m.applyFilter()
		return *m, nil
	case tea.KeyEnter:
		m.filtering = false
		m.filterInput.Blur()
		return *m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	m.applyFilter()
	return *m, cmd
}

func (m *appModel) startEdit(row int, ev *binding.PointerEvent) tea.Cmd {
	if row < 0 || row >= m.filter.RowCount() {
		return nil
	}
	m.syncGrid()
	ed, err := m.binding.EditorComponent(m.grid, row, colName, ev)
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.edit.view = row
	m.edit.editor = ed.(*rowEditor)
	m.status = ""
	return m.edit.editor.focusField(m.edit.editor.focus)
}

func (m *appModel) closeEditor() {
	m.edit.editor = nil
	m.edit.view = index.NoRow
}

// applySort re-sorts and keeps the selected row selected by its storage index.
func (m *appModel) applySort() {
	m.keepSelection(func() {
		col := -1
		if name := sortColumns[m.sortIdx]; name != "" {
			col = m.entities.ColumnIndex(name)
		}
		m.sorter.SetSort(col, m.sortDesc)
	})
	m.status = m.sortLabel()
}

func (m *appModel) applyFilter() {
	m.keepSelection(func() {
		m.filter.SetQuery(strings.TrimSpace(m.filterInput.Value()), index.AllColumns, m.searchMode)
	})
}

func (m *appModel) keepSelection(change func()) {
	storage := index.ViewToModel(m.grid, m.list.Index())
	change()
	m.refreshRows()
	if v := index.ModelToView(m.grid, storage); v != index.NoRow {
		m.list.Select(v)
	}
}

func (m *appModel) refreshRows() {
	n := m.filter.RowCount()
	items := make([]list.Item, n)
	for i := range items {
		items[i] = rowItem{view: i}
	}
	m.list.SetItems(items)
	m.syncGrid()
}

func (m *appModel) syncGrid() {
	m.grid.width = m.list.Width()
	m.grid.pageStart = m.list.Paginator.Page * m.list.Paginator.PerPage
}

func (m appModel) sortLabel() string {
	name := sortColumns[m.sortIdx]
	if name == "" {
		return "sort: storage order"
	}
	dir := "asc"
	if m.sortDesc {
		dir = "desc"
	}
	return fmt.Sprintf("sort: %s %s", name, dir)
}

func (m *appModel) save() error {
	if m.dbPath == "" {
		return nil
	}
	if err := rowstore.SaveSQLite(context.Background(), m.dbPath, m.entities, m.relations); err != nil {
		return err
	}
	m.st.dirty = false
	return nil
}

func (m appModel) View() string {
	layout := columnLayout(m.grid.width)
	heads := [numCols]string{"name", "done", "start", "end", "timeline"}
	cells := make([]string, numCols)
	for i, h := range heads {
		cells[i] = fit(h, layout[i].w)
	}
	title := headerStyle.Render(fmt.Sprintf("rowbind  %d/%d rows  %s",
		m.filter.RowCount(), m.entities.RowCount(), m.sortLabel()))
	header := mutedStyle.Render(strings.Join(cells, strings.Repeat(" ", colGap)))

	var footer string
	switch {
	case m.filtering:
		footer = m.filterInput.View()
	case m.status != "":
		footer = mutedStyle.Render(m.status)
	default:
		footer = mutedStyle.Render(helpLine(m))
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, header, m.list.View(), footer)
}

func helpLine(m appModel) string {
	bs := m.keys.browseHelp()
	if m.edit.editor != nil {
		bs = m.keys.editHelp()
	}
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		h := b.Help()
		parts = append(parts, h.Key+": "+h.Desc)
	}
	return strings.Join(parts, "  ")
}
