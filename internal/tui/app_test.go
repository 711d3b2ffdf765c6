package tui

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"rowbind/internal/deferred"
	"rowbind/internal/entitysync"
	"rowbind/internal/index"
	"rowbind/internal/model"
	"rowbind/internal/rowstore"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	jan5  = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	jan16 = time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	jan30 = time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
)

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// newTestApp stores Charlie, Alpha, Bravo in that order; Bravo is Alpha's child.
func newTestApp(t *testing.T) appModel {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)

	ents, rels := rowstore.NewEntityTable(), rowstore.NewRelationTable()
	s := entitysync.New(ents, rels, nil)
	alpha := "e-alpha"
	for _, e := range []*model.Entity{
		{ID: "e-charlie", Name: "Charlie", Completion: 1, Range: model.NewRange(jan16, jan30)},
		{ID: alpha, Name: "Alpha", Completion: 0.5, Range: model.NewRange(jan5, jan16)},
		{ID: "e-bravo", Name: "Bravo", Completion: 0, ParentID: &alpha},
	} {
		_, err := s.Push(e)
		require.NoError(t, err, e.ID)
	}
	m, err := newAppModel(ents, rels, appOptions{Logger: discardLogger()})
	require.NoError(t, err)
	m.st.dirty = false
	return m
}

func send(t *testing.T, m appModel, msg tea.Msg) (appModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(appModel)
	require.True(t, ok, "unexpected model type %T", next)
	return am, cmd
}

func keyRunes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

// flush delivers the deferred-commit message produced by cmd.
func flush(t *testing.T, m appModel, cmd tea.Cmd) (appModel, tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd, "expected a flush command")
	msg := cmd()
	require.IsType(t, deferred.FlushMsg{}, msg)
	return send(t, m, msg)
}

func nameAt(m appModel, storage int) string {
	return m.entities.Row(storage).String(rowstore.ColName)
}

func TestView_RendersRowsThroughBinding(t *testing.T) {
	m := newTestApp(t)
	out := m.View()
	for _, want := range []string{"Charlie", "Alpha", "  Bravo", "50%", "2026-01-05", "3/3 rows", "timeline"} {
		assert.Contains(t, out, want)
	}
}

func TestView_UnloadedRowsRenderPlaceholder(t *testing.T) {
	m := newTestApp(t)
	m.entities.SetLoaded(1)
	out := m.View()
	assert.Equal(t, 2, strings.Count(out, loadingRow), out)
	assert.Contains(t, out, "Charlie", "loaded row missing")
}

func TestEdit_CommitIsDeferredUntilFlush(t *testing.T) {
	m := newTestApp(t)
	m.list.Select(1)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, m.edit.editor)
	require.Equal(t, 1, m.edit.view)
	alpha, _ := m.chart.entity("e-alpha")

	m, _ = send(t, m, keyRunes("!"))
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, m.edit.editor, "editor should be closed before the commit runs")
	assert.False(t, m.binding.Editing())
	assert.Equal(t, "Alpha", nameAt(m, 1), "commit ran before flush")
	assert.Equal(t, 1, m.queue.Len())

	m, next := flush(t, m, cmd)
	assert.Nil(t, next, "unexpected follow-up command")
	assert.Equal(t, "Alpha!", nameAt(m, 1))
	again, _ := m.chart.entity("e-alpha")
	assert.Same(t, alpha, again, "entity should be updated in place")
	assert.Equal(t, "Alpha!", alpha.Name)
	assert.True(t, m.st.dirty)
}

func TestEdit_RangeCommitAdjustsInPlace(t *testing.T) {
	m := newTestApp(t)
	m.list.Select(1)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	alpha, _ := m.chart.entity("e-alpha")
	rng := alpha.Range
	m.edit.editor.fields[3].input.SetValue("2026-01-20")

	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = flush(t, m, cmd)

	assert.Same(t, rng, alpha.Range, "range was replaced instead of adjusted")
	assert.True(t, alpha.Range.Upper().Equal(time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)), alpha.Range.String())
	assert.Contains(t, m.View(), "*Alpha", "adjusted row should be marked")
}

func TestEdit_InvalidInputKeepsEditorOpen(t *testing.T) {
	for _, in := range []string{"lots", "nan"} {
		m := newTestApp(t)
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		m.edit.editor.fields[1].input.SetValue(in)

		m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		assert.Nil(t, cmd, "invalid input %q must not schedule a commit", in)
		assert.Zero(t, m.queue.Len(), in)
		assert.NotNil(t, m.edit.editor, in)
		assert.Contains(t, m.status, "completion", in)
		assert.Equal(t, 1.0, m.entities.Row(0).Float(rowstore.ColCompletion), in)
	}
}

func TestEdit_EscCancels(t *testing.T) {
	m := newTestApp(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, _ = send(t, m, keyRunes("zzz"))
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Nil(t, m.edit.editor)
	assert.False(t, m.binding.Editing())
	assert.Zero(t, m.queue.Len(), "esc should drop the session without a commit")
	assert.Equal(t, "Charlie", nameAt(m, 0), "cancelled edit leaked")
}

func TestEdit_RowRemovedBeforeCommit(t *testing.T) {
	m := newTestApp(t)
	m.list.Select(1)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NoError(t, m.entities.RemoveRow(1))
	m, _ = flush(t, m, cmd)
	assert.NoError(t, m.st.fatal, "commit on a removed row should be a no-op")
	assert.Equal(t, 2, m.entities.RowCount(), "commit must not recreate the row")
	_, ok := m.chart.entity("e-alpha")
	assert.False(t, ok, "removed entity should be dropped from the chart")
}

func TestEdit_CommitFailureIsFatal(t *testing.T) {
	m := newTestApp(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.edit.editor.fields[0].input.SetValue("  ")

	// Bypass the host-side validation to reach the commit handler.
	m.binding.EditorValue()
	m.closeEditor()
	m, cmd := flush(t, m, m.queue.Cmd())

	assert.ErrorIs(t, m.st.fatal, errEmptyName)
	require.NotNil(t, cmd, "expected quit command")
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestMouse_ClickFocusesFieldUnderPointer(t *testing.T) {
	m := newTestApp(t)
	layout := columnLayout(m.grid.width)
	x := layout[colStart].x + 1

	m, _ = send(t, m, tea.MouseMsg{X: x, Y: headerLines + 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	require.NotNil(t, m.edit.editor)
	assert.Equal(t, 2, m.edit.view)
	assert.Equal(t, 2, m.edit.editor.focus, "expected start field focused")
	assert.Equal(t, 2, m.list.Index(), "click should select the row")

	// Clicks below the last row do nothing.
	m.closeEditor()
	m.binding.CancelEditing()
	m, _ = send(t, m, tea.MouseMsg{X: 1, Y: headerLines + 10, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Nil(t, m.edit.editor, "click past the rows should not edit")
}

func TestSort_KeepsSelectedRow(t *testing.T) {
	m := newTestApp(t)
	m.list.Select(0) // Charlie, storage 0

	m, _ = send(t, m, keyRunes("s"))
	assert.Equal(t, 2, m.list.Index(), "Charlie should be at view 2 after sorting by name")
	assert.Equal(t, 0, index.ViewToModel(m.grid, m.list.Index()), "selection should stay on storage row 0")
	assert.Contains(t, m.status, "sort: name asc")

	m, _ = send(t, m, keyRunes("S"))
	assert.Equal(t, 0, m.list.Index(), "descending sort should put Charlie first")
}

func TestSort_EditsTheRowUnderTheCursor(t *testing.T) {
	m := newTestApp(t)
	m, _ = send(t, m, keyRunes("s")) // Alpha, Bravo, Charlie
	m.list.Select(0)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m.edit.editor.fields[0].input.SetValue("Aardvark")
	m, cmd := send(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, _ = flush(t, m, cmd)

	assert.Equal(t, "Aardvark", nameAt(m, 1))
	assert.Equal(t, "Charlie", nameAt(m, 0), "storage row 0 should be untouched")
}

func TestFilter_TypingNarrowsRows(t *testing.T) {
	m := newTestApp(t)
	m, _ = send(t, m, keyRunes("/"))
	require.True(t, m.filtering)
	m, _ = send(t, m, keyRunes("bra"))
	assert.Equal(t, 1, m.filter.RowCount())
	assert.Equal(t, 2, index.ViewToModel(m.grid, 0), "expected Bravo (storage 2)")

	m, _ = send(t, m, keyRunes("m"))
	assert.Equal(t, index.SearchAnywhere, m.searchMode, "m while filtering is text, not a mode switch")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.filtering)
	assert.Equal(t, 3, m.filter.RowCount(), "esc should clear the filter")

	m, _ = send(t, m, keyRunes("m"))
	assert.Equal(t, index.SearchStartsWith, m.searchMode)
}

func TestWindowSize_ResizesGrid(t *testing.T) {
	m := newTestApp(t)
	m, _ = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 30})
	assert.Equal(t, 120, m.grid.width)
}

