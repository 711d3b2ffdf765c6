// Package binding lets one template type render and edit every row of a
// list-like widget.
//
// Painting reuses a single shared Renderer. Editing builds a new Editor for
// each session, and the edited value is written back by a task posted to the
// UI loop instead of inside the host's "get editor value" callback, so the
// host can finish closing the editor before any change notifications fire.
package binding

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"rowbind/internal/deferred"
	"rowbind/internal/index"
)

// Projection is implemented by the layer of a wrapper chain that knows how to
// turn a storage index into the value a template shows. ok is false for rows
// that are not available yet.
type Projection[T any] interface {
	RowValue(storage int) (v T, ok bool)
}

// CellBounder is implemented by hosts that know where a cell sits on screen.
// Pointer positions handed to EditorComponent are in the same coordinates.
type CellBounder interface {
	CellBounds(row, col int) Rect
}

// PointerEvent is the location of the click that started an edit.
type PointerEvent struct {
	X, Y int
}

type Options[T any] struct {
	NewRenderer func() (Renderer[T], error)
	NewEditor   func() (Editor[T], error)
	Scheduler   deferred.Scheduler

	// Decorator defaults to DefaultStriped().
	Decorator Decorator
	// OnCommitError receives failures of deferred commits. The default
	// panics with the *CommitError: losing an edit silently is worse.
	OnCommitError func(error)
	Logger        *slog.Logger
}

type session[T any] struct {
	editor  Editor[T]
	view    int
	storage int
	col     int
}

// Binding serves renderer and editor templates for one widget.
type Binding[T any] struct {
	newEditor     func() (Editor[T], error)
	sched         deferred.Scheduler
	decorator     Decorator
	onCommitError func(error)
	log           *slog.Logger

	renderer Renderer[T]
	active   *session[T]
}

// New builds the shared renderer right away; a failing factory is an
// *InstantiationError.
func New[T any](opts Options[T]) (*Binding[T], error) {
	if opts.NewRenderer == nil || opts.NewEditor == nil {
		return nil, fmt.Errorf("binding: NewRenderer and NewEditor are required")
	}
	if opts.Scheduler == nil {
		return nil, fmt.Errorf("binding: Scheduler is required")
	}
	r, err := opts.NewRenderer()
	if err != nil {
		return nil, &InstantiationError{Role: "renderer", Err: err}
	}
	if isNil(r) {
		return nil, &InstantiationError{Role: "renderer"}
	}
	b := &Binding[T]{
		newEditor:     opts.NewEditor,
		sched:         opts.Scheduler,
		decorator:     opts.Decorator,
		onCommitError: opts.OnCommitError,
		log:           opts.Logger,
		renderer:      r,
	}
	if b.decorator == nil {
		b.decorator = DefaultStriped()
	}
	if b.onCommitError == nil {
		b.onCommitError = func(err error) { panic(err) }
	}
	if b.log == nil {
		b.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return b, nil
}

// RendererComponent prepares the shared renderer for the cell at view row
// row and returns it. Rows that are not loaded yet render the zero value.
func (b *Binding[T]) RendererComponent(c index.Component, row, col int, selected bool) (Renderer[T], error) {
	proj, err := b.projection(c)
	if err != nil {
		return nil, err
	}
	storage := index.ViewToModel(c, row)
	b.renderer.SetValue(fetch(proj, storage))
	b.renderer.SetColors(b.decorator.Decorate(c, row, col, selected))
	return b.renderer, nil
}

// EditorComponent starts an edit session on the cell at view row row with a
// brand new editor. When the edit was started by a click, ev is where it
// landed and the node under it gets the focus. Any session still open is
// dropped without committing.
func (b *Binding[T]) EditorComponent(c index.Component, row, col int, ev *PointerEvent) (Editor[T], error) {
	proj, err := b.projection(c)
	if err != nil {
		return nil, err
	}
	ed, err := b.newEditor()
	if err != nil {
		return nil, &InstantiationError{Role: "editor", Err: err}
	}
	if isNil(ed) {
		return nil, &InstantiationError{Role: "editor"}
	}

	storage := index.ViewToModel(c, row)
	ed.SetValue(fetch(proj, storage))
	ed.SetColors(b.decorator.Decorate(c, row, col, true))

	if ev != nil {
		p := Point{X: ev.X, Y: ev.Y}
		if cb, ok := c.(CellBounder); ok {
			cell := cb.CellBounds(row, col)
			p = Point{X: p.X - cell.X, Y: p.Y - cell.Y}
		}
		focusAt(ed.Root(), p)
	}

	if b.active != nil {
		b.log.Debug("edit session replaced", "view", b.active.view, "storage", b.active.storage)
	}
	b.active = &session[T]{editor: ed, view: row, storage: storage, col: col}
	return ed, nil
}

// Editing reports whether an edit session is open.
func (b *Binding[T]) Editing() bool { return b.active != nil }

// EditorValue ends the open session. It does not return the edited value:
// it posts one task that commits the session's editor and returns nil
// immediately, so the host can tear the editor down first.
func (b *Binding[T]) EditorValue() any {
	s := b.active
	b.active = nil
	if s == nil {
		return nil
	}
	b.sched.Post(func() { b.commit(s) })
	return nil
}

// CancelEditing drops the open session without writing anything back.
func (b *Binding[T]) CancelEditing() {
	if b.active != nil {
		b.log.Debug("edit session cancelled", "view", b.active.view, "storage", b.active.storage)
	}
	b.active = nil
}

func (b *Binding[T]) commit(s *session[T]) {
	if err := s.editor.Commit(); err != nil {
		b.log.Error("deferred commit failed", "view", s.view, "storage", s.storage, "err", err)
		b.onCommitError(&CommitError{View: s.view, Storage: s.storage, Column: s.col, Err: err})
		return
	}
	b.log.Debug("deferred commit", "view", s.view, "storage", s.storage)
}

func (b *Binding[T]) projection(c index.Component) (Projection[T], error) {
	var layers []index.Layer
	if c != nil {
		layers = index.Chain(c.Model())
	}
	for _, l := range layers {
		if p, ok := l.(Projection[T]); ok {
			return p, nil
		}
	}
	var zero T
	return nil, &ConfigurationError{
		Component: fmt.Sprintf("%T", c),
		Want:      fmt.Sprintf("Projection[%s]", reflect.TypeOf(&zero).Elem()),
	}
}

func fetch[T any](p Projection[T], storage int) T {
	var zero T
	if storage == index.NoRow {
		return zero
	}
	v, ok := p.RowValue(storage)
	if !ok {
		return zero
	}
	return v
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
