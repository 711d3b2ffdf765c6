package entitysync

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"rowbind/internal/model"
	"rowbind/internal/rowstore"
)

// Columns names the entity table columns the synchronizer reads and writes.
type Columns struct {
	ID, Name, Completion, Lower, Upper, Parent string
}

var DefaultColumns = Columns{
	ID:         rowstore.ColID,
	Name:       rowstore.ColName,
	Completion: rowstore.ColCompletion,
	Lower:      rowstore.ColLower,
	Upper:      rowstore.ColUpper,
	Parent:     rowstore.ColParent,
}

type RelationColumns struct {
	ID, Predecessor, Successor, Type string
}

var DefaultRelationColumns = RelationColumns{
	ID:          rowstore.ColRelationID,
	Predecessor: rowstore.ColPredecessor,
	Successor:   rowstore.ColSuccessor,
	Type:        rowstore.ColType,
}

// maxPullPasses bounds Pull; SyncChangedFields applies one field per pass and
// there are three fields.
const maxPullPasses = 3

// Synchronizer pushes entities into rows and pulls row edits back into
// entities, matching by id.
type Synchronizer struct {
	Entities  Store
	Relations Store
	Cols      Columns
	RelCols   RelationColumns

	log *slog.Logger
}

func New(entities, relations Store, log *slog.Logger) *Synchronizer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{
		Entities:  entities,
		Relations: relations,
		Cols:      DefaultColumns,
		RelCols:   DefaultRelationColumns,
		log:       log,
	}
}

// Lookup finds the entity row with id without creating one.
func (s *Synchronizer) Lookup(id string) (*rowstore.Row, bool) {
	return findRow(id, s.Cols.ID, s.Entities)
}

// Push writes e into its row, creating the row when e is new. Only cells that
// differ are written, so unchanged rows fire no events.
func (s *Synchronizer) Push(e *model.Entity) (*rowstore.Row, error) {
	if e == nil || e.ID == "" {
		return nil, errors.New("push: entity without id")
	}
	r, ok := s.Lookup(e.ID)
	if !ok {
		r = s.Entities.AddRow()
		if err := r.Set(s.Cols.ID, e.ID); err != nil {
			return nil, fmt.Errorf("push %s: %w", e.ID, err)
		}
		s.log.Debug("entity row created", "id", e.ID)
	}
	lower, upper := rangeBounds(e.Range)
	var parent any
	if e.ParentID != nil {
		parent = *e.ParentID
	}
	writes := []struct {
		col string
		v   any
	}{
		{s.Cols.Name, e.Name},
		{s.Cols.Completion, e.Completion},
		{s.Cols.Lower, timeCell(lower)},
		{s.Cols.Upper, timeCell(upper)},
		{s.Cols.Parent, parent},
	}
	for _, w := range writes {
		if err := r.Set(w.col, w.v); err != nil {
			return nil, fmt.Errorf("push %s: %w", e.ID, err)
		}
	}
	return r, nil
}

// EntityFromRow builds a detached entity from a row's cells.
func (s *Synchronizer) EntityFromRow(r *rowstore.Row) *model.Entity {
	e := &model.Entity{
		ID:         r.String(s.Cols.ID),
		Name:       r.String(s.Cols.Name),
		Completion: r.Float(s.Cols.Completion),
	}
	// A single bound stands for a zero-length range.
	lower, upper := r.Time(s.Cols.Lower), r.Time(s.Cols.Upper)
	switch {
	case lower.IsZero() && upper.IsZero():
	case lower.IsZero():
		e.Range = model.NewRange(upper, upper)
	case upper.IsZero():
		e.Range = model.NewRange(lower, lower)
	default:
		e.Range = model.NewRange(lower, upper)
	}
	if p := r.String(s.Cols.Parent); p != "" {
		e.ParentID = &p
	}
	return e
}

// Pull brings e up to date with its row without replacing e or e.Range. It
// reports whether anything changed.
func (s *Synchronizer) Pull(r *rowstore.Row, e *model.Entity) bool {
	if r == nil || e == nil {
		return false
	}
	updated := s.EntityFromRow(r)
	changed := false
	for pass := 0; pass < maxPullPasses && !ValuesEqual(e, updated); pass++ {
		if !SyncChangedFields(updated, e) {
			break
		}
		changed = true
	}
	if !sameParent(e.ParentID, updated.ParentID) {
		e.ParentID = updated.ParentID
		changed = true
	}
	return changed
}

// Relation looks up the row of an existing relation.
func (s *Synchronizer) Relation(rel model.Relation) (*rowstore.Row, error) {
	return findRelationRow(rel.PredecessorID, rel.SuccessorID, rel.Type, s.Relations, s.RelCols)
}

// Link adds a relation row unless the same relation already exists.
func (s *Synchronizer) Link(rel model.Relation) (*rowstore.Row, error) {
	if r, err := s.Relation(rel); err == nil {
		return r, nil
	}
	id, err := rowstore.NewID()
	if err != nil {
		return nil, err
	}
	r := s.Relations.AddRow()
	cells := []struct {
		col string
		v   string
	}{
		{s.RelCols.ID, id},
		{s.RelCols.Predecessor, rel.PredecessorID},
		{s.RelCols.Successor, rel.SuccessorID},
		{s.RelCols.Type, string(rel.Type)},
	}
	for _, c := range cells {
		if err := r.Set(c.col, c.v); err != nil {
			return nil, fmt.Errorf("link %s: %w", rel, err)
		}
	}
	s.log.Debug("relation row created", "relation", rel.String(), "id", id)
	return r, nil
}

// Unlink removes the row of an existing relation.
func (s *Synchronizer) Unlink(rel model.Relation) error {
	r, err := s.Relation(rel)
	if err != nil {
		return err
	}
	t := r.Table()
	if t == nil {
		return rowstore.ErrDetachedRow
	}
	return t.RemoveRow(r.Index())
}

// RelationsOf lists relations where id is predecessor or successor.
func (s *Synchronizer) RelationsOf(id string) []model.Relation {
	var out []model.Relation
	for i := 0; i < s.Relations.RowCount(); i++ {
		r := s.Relations.Row(i)
		if r == nil {
			continue
		}
		rel := model.Relation{
			PredecessorID: r.String(s.RelCols.Predecessor),
			SuccessorID:   r.String(s.RelCols.Successor),
			Type:          model.RelationType(r.String(s.RelCols.Type)),
		}
		if rel.PredecessorID == id || rel.SuccessorID == id {
			out = append(out, rel)
		}
	}
	return out
}

func timeCell(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
