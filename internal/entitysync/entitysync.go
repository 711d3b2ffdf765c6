// Package entitysync keeps domain entities and their rows aligned by id.
//
// Rows are never matched by position: sorting, filtering and edits elsewhere
// in the table move positions around. Entities are matched by their id column
// and relations by the (predecessor, successor, type) triple.
package entitysync

import (
	"fmt"
	"time"

	"rowbind/internal/model"
	"rowbind/internal/rowstore"
)

// Store is the part of a row store the synchronizer reads and writes.
type Store interface {
	RowCount() int
	Row(i int) *rowstore.Row
	AddRow() *rowstore.Row
	ColumnIndex(name string) int
}

var _ Store = (*rowstore.Table)(nil)

// NotFoundError reports a relation key with no matching row.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// FindOrCreateRow returns the first row whose id column equals entityID. When
// there is none it appends a new, empty row and returns that; filling in the
// id is left to the caller.
func FindOrCreateRow(entityID string, store Store) *rowstore.Row {
	if r, ok := findRow(entityID, rowstore.ColID, store); ok {
		return r
	}
	return store.AddRow()
}

func findRow(entityID, idCol string, store Store) (*rowstore.Row, bool) {
	for i := 0; i < store.RowCount(); i++ {
		r := store.Row(i)
		if r != nil && r.String(idCol) == entityID {
			return r, true
		}
	}
	return nil, false
}

// FindRelationRow returns the row holding the relation pred -typ-> succ.
// Relations are never created here; absence is a *NotFoundError.
func FindRelationRow(pred, succ string, typ model.RelationType, store Store) (*rowstore.Row, error) {
	return findRelationRow(pred, succ, typ, store, DefaultRelationColumns)
}

func findRelationRow(pred, succ string, typ model.RelationType, store Store, cols RelationColumns) (*rowstore.Row, error) {
	for i := 0; i < store.RowCount(); i++ {
		r := store.Row(i)
		if r == nil {
			continue
		}
		if r.String(cols.Predecessor) == pred &&
			r.String(cols.Successor) == succ &&
			r.String(cols.Type) == string(typ) {
			return r, nil
		}
	}
	return nil, &NotFoundError{Kind: "relation", ID: model.Relation{PredecessorID: pred, SuccessorID: succ, Type: typ}.String()}
}

// SyncChangedFields copies into original the first field, in the order name,
// completion, range, that differs from updated. Only that one field is
// applied; call again to pick up further differences. Ranges are adjusted in
// place so observers of original.Range see a change, not a new object.
// It reports whether a field was applied.
func SyncChangedFields(updated, original *model.Entity) bool {
	if updated == nil || original == nil {
		return false
	}
	if updated.Name != original.Name {
		original.Name = updated.Name
		return true
	}
	if updated.Completion != original.Completion {
		original.Completion = updated.Completion
		return true
	}
	if !updated.Range.Equal(original.Range) {
		switch {
		case updated.Range == nil:
			original.Range = nil
		case original.Range == nil:
			original.Range = model.NewRange(updated.Range.Lower(), updated.Range.Upper())
		default:
			original.Range.Adjust(updated.Range.Lower(), updated.Range.Upper())
		}
		return true
	}
	return false
}

// ValuesEqual reports whether a and b agree exactly on name, both range bounds
// and completion. A nil b is never equal.
func ValuesEqual(a, b *model.Entity) bool {
	if a == nil || b == nil {
		return false
	}
	return a.Name == b.Name &&
		a.Range.Equal(b.Range) &&
		a.Completion == b.Completion
}

// rangeBounds returns the bounds of r, or zero times for nil.
func rangeBounds(r *model.Range) (time.Time, time.Time) {
	if r == nil {
		return time.Time{}, time.Time{}
	}
	return r.Lower(), r.Upper()
}
