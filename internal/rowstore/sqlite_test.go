package rowstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "rows.sqlite")

	ents := NewEntityTable()
	require.NoError(t, ents.AddColumn(Column{Name: "priority", Type: TypeInt}))
	lower := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	r := ents.AddRow()
	require.NoError(t, r.Set(ColID, "e1"))
	require.NoError(t, r.Set(ColName, "Build"))
	require.NoError(t, r.Set(ColCompletion, 0.25))
	require.NoError(t, r.Set(ColLower, lower))
	require.NoError(t, r.Set("priority", 3))
	ents.AddRow()

	rels := NewRelationTable()
	rr := rels.AddRow()
	require.NoError(t, rr.Set(ColPredecessor, "e1"))

	require.NoError(t, SaveSQLite(ctx, path, ents, rels))

	got, err := LoadSQLite(ctx, path, EntitiesTable)
	require.NoError(t, err)
	require.Equal(t, 2, got.RowCount())
	assert.Equal(t, ents.Columns(), got.Columns())

	g := got.Row(0)
	assert.Equal(t, "e1", g.String(ColID))
	assert.Equal(t, "Build", g.String(ColName))
	assert.Equal(t, 0.25, g.Float(ColCompletion))
	assert.True(t, lower.Equal(g.Time(ColLower)))
	assert.Nil(t, g.Get(ColUpper))
	assert.Equal(t, 3, g.Get("priority"))
	assert.True(t, got.Row(1).Empty())

	gr, err := LoadSQLite(ctx, path, RelationsTable)
	require.NoError(t, err)
	assert.Equal(t, "e1", gr.Row(0).String(ColPredecessor))
}

func TestSaveReplacesRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.sqlite")

	tb := NewRelationTable()
	tb.AddRow()
	tb.AddRow()
	require.NoError(t, SaveSQLite(ctx, path, tb))

	require.NoError(t, tb.RemoveRow(0))
	require.NoError(t, SaveSQLite(ctx, path, tb))

	got, err := LoadSQLite(ctx, path, RelationsTable)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RowCount())
}

func TestLoadOrCreate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "rows.sqlite")

	_, err := LoadSQLite(ctx, path, EntitiesTable)
	require.ErrorIs(t, err, ErrNoSuchTable)

	tb, err := LoadOrCreate(ctx, path, EntitiesTable, NewEntityTable)
	require.NoError(t, err)
	assert.Equal(t, EntitiesTable, tb.Name())
	assert.Equal(t, 0, tb.RowCount())
}
