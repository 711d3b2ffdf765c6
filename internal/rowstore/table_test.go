package rowstore

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetValueChecksTypesAndFiresOnce(t *testing.T) {
	tb := NewEntityTable()
	var events []Event
	stop := tb.Listen(func(ev Event) { events = append(events, ev) })
	defer stop()

	r := tb.AddRow()
	require.NoError(t, r.Set(ColName, "Design"))
	require.NoError(t, r.Set(ColName, "Design"))
	require.ErrorIs(t, r.Set(ColCompletion, "half"), ErrTypeMismatch)
	require.ErrorIs(t, r.Set(ColCompletion, math.NaN()), ErrTypeMismatch)
	require.ErrorIs(t, r.Set(ColCompletion, math.Inf(-1)), ErrTypeMismatch)
	require.ErrorIs(t, r.Set("missing", 1.0), ErrNoSuchColumn)
	require.ErrorIs(t, tb.SetValue(5, 0, "x"), ErrRowOutOfRange)

	require.Len(t, events, 2)
	assert.Equal(t, RowsInserted, events[0].Kind)
	assert.Equal(t, ValueChanged, events[1].Kind)
	assert.Equal(t, tb.ColumnIndex(ColName), events[1].Column)
	assert.Nil(t, events[1].Old)
	assert.Equal(t, "Design", events[1].New)
}

func TestRowIdentitySurvivesRemovalOfOthers(t *testing.T) {
	tb := NewEntityTable()
	a, b, c := tb.AddRow(), tb.AddRow(), tb.AddRow()
	require.NoError(t, c.Set(ColID, "c"))

	require.NoError(t, tb.RemoveRow(b.Index()))
	assert.Equal(t, 0, a.Index())
	assert.Equal(t, 1, c.Index())
	assert.Same(t, c, tb.Row(1))
	assert.Equal(t, "c", c.String(ColID))

	assert.Equal(t, -1, b.Index())
	assert.Nil(t, b.Table())
	assert.ErrorIs(t, b.Set(ColName, "x"), ErrDetachedRow)
}

func TestTimeCellsCompareByInstant(t *testing.T) {
	tb := NewEntityTable()
	r := tb.AddRow()
	utc := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	require.NoError(t, r.Set(ColLower, utc))

	v := tb.Version()
	require.NoError(t, r.Set(ColLower, utc.In(time.FixedZone("x", 3600))))
	assert.Equal(t, v, tb.Version())
}

func TestLoadedRows(t *testing.T) {
	tb := NewEntityTable()
	for i := 0; i < 3; i++ {
		tb.AddRow()
	}
	m := NewModel(tb)

	tb.SetLoaded(1)
	_, ok := m.RowValue(0)
	assert.True(t, ok)
	_, ok = m.RowValue(1)
	assert.False(t, ok)

	tb.AddRow()
	assert.False(t, tb.Loaded(3))

	tb.SetLoaded(-1)
	r, ok := m.RowValue(3)
	assert.True(t, ok)
	assert.Same(t, tb.Row(3), r)

	_, ok = m.RowValue(9)
	assert.False(t, ok)
}

func TestAddColumnAndUnsubscribe(t *testing.T) {
	tb := NewRelationTable()
	r := tb.AddRow()
	calls := 0
	stop := tb.Listen(func(Event) { calls++ })

	require.NoError(t, tb.AddColumn(Column{Name: "note", Type: TypeString}))
	assert.Error(t, tb.AddColumn(Column{Name: "note", Type: TypeString}))
	assert.Nil(t, r.Get("note"))
	assert.True(t, r.Empty())

	stop()
	require.NoError(t, r.Set("note", "x"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, map[string]any{
		ColRelationID: nil, ColPredecessor: nil, ColSuccessor: nil, ColType: nil, "note": "x",
	}, r.Values())
}

func TestModelIsStableLayer(t *testing.T) {
	tb := NewEntityTable()
	tb.AddRow()
	m := NewModel(tb)
	assert.True(t, m.HasStableIdentity())
	assert.Equal(t, 1, m.RowCount())
	assert.Equal(t, 6, m.ColumnCount())
	assert.Equal(t, tb.Version(), m.Version())
}

func TestNewIDIsUUIDv7(t *testing.T) {
	a, err := NewID()
	require.NoError(t, err)
	b, err := NewID()
	require.NoError(t, err)
	assert.Len(t, a, 36)
	assert.NotEqual(t, a, b)
	assert.Equal(t, byte('7'), a[14])
}
