package tui

import (
	"time"

	"rowbind/internal/entitysync"
	"rowbind/internal/model"
	"rowbind/internal/rowstore"
)

// chart is the domain side of the grid: one long-lived *model.Entity per
// entity row. Row edits are pulled into these entities in place so that range
// observers keep watching the same objects.
type chart struct {
	sync *entitysync.Synchronizer

	entities map[string]*model.Entity
	observed map[string]*model.Range
	stopObs  map[string]func()

	// adjusted counts in-place range moves per entity since startup.
	adjusted map[string]int
}

func newChart(s *entitysync.Synchronizer) *chart {
	c := &chart{
		sync:     s,
		entities: map[string]*model.Entity{},
		observed: map[string]*model.Range{},
		stopObs:  map[string]func(){},
		adjusted: map[string]int{},
	}
	c.reload()
	return c
}

func (c *chart) entity(id string) (*model.Entity, bool) {
	e, ok := c.entities[id]
	return e, ok
}

// reload pulls every row, keeping existing entity objects.
func (c *chart) reload() {
	seen := map[string]bool{}
	for i := 0; i < c.sync.Entities.RowCount(); i++ {
		r := c.sync.Entities.Row(i)
		if r == nil {
			continue
		}
		if id := r.String(c.sync.Cols.ID); id != "" {
			c.pull(r)
			seen[id] = true
		}
	}
	for id := range c.entities {
		if !seen[id] {
			c.drop(id)
		}
	}
	c.relink()
}

func (c *chart) pull(r *rowstore.Row) {
	id := r.String(c.sync.Cols.ID)
	if id == "" {
		return
	}
	e, ok := c.entities[id]
	if !ok {
		e = c.sync.EntityFromRow(r)
		c.entities[id] = e
	} else {
		c.sync.Pull(r, e)
	}
	c.watch(e)
}

// watch keeps exactly one observer on the entity's current range.
func (c *chart) watch(e *model.Entity) {
	if c.observed[e.ID] == e.Range {
		return
	}
	if stop := c.stopObs[e.ID]; stop != nil {
		stop()
		delete(c.stopObs, e.ID)
	}
	c.observed[e.ID] = e.Range
	if e.Range == nil {
		return
	}
	id := e.ID
	c.stopObs[id] = e.Range.Observe(func(*model.Range, time.Time, time.Time) {
		c.adjusted[id]++
	})
}

func (c *chart) drop(id string) {
	if stop := c.stopObs[id]; stop != nil {
		stop()
	}
	delete(c.stopObs, id)
	delete(c.observed, id)
	delete(c.entities, id)
}

// relink rebuilds child lists from parent ids.
func (c *chart) relink() {
	for _, e := range c.entities {
		e.Children = e.Children[:0]
	}
	for _, e := range c.entities {
		if e.ParentID == nil {
			continue
		}
		if p, ok := c.entities[*e.ParentID]; ok {
			p.AddChild(e.ID)
		}
	}
}

// onTableEvent keeps entities aligned with the entity table.
func (c *chart) onTableEvent(ev rowstore.Event) {
	switch ev.Kind {
	case rowstore.ValueChanged:
		if r := c.sync.Entities.Row(ev.Row); r != nil {
			c.pull(r)
			if ev.Column == c.sync.Entities.ColumnIndex(c.sync.Cols.Parent) {
				c.relink()
			}
		}
	case rowstore.RowsRemoved, rowstore.StructureChanged:
		c.reload()
	}
}

// depth counts ancestors, stopping at cycles.
func (c *chart) depth(id string) int {
	d := 0
	seen := map[string]bool{id: true}
	e, ok := c.entities[id]
	for ok && e.ParentID != nil && d < 16 {
		p := *e.ParentID
		if seen[p] {
			break
		}
		seen[p] = true
		e, ok = c.entities[p]
		if ok {
			d++
		}
	}
	return d
}

// span returns the earliest lower and latest upper bound over all entities.
func (c *chart) span() (time.Time, time.Time, bool) {
	var lo, hi time.Time
	found := false
	for _, e := range c.entities {
		if e.Range == nil {
			continue
		}
		if !found || e.Range.Lower().Before(lo) {
			lo = e.Range.Lower()
		}
		if !found || e.Range.Upper().After(hi) {
			hi = e.Range.Upper()
		}
		found = true
	}
	return lo, hi, found
}
