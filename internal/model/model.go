package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Entity is a scheduling entry kept in sync with a row of the entity table.
type Entity struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Completion float64 `json:"completion"`
	Range      *Range  `json:"range,omitempty"`

	ParentID *string  `json:"parentId,omitempty"`
	Children []string `json:"children,omitempty"`
}

// Clone returns a detached copy. The range is copied by value so that edits
// made on the clone never reach observers of the original range.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	out := *e
	if e.Range != nil {
		out.Range = NewRange(e.Range.Lower(), e.Range.Upper())
	}
	if e.ParentID != nil {
		p := *e.ParentID
		out.ParentID = &p
	}
	out.Children = append([]string(nil), e.Children...)
	return &out
}

// SetCompletion clamps c into [0,1]. NaN counts as no progress.
func (e *Entity) SetCompletion(c float64) {
	switch {
	case math.IsNaN(c), c < 0:
		c = 0
	case c > 1:
		c = 1
	}
	e.Completion = c
}

func (e *Entity) AddChild(id string) {
	for _, c := range e.Children {
		if c == id {
			return
		}
	}
	e.Children = append(e.Children, id)
}

func (e *Entity) RemoveChild(id string) {
	for i, c := range e.Children {
		if c == id {
			e.Children = append(e.Children[:i], e.Children[i+1:]...)
			return
		}
	}
}

// RangeListener is notified after a range changed its bounds.
type RangeListener func(r *Range, oldLower, oldUpper time.Time)

// Range is a mutable [lower, upper] interval. Observers hold on to the
// pointer, so the bounds are changed with Adjust rather than by swapping ranges.
type Range struct {
	lower time.Time
	upper time.Time

	listeners []rangeObserver
	nextObsID int
}

type rangeObserver struct {
	id int
	fn RangeListener
}

// NewRange builds a range; bounds are swapped when given out of order.
func NewRange(lower, upper time.Time) *Range {
	if upper.Before(lower) {
		lower, upper = upper, lower
	}
	return &Range{lower: lower, upper: upper}
}

func (r *Range) Lower() time.Time { return r.lower }
func (r *Range) Upper() time.Time { return r.upper }

func (r *Range) Duration() time.Duration { return r.upper.Sub(r.lower) }

// Equal compares bounds only.
func (r *Range) Equal(o *Range) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.lower.Equal(o.lower) && r.upper.Equal(o.upper)
}

// Adjust moves both bounds in place and notifies listeners when anything changed.
func (r *Range) Adjust(lower, upper time.Time) {
	if upper.Before(lower) {
		lower, upper = upper, lower
	}
	if r.lower.Equal(lower) && r.upper.Equal(upper) {
		return
	}
	oldLower, oldUpper := r.lower, r.upper
	r.lower, r.upper = lower, upper
	for _, o := range append([]rangeObserver(nil), r.listeners...) {
		o.fn(r, oldLower, oldUpper)
	}
}

// Observe registers l and returns a func that removes it again.
func (r *Range) Observe(l RangeListener) func() {
	r.nextObsID++
	id := r.nextObsID
	r.listeners = append(r.listeners, rangeObserver{id: id, fn: l})
	return func() {
		for i, o := range r.listeners {
			if o.id == id {
				r.listeners = append(r.listeners[:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

type rangeWire struct {
	Lower time.Time `json:"lower"`
	Upper time.Time `json:"upper"`
}

func (r *Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(rangeWire{Lower: r.lower, Upper: r.upper})
}

// UnmarshalJSON overwrites the bounds without notifying observers; it is only
// used while decoding fresh values.
func (r *Range) UnmarshalJSON(b []byte) error {
	var w rangeWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Upper.Before(w.Lower) {
		w.Lower, w.Upper = w.Upper, w.Lower
	}
	r.lower, r.upper = w.Lower, w.Upper
	return nil
}

func (r *Range) String() string {
	return fmt.Sprintf("[%s, %s]", r.lower.Format(time.DateOnly), r.upper.Format(time.DateOnly))
}

// RelationType is the scheduling dependency code between two entities.
type RelationType string

const (
	FinishToStart  RelationType = "FS"
	StartToStart   RelationType = "SS"
	FinishToFinish RelationType = "FF"
	StartToFinish  RelationType = "SF"
)

func ParseRelationType(s string) (RelationType, error) {
	switch t := RelationType(strings.ToUpper(strings.TrimSpace(s))); t {
	case FinishToStart, StartToStart, FinishToFinish, StartToFinish:
		return t, nil
	}
	return "", fmt.Errorf("unknown relation type: %q (expected FS|SS|FF|SF)", s)
}

// Relation links a predecessor to a successor. The triple is its identity.
type Relation struct {
	PredecessorID string       `json:"predecessorId"`
	SuccessorID   string       `json:"successorId"`
	Type          RelationType `json:"type"`
}

func (r Relation) String() string {
	return r.PredecessorID + " -" + string(r.Type) + "-> " + r.SuccessorID
}
