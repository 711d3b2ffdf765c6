// Package deferred runs work on a later turn of a cooperative UI loop.
//
// Nothing here starts goroutines to run tasks. A task posted while an event is
// being handled runs only after that event finishes, in the order it was
// posted relative to everything else queued on the same loop.
package deferred

// Task is a unit of deferred work.
type Task func()

// Scheduler accepts tasks for a later turn of the loop.
type Scheduler interface {
	Post(Task)
}
