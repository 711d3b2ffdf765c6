package deferred

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// FlushMsg asks the owning Queue to run the tasks that were waiting when the
// message was produced.
type FlushMsg struct {
	q *Queue
}

// Queue defers tasks onto a bubbletea program's Update loop. Post records the
// task; the host returns Cmd() from Update, and the resulting FlushMsg drains
// the queue on a later Update call.
type Queue struct {
	mu    sync.Mutex
	tasks []Task
}

func NewQueue() *Queue { return &Queue{} }

// Post enqueues t. Safe to call from tea.Cmd goroutines.
func (q *Queue) Post(t Task) {
	if t == nil {
		return
	}
	q.mu.Lock()
	q.tasks = append(q.tasks, t)
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Cmd returns a command delivering a FlushMsg, or nil when nothing is queued.
func (q *Queue) Cmd() tea.Cmd {
	if q.Len() == 0 {
		return nil
	}
	return func() tea.Msg { return FlushMsg{q: q} }
}

// Flush runs, in FIFO order, the tasks queued at the time of the call. Tasks
// posted while flushing wait for the next flush.
func (q *Queue) Flush() int {
	q.mu.Lock()
	batch := q.tasks
	q.tasks = nil
	q.mu.Unlock()
	for _, t := range batch {
		t()
	}
	return len(batch)
}

// Handle flushes when msg is this queue's FlushMsg. It reports whether the
// message was consumed and returns a follow-up command for tasks posted
// during the flush.
func (q *Queue) Handle(msg tea.Msg) (bool, tea.Cmd) {
	fm, ok := msg.(FlushMsg)
	if !ok || fm.q != q {
		return false, nil
	}
	q.Flush()
	return true, q.Cmd()
}
