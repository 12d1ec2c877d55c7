// Package schedule provides a deferred task queue driven by game time.
//
// The queue has no goroutines or timers of its own. The host advances the
// clock and calls Poll once per tick; due tasks run synchronously inside
// Poll, in due order, ties broken by scheduling order. A task scheduled
// while Poll is running never runs during that same Poll, even if it is
// already due.
package schedule

import (
	"container/heap"
	"sync"
	"time"
)

// TaskID identifies a scheduled task. The zero value is never issued.
type TaskID uint64

type task struct {
	id        TaskID
	due       time.Duration
	seq       uint64
	fn        func()
	index     int
	cancelled bool
}

// Queue holds tasks keyed by their due time on the host's game clock.
// Times are durations since the host's epoch (scene start).
type Queue struct {
	mu    sync.Mutex
	tasks taskHeap
	byID  map[TaskID]*task
	next  TaskID
	seq   uint64
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{
		byID: make(map[TaskID]*task),
	}
}

// After schedules fn to run at the first Poll at or after now+delay.
// A negative delay is treated as zero.
func (q *Queue) After(now, delay time.Duration, fn func()) TaskID {
	if delay < 0 {
		delay = 0
	}
	return q.At(now+delay, fn)
}

// At schedules fn to run at the first Poll at or after due.
// A nil fn is ignored and yields the zero TaskID.
func (q *Queue) At(due time.Duration, fn func()) TaskID {
	if fn == nil {
		return 0
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	q.seq++
	t := &task{
		id:  q.next,
		due: due,
		seq: q.seq,
		fn:  fn,
	}
	heap.Push(&q.tasks, t)
	q.byID[t.id] = t
	return t.id
}

// Cancel removes a pending task. It returns false if the task already ran,
// was already cancelled, or never existed.
func (q *Queue) Cancel(id TaskID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	t, ok := q.byID[id]
	if !ok {
		return false
	}
	delete(q.byID, id)
	t.cancelled = true
	if t.index >= 0 {
		heap.Remove(&q.tasks, t.index)
	}
	return true
}

// Poll runs every task due at or before now and returns how many ran.
// Tasks run without the queue lock held, so they may schedule or cancel
// other tasks. Cancelling a task that is part of the current batch
// prevents it from running.
func (q *Queue) Poll(now time.Duration) int {
	q.mu.Lock()
	var batch []*task
	for q.tasks.Len() > 0 && q.tasks[0].due <= now {
		batch = append(batch, heap.Pop(&q.tasks).(*task)) //nolint:errcheck // only *task is pushed
	}
	q.mu.Unlock()

	ran := 0
	for _, t := range batch {
		q.mu.Lock()
		if t.cancelled {
			q.mu.Unlock()
			continue
		}
		delete(q.byID, t.id)
		q.mu.Unlock()

		t.fn()
		ran++
	}
	return ran
}

// Pending reports whether id is still waiting to run.
func (q *Queue) Pending(id TaskID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.byID[id]
	return ok
}

// Len returns the number of pending tasks.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.byID)
}

// Next returns the due time of the earliest pending task.
func (q *Queue) Next() (time.Duration, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tasks.Len() == 0 {
		return 0, false
	}
	return q.tasks[0].due, true
}

// Clear drops every pending task.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.byID {
		t.cancelled = true
	}
	q.tasks = nil
	q.byID = make(map[TaskID]*task)
}

// taskHeap is a min-heap of tasks by due time, then scheduling order.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task) //nolint:errcheck // heap.Interface requires any; we only push *task
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}
