// Package wait implements the FIFO blocking primitive of spec §4.9.
// The core's blocking operations (channel send/receive, poll, sleep,
// join) do not use it: they retry through their yield closure, and
// only the kill path calls into a Queue (Remove). A Queue is an intrusive
// doubly-linked list threaded through the *task.Task nodes it holds,
// the same link-field pattern internal/sched's ready queue uses, so a
// task is never queued on more than one list at a time (the "exactly
// one of {ready, one wait queue, neither}" invariant spec §4.9 states).
package wait

import (
	"sync"

	"viperos/internal/task"
)

// Queue is a FIFO wait list. The zero value is usable.
type Queue struct {
	mu         sync.Mutex
	head, tail *task.Task
	len        int
}

// Len returns the number of tasks currently waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.len
}

// Enqueue appends t to the tail of the queue and marks it Blocked.
// Callers must arrange for t to stop running (it is the scheduler's
// job to not re-pick a Blocked task) before or immediately after
// calling this.
func (q *Queue) Enqueue(t *task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t.State = task.Blocked
	t.WaitChannel = q
	t.SetNext(nil)
	t.SetPrev(q.tail)
	if q.tail != nil {
		q.tail.SetNext(t)
	} else {
		q.head = t
	}
	q.tail = t
	q.len++
}

// remove unlinks t from the queue; it is a no-op if t is not on q
// (dequeue is idempotent, per the contract internal/task.Manager.Kill
// relies on when waking a task that is about to be killed).
func (q *Queue) remove(t *task.Task) bool {
	if t.WaitChannel != q {
		return false
	}
	if prev := t.Prev(); prev != nil {
		prev.SetNext(t.Next())
	} else if q.head == t {
		q.head = t.Next()
	}
	if next := t.Next(); next != nil {
		next.SetPrev(t.Prev())
	} else if q.tail == t {
		q.tail = t.Prev()
	}
	t.SetNext(nil)
	t.SetPrev(nil)
	t.WaitChannel = nil
	q.len--
	return true
}

// WakeOne dequeues and returns the longest-waiting task, marking it
// Ready, or returns nil if the queue is empty, per spec §8's FIFO
// wake-order property.
func (q *Queue) WakeOne() *task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	t := q.head
	if t == nil {
		return nil
	}
	q.remove(t)
	t.State = task.Ready
	return t
}

// WakeAll dequeues and returns every waiting task in FIFO order,
// marking each Ready.
func (q *Queue) WakeAll() []*task.Task {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []*task.Task
	for t := q.head; t != nil; {
		next := t.Next()
		q.remove(t)
		t.State = task.Ready
		out = append(out, t)
		t = next
	}
	return out
}

// Remove forcibly dequeues t regardless of position, for the Kill
// path: a task being killed while blocked must leave its wait queue
// without being handed back to the scheduler as Ready.
func (q *Queue) Remove(t *task.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.remove(t)
}
