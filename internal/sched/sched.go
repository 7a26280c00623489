// Package sched implements the single-CPU cooperative scheduler with
// time-slice accounting, per spec §4.8. It holds the ready queue —
// the intrusive FIFO list threaded through the same Next/Prev link
// fields internal/wait uses for blocked tasks, so a task is provably
// never on both lists at once (§4.9). Each dispatch is one call to
// task.Task.Resume, which unblocks that task's own goroutine for one
// quantum; this is the goroutine-based backend §5 documents as the
// portable stand-in for the arm64 ContextSwitch/EnterUserMode pair in
// internal/arch, used instead on any host the kernel is developed and
// tested on.
package sched

import (
	"sync"

	"viperos/internal/klog"
	"viperos/internal/task"
)

// DefaultSlice is the number of ticks a SchedRR task receives per
// dispatch before the scheduler considers it to have exhausted its
// quantum (§4.8). Because dispatch here is cooperative (the goroutine
// backend cannot force a running task to stop), this bounds how long
// a well-behaved task may run between calls to its yield closure
// before CPUTicks/fairness accounting treats it as having overrun.
const DefaultSlice = 10

// Scheduler is the process-wide ready-queue owner and dispatch loop.
// It is not safe to run two Scheduler.Run loops over the same
// Manager concurrently (there is exactly one "CPU").
type Scheduler struct {
	mu         sync.Mutex
	manager    *task.Manager
	head, tail *task.Task
	count      int

	idle    *task.Task
	current *task.Task
	ticks   uint64
}

// New creates a scheduler over manager. idle, if non-nil, is
// dispatched whenever the ready queue is empty (spec §4.8's idle
// task); it should never return from its entry point.
func New(manager *task.Manager, idle *task.Task) *Scheduler {
	return &Scheduler{manager: manager, idle: idle}
}

// Enqueue places t at the tail of the ready queue. t must not already
// be linked into the ready queue or a wait queue.
func (s *Scheduler) Enqueue(t *task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.State = task.Ready
	t.Slice = DefaultSlice
	t.SetNext(nil)
	t.SetPrev(s.tail)
	if s.tail != nil {
		s.tail.SetNext(t)
	} else {
		s.head = t
	}
	s.tail = t
	s.count++
}

func (s *Scheduler) dequeue() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.head
	if t == nil {
		return nil
	}
	s.head = t.Next()
	if s.head != nil {
		s.head.SetPrev(nil)
	} else {
		s.tail = nil
	}
	t.SetNext(nil)
	t.SetPrev(nil)
	s.count--
	return t
}

// Len returns the number of runnable tasks waiting for the CPU.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Current returns the task dispatched by the most recent Step call,
// or nil before the first dispatch.
func (s *Scheduler) Current() *task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Step dispatches exactly one task for one quantum: the next ready
// task if any, otherwise the idle task. It returns the task that ran,
// or nil if there was nothing runnable and no idle task configured.
func (s *Scheduler) Step() *task.Task {
	t := s.dequeue()
	if t == nil {
		t = s.idle
		if t == nil {
			return nil
		}
	}

	s.mu.Lock()
	s.current = t
	s.mu.Unlock()

	t.State = task.Running
	finished := t.Resume()
	t.SwitchCount++
	t.CPUTicks += uint64(DefaultSlice)

	switch {
	case finished:
		s.manager.Exit(t, 0)
	case t.State == task.Running && t == s.idle:
		// The idle task only runs as the empty-queue fallback; it is
		// never placed on the ready queue.
		t.State = task.Ready
	case t.State == task.Running:
		// The entry point returned control via its yield closure
		// without transitioning itself to Blocked; it is still
		// runnable, so it goes back on the tail of the ready queue.
		s.Enqueue(t)
	case t.State == task.Blocked && t.WaitChannel == nil:
		// Marked Blocked by a retry loop (ipc.BlockingSend/BlockingRecv,
		// ipc.SleepMS, the wait syscall) that is on no wait.Queue and
		// retries once its yield returns, so it goes back on the ready
		// queue to be dispatched again.
		s.Enqueue(t)
	case t.State == task.Blocked:
		// Already linked into a wait.Queue by the entry point before
		// it yielded; nothing further to do here.
	default:
		klog.Warnf("sched: task %d left Step in unexpected state %s", t.ID, t.State)
	}

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return t
}

// Tick advances the scheduler's tick counter, for callers (internal/timer)
// that drive the 1 kHz architected timer; it is bookkeeping only, since
// Step already accounts a full DefaultSlice per dispatch in this
// cooperative model.
func (s *Scheduler) Tick() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticks++
	return s.ticks
}

// Run drives Step in a loop until stop is closed, or until Step finds
// nothing to run (no ready task and no idle task).
func (s *Scheduler) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		if s.Step() == nil {
			return
		}
	}
}

// Wake moves t from Blocked back onto the ready queue. Callers
// typically get t from a wait.Queue.WakeOne/WakeAll call, which has
// already set t.State to Ready; Wake just performs the enqueue.
func (s *Scheduler) Wake(t *task.Task) {
	s.Enqueue(t)
}

// NewIdleTask creates the scheduler's idle task: an infinite loop that
// yields every turn, per spec §4.8 ("a task that runs when nothing
// else is runnable and never itself blocks or exits").
func NewIdleTask(manager *task.Manager) (*task.Task, error) {
	return manager.Create(task.CreateOpts{
		Name:     "idle",
		Priority: 255,
		Policy:   task.SchedOther,
		Flags:    task.FlagKernel | task.FlagIdle,
		Entry: func(t *task.Task, yield func()) {
			for {
				yield()
			}
		},
	})
}
