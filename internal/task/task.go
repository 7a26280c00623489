// Package task owns the TCB lifecycle: creation, kernel-stack
// allocation with guard pages, exit/kill/reap, fork, and the
// introspection snapshot used by the task-listing syscall, per spec
// §4.7 and §3's "Task control block" data model.
package task

import (
	"viperos/internal/arch"
	"viperos/internal/cap"
	"viperos/internal/vfs"
)

// State is one of the five TCB lifecycle states.
type State uint8

const (
	Invalid State = iota
	Ready
	Running
	Blocked
	Exited
)

func (s State) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Exited:
		return "exited"
	default:
		return "invalid"
	}
}

// Flags are the task flag bits from §6's ABI structures.
type Flags uint8

const (
	FlagKernel Flags = 1 << 0
	FlagIdle   Flags = 1 << 1
	FlagUser   Flags = 1 << 2
)

// Policy is the scheduling policy, per spec §4.8.
type Policy uint8

const (
	SchedOther Policy = iota
	SchedFIFO
	SchedRR
)

// SignalState holds the per-task signal bits spec §4.7 requires the
// core to preserve across scheduling, even though interpretation is
// left to a higher layer.
type SignalState struct {
	Handlers     [64]uintptr // handler addresses, index by signal number
	HandlerFlags [64]uint32
	BlockedMask  uint64
	PendingMask  uint64
	SavedFrame   *arch.Frame // set mid-signal-delivery; sigreturn restores it
}

// Task is the TCB, per spec §3.
type Task struct {
	ID    int
	Name  string
	State State
	Flags Flags

	Priority uint8 // 0 = highest, 255 = lowest
	Policy   Policy
	Slice    int // remaining time-slice ticks

	Context arch.SavedContext // populated by the arm64 backend; diagnostic on the goroutine backend

	KStackBase, KStackTop uint64
	TrapFrame             *arch.Frame

	// Scheduler link. Exactly one of {on ready queue, on one wait
	// queue, on neither} holds at any time (§4.9's single rule). next
	// and prev are owned by whichever queue currently holds the task;
	// WaitChannel is an opaque diagnostic identifying that queue.
	next, prev  *Task
	WaitChannel any

	ExitCode int32

	CPUTicks    uint64
	SwitchCount uint64

	ParentID int
	AddrSpaceOwner bool // true for user tasks; kernel tasks share no address space

	UserEntry, UserStack uint64
	Cwd                  string

	Signals SignalState

	FDTable     *vfs.FDTable
	Handles     *cap.Table

	// runtime hooks for the goroutine-based context-switch backend
	// (§5): each Task is its own goroutine, parked on turn until the
	// scheduler calls Resume, and reporting back on yielded each time
	// it cooperatively yields or returns.
	turn    chan struct{}
	yielded chan struct{}
	done    chan struct{}
	entry   func(*Task, func())
	arg     any
}

// Arg returns the creation-time argument passed to the task's entry
// point (the analogue of the x0 argument register at EL0 entry).
func (t *Task) Arg() any { return t.arg }

// run is the task's goroutine body; started once by Manager.Create.
// It blocks until the scheduler grants the first turn, then calls
// entry with a yield closure the entry point invokes to cooperatively
// give up the remainder of its slice (spec §4.8's cooperative yield).
func (t *Task) run() {
	<-t.turn
	yield := func() {
		t.yielded <- struct{}{}
		<-t.turn
	}
	t.entry(t, yield)
	close(t.done)
	t.yielded <- struct{}{}
}

// Resume unblocks the task's goroutine for one quantum and waits for
// it to either yield or return. It reports whether the task's entry
// point has returned (equivalently, whether done is now closed).
func (t *Task) Resume() (finished bool) {
	t.turn <- struct{}{}
	<-t.yielded
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the task's entry point returns.
func (t *Task) Done() <-chan struct{} { return t.done }

// IsRunnable reports whether t belongs on the ready queue.
func (t *Task) IsRunnable() bool { return t.State == Ready }

// SetLink sets the intrusive queue pointers. Only the owning queue
// implementation (sched.readyQueue or wait.Queue) should call this.
func (t *Task) SetLink(next, prev *Task) { t.next, t.prev = next, prev }

// Next and Prev expose the intrusive link for queue implementations in
// other packages.
func (t *Task) Next() *Task { return t.next }
func (t *Task) Prev() *Task { return t.prev }
func (t *Task) SetNext(n *Task) { t.next = n }
func (t *Task) SetPrev(p *Task) { t.prev = p }
