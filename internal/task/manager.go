// Manager owns the TCB table and kernel-stack pool: task creation,
// exit, kill, reap, fork, and listing, per spec §4.7. It does not
// touch ready/wait queue membership — that belongs to internal/sched
// and internal/wait, which hold *Task values Manager hands out and
// move them between states by calling back into Manager only for
// lifecycle transitions (Exit, Kill), never for scheduling decisions
// (the ownership split spec §9's design notes call for).
package task

import (
	"fmt"
	"sync"

	"github.com/mohae/deepcopy"

	"viperos/internal/arch"
	"viperos/internal/cap"
	"viperos/internal/vfs"
)

// Manager is the process-wide TCB table singleton.
type Manager struct {
	mu    sync.Mutex
	slots []*Task
	stack *StackPool
	next  int

	maxFDs, maxHandles int
}

// NewManager creates a manager with capacity TCB slots backed by pool
// for kernel stacks.
func NewManager(capacity int, pool *StackPool, maxFDs, maxHandles int) *Manager {
	return &Manager{
		slots:      make([]*Task, capacity),
		stack:      pool,
		maxFDs:     maxFDs,
		maxHandles: maxHandles,
	}
}

func (m *Manager) findFreeSlotLocked() (int, error) {
	for i, s := range m.slots {
		if s == nil || s.State == Invalid {
			return i, nil
		}
	}
	return -1, fmt.Errorf("task: table full")
}

// CreateOpts configures a new task; zero values pick sane kernel-task
// defaults.
type CreateOpts struct {
	Name     string
	Priority uint8
	Policy   Policy
	Flags    Flags
	ParentID int
	Entry    func(*Task, func())
	Arg      any
}

// Create allocates a TCB slot and a kernel stack, and initializes the
// task so that its first scheduled run invokes opts.Entry(t), per
// spec §4.7's task creation contract. The returned task is in state
// Ready but is not yet linked into any queue; callers (internal/sched)
// are responsible for enqueuing it.
func (m *Manager) Create(opts CreateOpts) (*Task, error) {
	m.mu.Lock()
	idx, err := m.findFreeSlotLocked()
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	id := m.next + 1
	m.next = id
	m.mu.Unlock()

	base, top, err := m.stack.Acquire()
	if err != nil {
		return nil, err
	}

	t := &Task{
		ID:         id,
		Name:       opts.Name,
		State:      Ready,
		Flags:      opts.Flags,
		Priority:   opts.Priority,
		Policy:     opts.Policy,
		KStackBase: base,
		KStackTop:  top,
		ParentID:   opts.ParentID,
		Cwd:        "/",
		TrapFrame:  &arch.Frame{},
		FDTable:    vfs.NewFDTable(m.maxFDs),
		Handles:    cap.NewTable(m.maxHandles),
		entry:      opts.Entry,
		arg:        opts.Arg,
		turn:       make(chan struct{}),
		yielded:    make(chan struct{}),
		done:       make(chan struct{}),
	}

	m.mu.Lock()
	m.slots[idx] = t
	m.mu.Unlock()
	go t.run()
	return t, nil
}

// CreateUser is the user-task variant of Create: it additionally
// records the user entry point/stack the EL1 helper will enter on
// first run (§4.7).
func (m *Manager) CreateUser(opts CreateOpts, userEntry, userStack uint64) (*Task, error) {
	t, err := m.Create(opts)
	if err != nil {
		return nil, err
	}
	t.Flags |= FlagUser
	t.UserEntry = userEntry
	t.UserStack = userStack
	t.AddrSpaceOwner = true
	return t, nil
}

// Exit marks t Exited, records its exit code, and updates parent
// zombie linkage by leaving the slot populated (but not runnable)
// until Reap runs. It does not reschedule; the scheduler does that
// after calling Exit.
func (m *Manager) Exit(t *Task, code int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.State = Exited
	t.ExitCode = code
}

// Kill implements SIGKILL/SIGTERM/SIGSTOP/SIGCONT semantics for pid,
// per spec §4.7. wake, if non-nil, is called when a Blocked target
// must be dequeued from its wait queue before being marked Exited
// (wait-queue dequeue is idempotent, so this is always safe to call).
func (m *Manager) Kill(pid int, signal int, current *Task, wake func(*Task)) error {
	t := m.Lookup(pid)
	if t == nil {
		return fmt.Errorf("task: no such pid %d", pid)
	}
	switch signal {
	case SigStop, SigCont:
		return nil
	case SigKill, SigTerm:
		if t.State == Blocked && wake != nil {
			wake(t)
		}
		if t == current {
			m.Exit(t, int32(-signal))
			return nil
		}
		m.mu.Lock()
		t.ExitCode = int32(-signal)
		t.State = Exited
		m.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("task: unsupported signal %d", signal)
	}
}

// Signal numbers the core must recognize structurally (§4.7).
const (
	SigKill = 9
	SigTerm = 15
	SigStop = 19
	SigCont = 18
)

// Reap walks the table, returning each Exited task's kernel stack to
// the free pool and clearing its slot (id=0, state=Invalid) so it may
// be reused by a subsequent Create, per spec §4.7/§8.
func (m *Manager) Reap() int {
	m.mu.Lock()
	var toFree []*Task
	for i, t := range m.slots {
		if t != nil && t.State == Exited {
			toFree = append(toFree, t)
			m.slots[i] = nil
		}
	}
	m.mu.Unlock()

	for _, t := range toFree {
		_ = m.stack.Release(t.KStackBase)
		close(t.done)
	}
	return len(toFree)
}

// Lookup returns the task with the given id, or nil.
func (m *Manager) Lookup(id int) *Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.slots {
		if t != nil && t.ID == id {
			return t
		}
	}
	return nil
}

// Fork creates a child task running entry, per spec §6's fork syscall
// (0x00-0x0F range). The child inherits parent's Cwd and a deep copy
// of its signal state; its FD and handle tables start empty, as
// Create leaves them, and no address space is cloned.
func (m *Manager) Fork(parent *Task, entry func(*Task, func())) (*Task, error) {
	child, err := m.Create(CreateOpts{
		Name:     parent.Name + "-fork",
		Priority: parent.Priority,
		Policy:   parent.Policy,
		Flags:    parent.Flags &^ FlagIdle,
		ParentID: parent.ID,
		Entry:    entry,
	})
	if err != nil {
		return nil, err
	}
	child.Cwd = parent.Cwd
	child.Signals = deepcopy.Copy(parent.Signals).(SignalState)
	return child, nil
}

// List fills dst with up to len(dst) TaskInfo snapshots, per the §6
// TaskInfo ABI structure, and returns the number written.
func (m *Manager) List(dst []Info) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.slots {
		if t == nil || n >= len(dst) {
			continue
		}
		dst[n] = Info{
			ID:          uint32(t.ID),
			State:       uint8(t.State),
			Flags:       uint8(t.Flags),
			Priority:    t.Priority,
			Name:        t.Name,
			CPUTicks:    t.CPUTicks,
			SwitchCount: t.SwitchCount,
			ParentID:    uint32(t.ParentID),
			ExitCode:    t.ExitCode,
		}
		n++
	}
	return n
}

// Info is the Go-side shape of §6's TaskInfo ABI structure (the byte
// layout itself is produced by internal/syscalls/viper's marshaling
// code; this is the value type callers build and read).
type Info struct {
	ID          uint32
	State       uint8
	Flags       uint8
	Priority    uint8
	Name        string
	CPUTicks    uint64
	SwitchCount uint64
	ParentID    uint32
	ExitCode    int32
}
