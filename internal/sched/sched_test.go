package sched

import (
	"testing"

	"viperos/internal/mm/pmm"
	"viperos/internal/mm/vmm"
	"viperos/internal/task"
)

func newTestManager(t *testing.T, capacity int) *task.Manager {
	t.Helper()
	p, err := pmm.New(4<<20, nil)
	if err != nil {
		t.Fatalf("pmm.New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	v, err := vmm.New(p)
	if err != nil {
		t.Fatalf("vmm.New: %v", err)
	}
	pool := task.NewStackPool(p, v, 0x10000000, capacity)
	return task.NewManager(capacity, pool, 16, 16)
}

// TestYieldRoundTrip is the yield-round-trip scenario seed: a task
// that yields once and then exits must be dispatched twice by Step
// and end up Exited, never stuck Ready or Blocked.
func TestYieldRoundTrip(t *testing.T) {
	mgr := newTestManager(t, 4)
	idle, err := NewIdleTask(mgr)
	if err != nil {
		t.Fatalf("NewIdleTask: %v", err)
	}
	s := New(mgr, idle)

	done := make(chan struct{})
	tk, err := mgr.Create(task.CreateOpts{
		Name: "yielder",
		Entry: func(_ *task.Task, yield func()) {
			yield()
			close(done)
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	s.Enqueue(tk)

	for i := 0; i < 10; i++ {
		s.Step()
		select {
		case <-done:
			return
		default:
		}
	}
	t.Fatalf("task did not complete within 10 steps, state=%s", tk.State)
}

// TestSchedulerFallsBackToIdle checks that Step dispatches the idle
// task whenever the ready queue is empty, per §4.8's idle-task
// guarantee, without requiring it to ever be enqueued.
func TestSchedulerFallsBackToIdle(t *testing.T) {
	mgr := newTestManager(t, 2)
	idle, err := NewIdleTask(mgr)
	if err != nil {
		t.Fatalf("NewIdleTask: %v", err)
	}
	s := New(mgr, idle)

	ran := s.Step()
	if ran != idle {
		t.Fatalf("Step ran %v, want idle task", ran)
	}
}
