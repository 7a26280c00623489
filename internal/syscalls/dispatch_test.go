package syscalls

import (
	"testing"

	"viperos/internal/arch"
	"viperos/internal/task"
)

func TestDispatchRoundTrip(t *testing.T) {
	k := NewKernel()
	k.Register(100, Supported("test_add", func(_ *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		return Ok(args[0]+args[1], 0, 0)
	}))

	current := &task.Task{ID: 1}
	frame := &arch.Frame{}
	frame.SetX(8, 100)
	frame.SetX(0, 2)
	frame.SetX(1, 3)

	ok := k.Dispatch(current, frame, func() {})
	if !ok {
		t.Fatalf("Dispatch reported unrecognized for a registered number")
	}
	if got := frame.X(0); got != uint64(VOK) {
		t.Fatalf("x0 = %d, want VOK (%d)", got, VOK)
	}
	if got := frame.X(1); got != 5 {
		t.Fatalf("x1 = %d, want 5 (2+3)", got)
	}
}

func TestDispatchUnknownNumberReturnsNotSupported(t *testing.T) {
	k := NewKernel()
	current := &task.Task{ID: 1}
	frame := &arch.Frame{}
	frame.SetX(8, 999)

	ok := k.Dispatch(current, frame, func() {})
	if ok {
		t.Fatalf("Dispatch reported recognized for an unregistered number")
	}
	if got := frame.X(0); got != uint64(VErrNotSupported) {
		t.Fatalf("x0 = %d, want VErrNotSupported (%d)", got, VErrNotSupported)
	}
}

func TestDispatchFailureWritesBackError(t *testing.T) {
	k := NewKernel()
	k.Register(101, Supported("test_fail", func(_ *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		return Fail(VErrInvalidArg)
	}))
	current := &task.Task{ID: 1}
	frame := &arch.Frame{}
	frame.SetX(8, 101)

	k.Dispatch(current, frame, func() {})
	if got := frame.X(0); got != uint64(VErrInvalidArg) {
		t.Fatalf("x0 = %d, want VErrInvalidArg (%d)", got, VErrInvalidArg)
	}
}

func TestDispatchHonorsNoWriteback(t *testing.T) {
	k := NewKernel()
	k.Register(102, Supported("test_sigreturn", func(_ *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		return OkNoWriteback()
	}))
	current := &task.Task{ID: 1}
	frame := &arch.Frame{}
	frame.SetX(8, 102)
	frame.SetX(0, 0xdeadbeef)
	frame.SetX(1, 0xcafef00d)

	k.Dispatch(current, frame, func() {})
	if got := frame.X(0); got != 0xdeadbeef {
		t.Fatalf("x0 = %#x, want untouched 0xdeadbeef (NoWriteback must skip the x0..x3 writeback)", got)
	}
	if got := frame.X(1); got != 0xcafef00d {
		t.Fatalf("x1 = %#x, want untouched 0xcafef00d", got)
	}
}

func TestCoverageSortedByNumber(t *testing.T) {
	k := NewKernel()
	k.Register(50, Error("z", VErrNotSupported, "stub"))
	k.Register(10, Error("a", VErrNotSupported, "stub"))
	k.Register(30, Error("m", VErrNotSupported, "stub"))

	cov := k.Coverage()
	if len(cov) != 3 {
		t.Fatalf("Coverage returned %d entries, want 3", len(cov))
	}
	for i := 1; i < len(cov); i++ {
		if cov[i-1].Number >= cov[i].Number {
			t.Fatalf("Coverage not sorted: %d before %d", cov[i-1].Number, cov[i].Number)
		}
	}
}
