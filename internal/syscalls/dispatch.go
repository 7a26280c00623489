// Package syscalls also holds the Kernel type: the bundle of
// process-wide singletons (§9's "global state") every handler needs,
// and the Dispatch entry point the exception path (§4.1) calls on an
// EC_SVC64 trap.
package syscalls

import (
	"sort"

	"viperos/internal/arch"
	"viperos/internal/console"
	"viperos/internal/ipc"
	"viperos/internal/irq"
	"viperos/internal/klog"
	"viperos/internal/mm/addrspace"
	"viperos/internal/mm/pmm"
	"viperos/internal/net"
	"viperos/internal/sched"
	"viperos/internal/task"
	"viperos/internal/timer"
	"viperos/internal/timerwheel"
	"viperos/internal/vfs"
)

// Kernel bundles the process-wide singletons §9's design notes list
// (PMM, task table, timer wheel, scheduler queues, IPC table, FD
// table, GIC state, console) behind the one value every syscall
// handler closes over. Boot (internal/boot) constructs exactly one of
// these and wires its own subsystem singletons into it.
type Kernel struct {
	Tasks    *task.Manager
	Sched    *sched.Scheduler
	PMM      *pmm.Allocator
	Channels *ipc.Manager
	Poller   *ipc.Poller
	PollSets *ipc.SetTable
	Timers   *ipc.TimerTable
	Wheel    *timerwheel.Wheel
	GIC      *irq.Controller
	Clock    *timer.Driver
	VFS      *vfs.VFS
	Net      *net.Stub
	Console  *console.Facade

	// AddrSpaces maps an owning task's ID to its address space, for
	// the syscall-argument pointer validation §4.12 requires. Kernel
	// tasks (FlagKernel) have no entry, so UserBytes rejects their
	// pointer arguments.
	AddrSpaces map[int]*addrspace.AddressSpace

	table map[int]Syscall
}

// NewKernel creates an empty dispatch table over the given subsystem
// singletons; call Register (directly or via the per-group RegisterX
// helpers) to populate it before the first Dispatch.
func NewKernel() *Kernel {
	return &Kernel{
		AddrSpaces: make(map[int]*addrspace.AddressSpace),
		table:      make(map[int]Syscall),
	}
}

// Register installs call at number, overwriting any previous entry —
// used by tests that want to substitute a fake handler.
func (k *Kernel) Register(number int, call Syscall) {
	call.Number = number
	k.table[number] = call
}

// Lookup returns the table entry for number, if any.
func (k *Kernel) Lookup(number int) (Syscall, bool) {
	s, ok := k.table[number]
	return s, ok
}

// Coverage returns every registered entry sorted by number, for the
// debug control plane's introspection endpoint (§4.17).
func (k *Kernel) Coverage() []Syscall {
	out := make([]Syscall, 0, len(k.table))
	for _, s := range k.table {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// AddressSpaceFor returns current's address space, or nil for a
// kernel task.
func (k *Kernel) AddressSpaceFor(current *task.Task) *addrspace.AddressSpace {
	return k.AddrSpaces[current.ID]
}

// UserBytes validates and translates a user-mode (va, length) pointer
// argument into a direct byte-slice view onto the backing frame, per
// §4.12's "pointers are validated for the current address space's
// VMAs; lengths are bounded". A task with no address space (every
// kernel task) gets VErrInvalidArg: there is no translation path for
// kernel-side buffers.
func (k *Kernel) UserBytes(current *task.Task, va, length uint64) ([]byte, error) {
	as := k.AddressSpaceFor(current)
	if as == nil {
		return nil, VErrInvalidArg
	}
	if !as.ValidatePointer(va, length) {
		return nil, VErrInvalidArg
	}
	phys := as.VMM().VirtToPhys(va)
	if phys == 0 {
		return nil, VErrInvalidArg
	}
	return k.PMM.PhysToVirt(phys)[:length], nil
}

// Dispatch implements §4.12's dispatcher contract: decode x8/x0..x5,
// look up the handler, run it (which may yield current through many
// scheduling events for a blocking call), and write the result back
// into frame's x0..x3. It reports whether the number was recognized.
func (k *Kernel) Dispatch(current *task.Task, frame *arch.Frame, yield func()) bool {
	number := int(frame.SyscallNumber())
	call, ok := k.table[number]
	if !ok {
		klog.Warnf("syscalls: unrecognized number %#x from task %d", number, current.ID)
		frame.SetSyscallReturn(int64(VErrNotSupported), 0, 0, 0)
		return false
	}

	args := frame.SyscallArgs()
	res := call.Fn(k, current, args, yield)
	if res.Err != nil {
		frame.SetSyscallReturn(int64(FromError(res.Err)), 0, 0, 0)
		return true
	}
	if res.NoWriteback {
		return true
	}
	frame.SetSyscallReturn(int64(VOK), res.Res0, res.Res1, res.Res2)
	return true
}
