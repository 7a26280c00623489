// Package arch holds the AArch64-specific state layouts and
// constants: the exception frame saved by the vector stubs, the ESR_EL1
// fault-class decoder, and the long-descriptor page-table bit layout.
//
// Field naming follows the PtraceRegs shape used elsewhere for arm64
// register snapshots (Regs/Sp/Pc/Pstate): a flat register file plus
// the three special registers that matter to the interrupted context.
package arch

// NumGPRegs is x0..x30 inclusive.
const NumGPRegs = 31

// Frame is the exception frame saved by an assembly vector stub on
// entry to EL1, per spec §3 "Exception frame" and §4.1. It is handed
// to handlers as *Frame with a lifetime bounded to the call, and
// written back verbatim by `eret` except for any fields a handler
// chooses to mutate (x0 is the canonical return-value slot).
type Frame struct {
	// Regs holds x0..x30 in order; Regs[30] is the link register.
	Regs [NumGPRegs]uint64

	// SPEL0 is the stack pointer of the interrupted EL0/EL1 context.
	SPEL0 uint64

	// ELR is ELR_EL1: the address execution resumes at on eret.
	ELR uint64

	// SPSR is SPSR_EL1: the saved processor state, including the
	// target exception level/mode restored by eret.
	SPSR uint64

	// ESR is ESR_EL1, the exception syndrome for the trap that
	// produced this frame. Zero for IRQ/FIQ entries.
	ESR uint64

	// FAR is FAR_EL1, the faulting virtual address. Only meaningful
	// for data/instruction aborts.
	FAR uint64
}

// X returns the value of xN (N in [0,30]).
func (f *Frame) X(n int) uint64 { return f.Regs[n] }

// SetX sets xN. Writing x0 is the canonical way to return a syscall
// result to user space (§4.12).
func (f *Frame) SetX(n int, v uint64) { f.Regs[n] = v }

// SyscallArgs returns x0..x5, the AArch64 SVC calling convention's
// argument registers.
func (f *Frame) SyscallArgs() [6]uint64 {
	var a [6]uint64
	copy(a[:], f.Regs[0:6])
	return a
}

// SyscallNumber returns x8, which carries the syscall number per the
// SVC ABI (§4.12).
func (f *Frame) SyscallNumber() uint64 { return f.Regs[8] }

// SetSyscallReturn writes back (x0=verr, x1,x2,x3=results), the fixed
// layout every syscall site checks uniformly.
func (f *Frame) SetSyscallReturn(verr int64, r1, r2, r3 uint64) {
	f.Regs[0] = uint64(verr)
	f.Regs[1] = r1
	f.Regs[2] = r2
	f.Regs[3] = r3
}

// SavedContext is the callee-saved register block captured across a
// scheduler context switch: x19..x29, x30 (return address) and SP.
// This is the "opaque fixed-layout byte block" the design notes call
// for; only switch_arm64.s and the trampoline touch it
// directly.
type SavedContext struct {
	X19, X20, X21, X22, X23, X24, X25, X26, X27, X28, X29 uint64
	LR                                                     uint64
	SP                                                     uint64
}

// PrepareEntry lays out a SavedContext so that the first scheduled run
// of a task lands in entry trampoline with (fn, arg) reachable from
// the top of its stack, per spec §4.7 task creation.
func PrepareEntry(stackTop uint64, trampoline uint64, fn, arg uint64) SavedContext {
	// The trampoline expects (fn, arg) at the two words immediately
	// below the initial SP; callers are responsible for having
	// written them there (see internal/task.StackPool).
	return SavedContext{
		LR: trampoline,
		SP: stackTop - 16,
	}
}

// PrepareUserEntry is the user-task variant: LR points at the EL1
// helper that switches address space, flushes the ASID-scoped TLB,
// and calls EnterUserMode. It never returns (§4.7).
func PrepareUserEntry(kstackTop uint64, elHelper uint64) SavedContext {
	return SavedContext{
		LR: elHelper,
		SP: kstackTop - 16,
	}
}
