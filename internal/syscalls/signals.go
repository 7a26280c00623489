package syscalls

import (
	"viperos/internal/arch"
	"viperos/internal/task"
)

// RegisterSignalSyscalls installs the 0x90-0x9F signal group over the
// per-task task.SignalState spec §4.7 already carries through
// scheduling; interpretation of handler addresses is left to the
// user-mode signal trampoline (out of scope for the core).
func RegisterSignalSyscalls(k *Kernel) {
	k.Register(SysSigaction, Supported("sigaction", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		sig, handler, flags := args[0], args[1], uint32(args[2])
		if sig >= uint64(len(current.Signals.Handlers)) {
			return Fail(VErrInvalidArg)
		}
		prevHandler := current.Signals.Handlers[sig]
		current.Signals.Handlers[sig] = uintptr(handler)
		current.Signals.HandlerFlags[sig] = flags
		return Ok(uint64(prevHandler), 0, 0)
	}))

	k.Register(SysSigprocmask, Supported("sigprocmask", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		how, mask := args[0], args[1]
		prev := current.Signals.BlockedMask
		switch how {
		case 0: // SIG_BLOCK
			current.Signals.BlockedMask |= mask
		case 1: // SIG_UNBLOCK
			current.Signals.BlockedMask &^= mask
		case 2: // SIG_SETMASK
			current.Signals.BlockedMask = mask
		default:
			return Fail(VErrInvalidArg)
		}
		return Ok(prev, 0, 0)
	}))

	k.Register(SysSigreturn, Supported("sigreturn", func(_ *Kernel, current *task.Task, _ [6]uint64, _ func()) Result {
		// §4.12's special case: restore the full exception frame and
		// do not touch x0..x3 afterward — the caller is mid-signal
		// delivery and its own saved x0 must come back untouched.
		if current.Signals.SavedFrame == nil {
			return Fail(VErrInvalidArg)
		}
		*current.TrapFrame = *current.Signals.SavedFrame
		current.Signals.SavedFrame = nil
		return OkNoWriteback()
	}))

	k.Register(SysSigkill, Supported("kill", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		pid, sig := int(args[0]), int(args[1])
		switch sig {
		case task.SigKill, task.SigTerm, task.SigStop, task.SigCont:
			if err := kk.Tasks.Kill(pid, sig, current, nil); err != nil {
				return Fail(VErrNotFound)
			}
			return OkVoid()
		}
		// Any other in-range signal is a sigaction-style raise: mark it
		// pending on the target rather than terminating it. Delivery
		// (clearing the bit and redirecting the target's next run to
		// its handler) happens on the IRQ path via DeliverSignal.
		target := kk.Tasks.Lookup(pid)
		if target == nil {
			return Fail(VErrNotFound)
		}
		if sig < 0 || sig >= len(target.Signals.Handlers) {
			return Fail(VErrInvalidArg)
		}
		target.Signals.PendingMask |= 1 << uint(sig)
		return OkVoid()
	}))

	k.Register(SysSigpending, Supported("sigpending", func(_ *Kernel, current *task.Task, _ [6]uint64, _ func()) Result {
		return Ok(current.Signals.PendingMask, 0, 0)
	}))
}

// DeliverSignal is called by the IRQ/fault path (internal/boot) when it
// decides a pending, unblocked signal should run: it snapshots the
// interrupted frame into SavedFrame so sigreturn can restore it later,
// per §4.12, and redirects frame to the registered handler so the
// trap's eret lands in user-mode signal code instead of resuming the
// interrupted instruction.
func DeliverSignal(current *task.Task, frame *arch.Frame, sig int) bool {
	if sig < 0 || sig >= len(current.Signals.Handlers) {
		return false
	}
	handler := current.Signals.Handlers[sig]
	if handler == 0 {
		return false
	}
	saved := *frame
	current.Signals.SavedFrame = &saved
	current.Signals.PendingMask &^= 1 << uint(sig)
	frame.ELR = uint64(handler)
	return true
}
