// Package syscalls is the SVC dispatch table spec §4.12 describes:
// one handler per syscall number, each reading its arguments out of
// the trap frame's x0..x5 per a declared signature and writing back
// (verr, res0, res1, res2) into x0..x3.
//
// The handler-registration shape — Supported/PartiallySupported/Error
// constructors that wrap a raw implementation with a uniform
// not-yet-done/partially-done/fully-done story — is ported from the
// sentry's pkg/sentry/syscalls/syscalls.go, which solves the same
// problem for Linux's syscall table: a huge, heterogeneous ABI surface
// where most entries are fully implemented, some are best-effort, and
// a few are permanently unsupported placeholders that still need to
// return a sensible error rather than panic.
package syscalls

import (
	"fmt"

	"viperos/internal/task"
)

// VError is the ABI's signed error enumeration, returned in x0 (§6).
type VError int64

// Canonical VError values, per §6.
const (
	VOK              VError = 0
	VErrInvalidArg   VError = -1
	VErrNotFound     VError = -2
	VErrOutOfMemory  VError = -3
	VErrWouldBlock   VError = -4
	VErrNotSupported VError = -5
	VErrUnknown      VError = -6
)

func (v VError) Error() string {
	switch v {
	case VOK:
		return "ok"
	case VErrInvalidArg:
		return "invalid argument"
	case VErrNotFound:
		return "not found"
	case VErrOutOfMemory:
		return "out of memory"
	case VErrWouldBlock:
		return "would block"
	case VErrNotSupported:
		return "not supported"
	default:
		return "unknown error"
	}
}

// FromError maps a Go error returned by a lower layer onto the
// nearest VError, so handlers don't each have to repeat this table.
func FromError(err error) VError {
	if err == nil {
		return VOK
	}
	if ve, ok := err.(VError); ok {
		return ve
	}
	switch {
	case err == ErrWouldBlock:
		return VErrWouldBlock
	case err == ErrNotFound:
		return VErrNotFound
	default:
		return VErrUnknown
	}
}

// Sentinels the per-group files raise when they want a specific
// VError without importing a lower package's own sentinel type.
var (
	ErrWouldBlock = fmt.Errorf("syscalls: would block")
	ErrNotFound   = fmt.Errorf("syscalls: not found")
)

// Result is what a Handler hands back to the dispatcher for writing
// into x0..x3.
type Result struct {
	Err              error
	Res0, Res1, Res2 uint64

	// NoWriteback suppresses Dispatch's normal x0..x3 writeback. Only
	// sigreturn needs this: it has already restored the full trap
	// frame itself (§4.12) and a subsequent VOK/0/0/0 writeback would
	// clobber the registers it just put back.
	NoWriteback bool
}

// Ok builds a successful Result with up to three result registers.
func Ok(res0, res1, res2 uint64) Result { return Result{Res0: res0, Res1: res1, Res2: res2} }

// OkVoid builds a successful Result with no result registers.
func OkVoid() Result { return Result{} }

// OkNoWriteback builds a successful Result that leaves the trap
// frame's x0..x3 exactly as the handler left them.
func OkNoWriteback() Result { return Result{NoWriteback: true} }

// Fail builds a failing Result.
func Fail(err error) Result { return Result{Err: err} }

// Handler implements one syscall number's body: it reads whatever
// arguments it needs from args (x0..x5), and may block by calling
// yield (the cooperative yield closure §5 gives every task).
type Handler func(k *Kernel, current *task.Task, args [6]uint64, yield func()) Result

// SupportLevel classifies a table entry the way gVisor's constructors
// do, so the debug control plane (§4.17) and the startup log can
// report the ABI's actual coverage instead of just "works or panics".
type SupportLevel uint8

const (
	LevelSupported SupportLevel = iota
	LevelPartial
	LevelError
	LevelCapError
)

// Syscall is one numbered table entry.
type Syscall struct {
	Number int
	Name   string
	Fn     Handler
	Level  SupportLevel
	Note   string
}

// Supported declares name fully implemented by fn, per §4.12's normal
// case: the common path every table entry should end up on.
func Supported(name string, fn Handler) Syscall {
	return Syscall{Name: name, Fn: fn, Level: LevelSupported}
}

// PartiallySupported declares name implemented with known gaps,
// recorded in note for the debug control plane to surface — the
// sentry's own PartiallySupported is for exactly this: syscalls that
// work for the common case but don't implement every flag or mode.
func PartiallySupported(name string, fn Handler, note string) Syscall {
	return Syscall{Name: name, Fn: fn, Level: LevelPartial, Note: note}
}

// Error declares name recognized but deliberately unimplemented: it
// always returns verr, never panics on an unknown-but-named number.
func Error(name string, verr VError, note string) Syscall {
	return Syscall{
		Name:  name,
		Level: LevelError,
		Note:  note,
		Fn: func(*Kernel, *task.Task, [6]uint64, func()) Result {
			return Fail(verr)
		},
	}
}

// CapError declares name as requiring a capability ViperOS's bring-up
// model doesn't track yet (distinct from Error so the debug plane can
// tell "missing capability" apart from "missing implementation").
func CapError(name string, note string) Syscall {
	return Syscall{
		Name:  name,
		Level: LevelCapError,
		Note:  note,
		Fn: func(*Kernel, *task.Task, [6]uint64, func()) Result {
			return Fail(VErrNotSupported)
		},
	}
}
