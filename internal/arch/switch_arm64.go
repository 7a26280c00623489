//go:build arm64

package arch

// ContextSwitch saves the callee-saved registers of the outgoing
// context into old and loads them from next, per spec §4.8. Because
// LR is restored, the call returns into next's continuation — this
// function's one "return" is into a different stack than its call.
//
// This is the real hardware backend: on a literal AArch64 target this
// is the only safe way to change stacks. The scheduler normally runs
// against the goroutine-based backend in internal/sched (portable,
// testable on any GOARCH); this assembly path exists for a genuine
// bare-metal build and is not exercised by the test suite, which runs
// on the host architecture.
//
//go:noescape
func ContextSwitch(old, next *SavedContext)

// EnterUserMode programs SP_EL0/ELR_EL1/SPSR_EL1 and executes eret
// into user mode for the first time. It never returns (§4.1).
//
//go:noescape
func EnterUserMode(entry, stack, arg uint64)
