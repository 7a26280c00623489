// Package fault classifies page faults from ESR_EL1 and carries out
// the disposition spec §4.5 and §7 require: kernel-mode faults panic,
// user-mode faults terminate the task and reschedule.
package fault

import (
	"fmt"

	"viperos/internal/arch"
	"viperos/internal/klog"
)

// Outcome is what the handler decided to do with a fault.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeKernelPanic
	OutcomeUserTerminated
)

// Report is the decoded, disposed fault, kept for tests and for the
// USERFAULT diagnostic line.
type Report struct {
	Outcome Outcome
	Kind    arch.FaultKind
	Level   int
	PC      uint64
	FAR     uint64
	ESR     uint64
	Pid, Tid int
}

// TaskTerminator is the narrow hook fault needs into the task
// subsystem: terminate the given task with the given exit code.
// Defined here (rather than importing internal/task directly) to
// avoid a cyclic dependency between mm and task.
type TaskTerminator interface {
	TerminateCurrent(exitCode int32, reason string)
	CurrentIDs() (pid, tid int)
}

// Handle classifies frame's ESR/FAR and disposes of the fault. fromEL0
// is true when the abort originated at EL0 (user mode); the kernel
// path is otherwise identical in shape but fatal.
func Handle(frame *arch.Frame, fromEL0 bool, term TaskTerminator) Report {
	kind, level := arch.ClassifyFSC(arch.DFSC(frame.ESR))
	pid, tid := term.CurrentIDs()
	rep := Report{Kind: kind, Level: level, PC: frame.ELR, FAR: frame.FAR, ESR: frame.ESR, Pid: pid, Tid: tid}

	if !fromEL0 {
		rep.Outcome = OutcomeKernelPanic
		klog.Panic(fmt.Sprintf(
			"KERNEL FAULT pc=%#x far=%#x esr=%#x kind=%s level=%d\n%s",
			frame.ELR, frame.FAR, frame.ESR, kind, level, dumpRegs(frame)))
		return rep
	}

	rep.Outcome = OutcomeUserTerminated
	klog.Warnf("USERFAULT pid=%d tid=%d pc=%#x far=%#x esr=%#x kind=%s", pid, tid, frame.ELR, frame.FAR, frame.ESR, kind)
	term.TerminateCurrent(-1, fmt.Sprintf("kind=%s", kind))
	return rep
}

func dumpRegs(f *arch.Frame) string {
	s := ""
	for i, v := range f.Regs {
		s += fmt.Sprintf("x%d=%#x ", i, v)
	}
	return s
}
