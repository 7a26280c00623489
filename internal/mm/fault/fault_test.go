package fault

import (
	"testing"

	"viperos/internal/arch"
)

type fakeTerminator struct {
	terminated bool
	exitCode   int32
	reason     string
}

func (f *fakeTerminator) TerminateCurrent(exitCode int32, reason string) {
	f.terminated = true
	f.exitCode = exitCode
	f.reason = reason
}

func (f *fakeTerminator) CurrentIDs() (pid, tid int) { return 7, 7 }

// TestUserFaultTerminates is the page-fault-recovery scenario seed: a
// user-mode data abort must classify the fault, terminate only the
// faulting task, and leave the rest of the machine able to continue —
// it must never reach the kernel-panic path.
func TestUserFaultTerminates(t *testing.T) {
	term := &fakeTerminator{}
	frame := &arch.Frame{
		ELR: 0x4000,
		FAR: 0x8000,
		ESR: (arch.ECDataAbortLow << 26) | 0x04, // translation fault, level 0
	}

	rep := Handle(frame, true, term)

	if rep.Outcome != OutcomeUserTerminated {
		t.Fatalf("Outcome = %v, want OutcomeUserTerminated", rep.Outcome)
	}
	if !term.terminated {
		t.Fatalf("TerminateCurrent was not called")
	}
	if term.exitCode != -1 {
		t.Fatalf("exitCode = %d, want -1", term.exitCode)
	}
	if rep.Kind != arch.FaultTranslation {
		t.Fatalf("Kind = %v, want FaultTranslation", rep.Kind)
	}
	if rep.Pid != 7 || rep.Tid != 7 {
		t.Fatalf("Pid/Tid = %d/%d, want 7/7", rep.Pid, rep.Tid)
	}
}

func TestClassifyFSCTranslationLevels(t *testing.T) {
	cases := []struct {
		fsc   uint64
		kind  arch.FaultKind
		level int
	}{
		{0x04, arch.FaultTranslation, 0},
		{0x07, arch.FaultTranslation, 3},
		{0x08, arch.FaultAccessFlag, 0},
		{0x0c, arch.FaultPermission, 0},
		{0x10, arch.FaultExternalAbort, 0},
		{0x21, arch.FaultAlignment, 0},
	}
	for _, c := range cases {
		kind, level := arch.ClassifyFSC(c.fsc)
		if kind != c.kind || level != c.level {
			t.Errorf("ClassifyFSC(%#x) = (%v, %d), want (%v, %d)", c.fsc, kind, level, c.kind, c.level)
		}
	}
}
