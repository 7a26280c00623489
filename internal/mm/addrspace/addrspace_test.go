package addrspace

import (
	"testing"

	"viperos/internal/arch"
	"viperos/internal/mm/pmm"
)

func newTestSpace(t *testing.T) *AddressSpace {
	t.Helper()
	p, err := pmm.New(4<<20, nil)
	if err != nil {
		t.Fatalf("pmm.New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	a, err := New(p, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestAddVMARejectsOverlap(t *testing.T) {
	a := newTestSpace(t)
	if err := a.AddVMA(&VMA{Start: 0x1000, End: 0x2000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA: %v", err)
	}
	if err := a.AddVMA(&VMA{Start: 0x1800, End: 0x2800, Prot: arch.PresetUserRW}); err == nil {
		t.Fatalf("AddVMA accepted an overlapping range")
	}
	if err := a.AddVMA(&VMA{Start: 0x2000, End: 0x3000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA on adjacent, non-overlapping range: %v", err)
	}
}

func TestFindReturnsContainingVMA(t *testing.T) {
	a := newTestSpace(t)
	if err := a.AddVMA(&VMA{Start: 0x1000, End: 0x2000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA: %v", err)
	}
	if err := a.AddVMA(&VMA{Start: 0x5000, End: 0x6000, Prot: arch.PresetUserRX}); err != nil {
		t.Fatalf("AddVMA: %v", err)
	}

	if v := a.Find(0x1800); v == nil || v.Start != 0x1000 {
		t.Fatalf("Find(0x1800) = %v, want vma starting at 0x1000", v)
	}
	if v := a.Find(0x2000); v != nil {
		t.Fatalf("Find(0x2000) = %v, want nil (end is exclusive)", v)
	}
	if v := a.Find(0x3000); v != nil {
		t.Fatalf("Find(0x3000) = %v, want nil (unmapped gap)", v)
	}
}

func TestValidatePointerRejectsGuardAndCrossVMASpans(t *testing.T) {
	a := newTestSpace(t)
	if err := a.AddVMA(&VMA{Start: 0x1000, End: 0x2000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA: %v", err)
	}
	if err := a.AddVMA(&VMA{Start: 0x2000, End: 0x3000, Kind: BackingGuard}); err != nil {
		t.Fatalf("AddVMA guard: %v", err)
	}

	if !a.ValidatePointer(0x1000, 0x1000) {
		t.Fatalf("ValidatePointer rejected a span entirely within one mapped VMA")
	}
	if a.ValidatePointer(0x1800, 0x1000) {
		t.Fatalf("ValidatePointer accepted a span crossing into the next VMA")
	}
	if a.ValidatePointer(0x2000, 0x10) {
		t.Fatalf("ValidatePointer accepted a pointer into a guard VMA")
	}
	if a.ValidatePointer(0x4000, 0x10) {
		t.Fatalf("ValidatePointer accepted a pointer into unmapped space")
	}
}

func TestRemoveVMA(t *testing.T) {
	a := newTestSpace(t)
	if err := a.AddVMA(&VMA{Start: 0x1000, End: 0x2000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA: %v", err)
	}
	a.RemoveVMA(0x1000)
	if v := a.Find(0x1800); v != nil {
		t.Fatalf("Find after RemoveVMA = %v, want nil", v)
	}
	if err := a.AddVMA(&VMA{Start: 0x1000, End: 0x3000, Prot: arch.PresetUserRW}); err != nil {
		t.Fatalf("AddVMA after remove should not overlap anything: %v", err)
	}
}

func TestSnapshotIsStartOrdered(t *testing.T) {
	a := newTestSpace(t)
	starts := []uint64{0x5000, 0x1000, 0x3000}
	for _, s := range starts {
		if err := a.AddVMA(&VMA{Start: s, End: s + 0x100, Prot: arch.PresetUserRW}); err != nil {
			t.Fatalf("AddVMA(%#x): %v", s, err)
		}
	}
	snap := a.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("Snapshot len = %d, want 3", len(snap))
	}
	for i := 1; i < len(snap); i++ {
		if snap[i-1].Start >= snap[i].Start {
			t.Fatalf("Snapshot not start-ordered: %#x before %#x", snap[i-1].Start, snap[i].Start)
		}
	}
}

func TestASIDsAreUniqueAndNonZero(t *testing.T) {
	a1 := newTestSpace(t)
	a2 := newTestSpace(t)
	if a1.ASID() == 0 || a2.ASID() == 0 {
		t.Fatalf("ASID() returned 0 for a user address space")
	}
	if a1.ASID() == a2.ASID() {
		t.Fatalf("two address spaces got the same ASID %d", a1.ASID())
	}
}
