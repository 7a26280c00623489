package pmm

import "testing"

func newTestAllocator(t *testing.T, pages int, reserved []Range) *Allocator {
	t.Helper()
	a, err := New(uint64(pages)*PageSize, reserved)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAllocPageExhaustsAndReturnsZero(t *testing.T) {
	a := newTestAllocator(t, 2, nil)
	p1 := a.AllocPage()
	p2 := a.AllocPage()
	if p1 == 0 || p2 == 0 || p1 == p2 {
		t.Fatalf("AllocPage returned p1=%#x p2=%#x, want two distinct non-zero frames", p1, p2)
	}
	if got := a.AllocPage(); got != 0 {
		t.Fatalf("AllocPage on an exhausted pool returned %#x, want 0", got)
	}
}

func TestFreePageAllowsReuse(t *testing.T) {
	a := newTestAllocator(t, 1, nil)
	p := a.AllocPage()
	if p == 0 {
		t.Fatalf("AllocPage returned 0")
	}
	if err := a.FreePages(p, 1); err != nil {
		t.Fatalf("FreePages: %v", err)
	}
	if got := a.AllocPage(); got == 0 {
		t.Fatalf("AllocPage after free returned 0, want the freed frame to be reusable")
	}
}

func TestFreePagesDoubleFreeFails(t *testing.T) {
	a := newTestAllocator(t, 1, nil)
	p := a.AllocPage()
	if err := a.FreePages(p, 1); err != nil {
		t.Fatalf("first FreePages: %v", err)
	}
	if err := a.FreePages(p, 1); err == nil {
		t.Fatalf("second FreePages on the same frame succeeded, want a double-free error")
	}
}

func TestReservedRangesAreNeverAllocated(t *testing.T) {
	a := newTestAllocator(t, 4, []Range{{Start: PageSize, End: 3 * PageSize}})
	seen := map[uint64]bool{}
	for i := 0; i < 2; i++ {
		p := a.AllocPage()
		if p == 0 {
			t.Fatalf("AllocPage returned 0 before exhausting the two non-reserved pages")
		}
		if p < 3*PageSize {
			t.Fatalf("AllocPage returned reserved frame %#x", p)
		}
		seen[p] = true
	}
	if got := a.AllocPage(); got != 0 {
		t.Fatalf("AllocPage beyond the two allocatable pages returned %#x, want 0", got)
	}
}

func TestAllocPagesContiguous(t *testing.T) {
	a := newTestAllocator(t, 8, nil)
	base := a.AllocPages(4)
	if base == 0 {
		t.Fatalf("AllocPages(4) returned 0")
	}
	for i := 0; i < 4; i++ {
		if !a.inUse[base+uint64(i)*PageSize] {
			t.Fatalf("frame %#x within the requested run was not marked in use", base+uint64(i)*PageSize)
		}
	}
	free, used := a.Stats()
	if used != 4 || free != 4 {
		t.Fatalf("Stats() = (free=%d, used=%d), want (4, 4)", free, used)
	}
}

func TestStatsAndTotalPages(t *testing.T) {
	a := newTestAllocator(t, 4, nil)
	if got := a.TotalPages(); got != 4 {
		t.Fatalf("TotalPages() = %d, want 4", got)
	}
	a.AllocPage()
	free, used := a.Stats()
	if free != 3 || used != 1 {
		t.Fatalf("Stats() = (free=%d, used=%d), want (3, 1)", free, used)
	}
}
