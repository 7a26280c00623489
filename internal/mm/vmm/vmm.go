// Package vmm builds and mutates AArch64 4-level translation tables
// over a pmm.Allocator arena, and performs the TLB invalidations the
// architecture requires after updates, per spec §4.5.
package vmm

import (
	"fmt"
	"sync"
	"unsafe"

	"viperos/internal/arch"
	"viperos/internal/mm/pmm"
)

const entriesPerTable = 512

// VMM owns one root translation table (TTBR0-equivalent) and the
// intermediate tables reachable from it.
type VMM struct {
	mu   sync.Mutex
	pmm  *pmm.Allocator
	root uint64

	// perPageInvalidations and bulkInvalidations count the per-page and
	// full TLBI-equivalent calls issued, standing in for "the CPU never
	// observes a stale translation" in the absence of a real TLB.
	perPageInvalidations int
	bulkInvalidations    int
}

// New allocates and zeroes a root table.
func New(p *pmm.Allocator) (*VMM, error) {
	root := p.AllocPage()
	if root == 0 {
		return nil, fmt.Errorf("vmm: out of memory allocating root table")
	}
	zeroTable(p, root)
	return &VMM{pmm: p, root: root}, nil
}

// Root returns the physical address of the root table (the TTBR0
// value an address space installs).
func (v *VMM) Root() uint64 { return v.root }

func zeroTable(p *pmm.Allocator, phys uint64) {
	buf := p.PhysToVirt(phys)[:entriesPerTable*8]
	for i := range buf {
		buf[i] = 0
	}
}

func tableView(p *pmm.Allocator, phys uint64) *[entriesPerTable]uint64 {
	buf := p.PhysToVirt(phys)
	return (*[entriesPerTable]uint64)(unsafe.Pointer(&buf[0]))
}

// walk returns the level-3 table containing va's terminal descriptor,
// allocating and zeroing intermediate tables as needed. On allocator
// exhaustion partway through, the already-installed intermediate
// tables are left in place: spec §9 Open Question 2 resolves this as
// a retained, documented limitation (no rollback), since running out
// of memory while building page tables is already a fatal low-memory
// condition for the caller.
func (v *VMM) walk(va uint64, create bool) (*[entriesPerTable]uint64, int, error) {
	l0, l1, l2, l3, _ := arch.VAIndices(va)
	levels := []int{l0, l1, l2}

	tablePhys := v.root
	for _, idx := range levels {
		tbl := tableView(v.pmm, tablePhys)
		d := arch.Descriptor(tbl[idx])
		if !d.Valid() {
			if !create {
				return nil, l3, fmt.Errorf("vmm: unmapped intermediate level for va %#x", va)
			}
			childPhys := v.pmm.AllocPage()
			if childPhys == 0 {
				return nil, l3, fmt.Errorf("vmm: out of memory building page tables for va %#x", va)
			}
			zeroTable(v.pmm, childPhys)
			tbl[idx] = uint64(arch.NewTableDescriptor(childPhys))
			tablePhys = childPhys
			continue
		}
		if !d.IsTable() {
			// Block descriptor at level 1/2: caller asked to walk past
			// a large mapping. Treated as an error for map/unmap,
			// handled specially by VirtToPhys.
			return nil, l3, fmt.Errorf("vmm: va %#x falls inside a block mapping", va)
		}
		tablePhys = d.OutputAddress()
	}
	return tableView(v.pmm, tablePhys), l3, nil
}

// MapPage installs a level-3 page descriptor for va -> pa with preset
// flags, allocating intermediate tables as needed, and issues the
// required per-page TLB invalidation sequence.
func (v *VMM) MapPage(va, pa uint64, preset arch.FlagPreset) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if va%pmm.PageSize != 0 || pa%pmm.PageSize != 0 {
		return fmt.Errorf("vmm: unaligned map va=%#x pa=%#x", va, pa)
	}
	tbl, idx, err := v.walk(va, true)
	if err != nil {
		return err
	}
	tbl[idx] = uint64(arch.NewPageDescriptor(pa, preset))
	v.invalidateVA(va)
	return nil
}

// UnmapPage clears va's terminal descriptor. The intermediate tables
// are left allocated (no compaction, per spec §4.4/§4.5).
func (v *VMM) UnmapPage(va uint64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	tbl, idx, err := v.walk(va, false)
	if err != nil {
		// Already unmapped: idempotent per the wait-queue-adjacent
		// idempotency convention used elsewhere in the kernel.
		return nil
	}
	tbl[idx] = 0
	v.invalidateVA(va)
	return nil
}

// MapRange maps size bytes starting at va to pa, in PAGE_SIZE strides;
// equivalent to ceil(size/PAGE_SIZE) successive MapPage calls (§8).
func (v *VMM) MapRange(va, pa, size uint64, preset arch.FlagPreset) error {
	pages := (size + pmm.PageSize - 1) / pmm.PageSize
	for i := uint64(0); i < pages; i++ {
		if err := v.MapPage(va+i*pmm.PageSize, pa+i*pmm.PageSize, preset); err != nil {
			return err
		}
	}
	v.mu.Lock()
	v.bulkInvalidations++
	v.mu.Unlock()
	arch.InvalidateAllTLB()
	return nil
}

// VirtToPhys walks the tables, honoring block descriptors at levels 1
// and 2, and returns 0 if any level is invalid (§4.5).
func (v *VMM) VirtToPhys(va uint64) uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	l0, l1, l2, l3, pageOff := arch.VAIndices(va)
	levels := []int{l0, l1, l2}
	tablePhys := v.root
	for depth, idx := range levels {
		tbl := tableView(v.pmm, tablePhys)
		d := arch.Descriptor(tbl[idx])
		if !d.Valid() {
			return 0
		}
		if !d.IsTable() {
			// Block mapping at this level: re-add the in-block offset.
			shift := uint(12 + 9*(3-depth))
			blockMask := (uint64(1) << shift) - 1
			return d.OutputAddress() | (va & blockMask)
		}
		tablePhys = d.OutputAddress()
	}
	tbl := tableView(v.pmm, tablePhys)
	d := arch.Descriptor(tbl[l3])
	if !d.Valid() {
		return 0
	}
	return d.OutputAddress() | pageOff
}

func (v *VMM) invalidateVA(va uint64) {
	v.perPageInvalidations++
	arch.InvalidateVA(va)
}

// InvalidateAll issues a bulk TLBI VMALLE1IS, used after installing a
// fresh address space or a large batch of mappings.
func (v *VMM) InvalidateAll() {
	v.mu.Lock()
	v.bulkInvalidations++
	v.mu.Unlock()
	arch.InvalidateAllTLB()
}

// Stats exposes the per-page and bulk invalidation counters behind the
// mutate-then-invalidate discipline in §8.
func (v *VMM) Stats() (perPage, bulk int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.perPageInvalidations, v.bulkInvalidations
}
