// Package pmm is the physical memory manager: a page-grained free list
// over a simulated RAM region, per spec §4.4.
//
// The sentry's pgalloc backs guest memory with host-mmap'd/memfd
// regions; this package does the same so that "physical address" is a
// real offset into a real byte arena and page-table descriptors
// (internal/arch.Descriptor) can be written as real 64-bit words
// instead of being purely notional.
package pmm

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

const PageSize = 4096

// Allocator is a singly-linked free list of page-aligned frames within
// a host-mmap'd arena, per spec §4.4's O(1)-amortized requirement.
type Allocator struct {
	mu sync.Mutex

	arena    []byte
	base     uint64 // "physical" base address of the arena
	size     uint64
	reserved []Range // kernel image / framebuffer / stack pool / etc.

	free    []uint64 // stack of free frame addresses (LIFO free list)
	inUse   map[uint64]bool
	numFree int
	numUsed int
}

// Range is a half-open, page-aligned physical range excluded from
// allocation (kernel image, device memory, reserved pools).
type Range struct {
	Start, End uint64
}

func (r Range) contains(addr uint64) bool { return addr >= r.Start && addr < r.End }

// New creates an allocator over a size-byte host-mmap'd arena, minus
// the given reserved ranges (kernel image, framebuffer, stack pool).
func New(size uint64, reserved []Range) (*Allocator, error) {
	if size%PageSize != 0 {
		return nil, fmt.Errorf("pmm: size %d not page-aligned", size)
	}
	arena, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("pmm: mmap arena: %w", err)
	}
	a := &Allocator{
		arena:    arena,
		base:     PageSize, // frame 0 is never handed out: 0 means exhaustion
		size:     size,
		reserved: reserved,
		inUse:    make(map[uint64]bool),
	}
	for addr := a.base; addr < a.base+size; addr += PageSize {
		if a.isReserved(addr) {
			continue
		}
		a.free = append(a.free, addr)
	}
	a.numFree = len(a.free)
	return a, nil
}

// Close unmaps the arena. Not part of the simulated ABI surface; used
// by tests and by a clean process exit.
func (a *Allocator) Close() error {
	return unix.Munmap(a.arena)
}

func (a *Allocator) isReserved(addr uint64) bool {
	for _, r := range a.reserved {
		if r.contains(addr) {
			return true
		}
	}
	return false
}

// AllocPage returns one page-aligned physical frame, or 0 on
// exhaustion, per spec §4.4.
func (a *Allocator) AllocPage() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocLocked()
}

func (a *Allocator) allocLocked() uint64 {
	n := len(a.free)
	if n == 0 {
		return 0
	}
	addr := a.free[n-1]
	a.free = a.free[:n-1]
	a.inUse[addr] = true
	a.numFree--
	a.numUsed++
	return addr
}

// AllocPages returns n contiguous frames, or 0 if the free list cannot
// currently satisfy a contiguous run (the core allocator does not
// compact or search beyond a simple first-fit scan of the free set;
// fragmentation is acceptable at this scale per spec §4.4).
func (a *Allocator) AllocPages(n int) uint64 {
	if n <= 0 {
		return 0
	}
	if n == 1 {
		return a.AllocPage()
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	freeSet := make(map[uint64]bool, len(a.free))
	for _, f := range a.free {
		freeSet[f] = true
	}
	for addr := a.base; addr+uint64(n)*PageSize <= a.base+a.size; addr += PageSize {
		ok := true
		for i := 0; i < n; i++ {
			if !freeSet[addr+uint64(i)*PageSize] {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for i := 0; i < n; i++ {
			f := addr + uint64(i)*PageSize
			a.inUse[f] = true
			a.removeFreeLocked(f)
		}
		a.numUsed += n
		return addr
	}
	return 0
}

func (a *Allocator) removeFreeLocked(addr uint64) {
	for i, f := range a.free {
		if f == addr {
			a.free[i] = a.free[len(a.free)-1]
			a.free = a.free[:len(a.free)-1]
			a.numFree--
			return
		}
	}
}

// FreePages returns n frames starting at addr to the pool. addr and n
// must match the granularity at which they were allocated (§4.4).
func (a *Allocator) FreePages(addr uint64, n int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i < n; i++ {
		f := addr + uint64(i)*PageSize
		if !a.inUse[f] {
			return fmt.Errorf("pmm: double free or unknown frame %#x", f)
		}
		delete(a.inUse, f)
		a.free = append(a.free, f)
		a.numFree++
		a.numUsed--
	}
	return nil
}

// PhysToVirt converts under the identity map used for kernel
// mappings: the arena's byte slice IS the physical address space, so
// translation is a direct slice index.
func (a *Allocator) PhysToVirt(phys uint64) []byte {
	if phys < a.base || phys >= a.base+a.size {
		return nil
	}
	return a.arena[phys-a.base:]
}

// Stats reports the counters consumed by internal/mm/usage.
func (a *Allocator) Stats() (free, used int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numFree, a.numUsed
}

// TotalPages reports the allocator's total manageable page count
// (arena size minus reserved ranges), used by usage reporting.
func (a *Allocator) TotalPages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.numFree + a.numUsed
}
