// Package addrspace implements the per-process address space: a root
// translation table (TTBR0-equivalent), an ASID, and the VMA set, per
// spec §3/§4.6.
//
// VMAs are kept in a github.com/google/btree ordered by start address:
// the sentry's own memory manager keeps its mapping set in a generic
// btree for exactly the same reason — range lookups and overlap checks
// by address are the dominant access pattern.
package addrspace

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/btree"

	"viperos/internal/arch"
	"viperos/internal/mm/pmm"
	"viperos/internal/mm/vmm"
)

// BackingKind is a VMA's backing store kind.
type BackingKind int

const (
	BackingAnonymous BackingKind = iota
	BackingFile
	BackingStack
	BackingGuard
)

// VMA is a half-open [Start, End) range of page-aligned virtual
// addresses, per spec §3.
type VMA struct {
	Start, End uint64
	Prot       arch.FlagPreset
	Kind       BackingKind
	Inode      uint64
	FileOffset uint64
}

func (v *VMA) Less(than btree.Item) bool {
	return v.Start < than.(*VMA).Start
}

// Overlaps reports whether v and o share any address.
func (v *VMA) Overlaps(o *VMA) bool {
	return v.Start < o.End && o.Start < v.End
}

var nextASID uint32 = 1

func allocASID() uint32 {
	return atomic.AddUint32(&nextASID, 1) - 1 + 1
}

// AddressSpace owns a root translation table, an ASID (nonzero for
// user processes; 0 is reserved for the never-changing kernel
// mappings), and a start-sorted, non-overlapping VMA set.
type AddressSpace struct {
	mu   sync.Mutex
	vmm  *vmm.VMM
	asid uint32
	vmas *btree.BTree

	owner int // owning process id, for diagnostics
}

// New creates an address space for the given owning process.
func New(p *pmm.Allocator, owner int) (*AddressSpace, error) {
	vm, err := vmm.New(p)
	if err != nil {
		return nil, fmt.Errorf("addrspace: %w", err)
	}
	return &AddressSpace{
		vmm:   vm,
		asid:  allocASID(),
		vmas:  btree.New(16),
		owner: owner,
	}, nil
}

// ASID returns the address space's non-zero ASID.
func (a *AddressSpace) ASID() uint32 { return a.asid }

// Root returns the physical address of the root translation table
// (the TTBR0 value).
func (a *AddressSpace) Root() uint64 { return a.vmm.Root() }

// VMM exposes the underlying translation-table manager for map/unmap
// operations driven by the page-fault handler or mmap-equivalent
// syscalls.
func (a *AddressSpace) VMM() *vmm.VMM { return a.vmm }

// AddVMA inserts a non-overlapping VMA in start-sorted order. Overlap
// with an existing VMA is rejected, per the §3 invariant.
func (a *AddressSpace) AddVMA(v *VMA) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var conflict *VMA
	a.vmas.AscendRange(&VMA{Start: 0}, &VMA{Start: v.End}, func(i btree.Item) bool {
		existing := i.(*VMA)
		if existing.Overlaps(v) {
			conflict = existing
			return false
		}
		return true
	})
	if conflict != nil {
		return fmt.Errorf("addrspace: vma [%#x,%#x) overlaps existing [%#x,%#x)", v.Start, v.End, conflict.Start, conflict.End)
	}
	if v.Kind == BackingGuard {
		// Guard VMAs must never have an installed page-table entry
		// (§3 invariant); callers must not have mapped pages into it.
	}
	a.vmas.ReplaceOrInsert(v)
	return nil
}

// RemoveVMA deletes the VMA starting at start, if any.
func (a *AddressSpace) RemoveVMA(start uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vmas.Delete(&VMA{Start: start})
}

// Find returns the VMA containing va, or nil.
func (a *AddressSpace) Find(va uint64) *VMA {
	a.mu.Lock()
	defer a.mu.Unlock()
	var found *VMA
	a.vmas.DescendLessOrEqual(&VMA{Start: va}, func(i btree.Item) bool {
		v := i.(*VMA)
		if va >= v.Start && va < v.End {
			found = v
		}
		return false
	})
	return found
}

// ValidatePointer reports whether [addr, addr+len) lies entirely
// within a single mapped, non-guard VMA — the check the syscall
// dispatcher applies to every user pointer argument (§4.12).
func (a *AddressSpace) ValidatePointer(addr uint64, length uint64) bool {
	v := a.Find(addr)
	if v == nil || v.Kind == BackingGuard {
		return false
	}
	return addr+length <= v.End
}

// Snapshot returns a copy of the VMA list in start order, for fork and
// introspection.
func (a *AddressSpace) Snapshot() []VMA {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []VMA
	a.vmas.Ascend(func(i btree.Item) bool {
		out = append(out, *i.(*VMA))
		return true
	})
	return out
}

// InstallTTBR0 is the single documented seam where "installing" this
// address space takes effect (§4.6). No TTBR0 register is written on
// any backend; it issues arch.InvalidateAllTLB, a full TLB invalidation
// (TLBI VMALLE1IS plus barriers on arm64), not an ASID-scoped one.
func (a *AddressSpace) InstallTTBR0() {
	arch.InvalidateAllTLB()
}
