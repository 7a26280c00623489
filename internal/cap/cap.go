// Package cap is the per-process capability (handle) table: an
// integer index resolving to a kernel object, with a rights mask and
// a generation counter distinguishing recycled slots, per spec §4.13.
package cap

import (
	"fmt"
	"sync"
)

// Kind identifies what kernel object a handle resolves to.
type Kind uint8

const (
	KindNone Kind = iota
	KindChannel
	KindFile
	KindDirectory
	KindBlob
	KindTLSSession
	KindTimer
	KindSocket
)

// Rights is a bitmask of permitted operations on a handle.
type Rights uint32

const (
	RightRead Rights = 1 << iota
	RightWrite
	RightDerive
	RightRevoke
)

type entry struct {
	kind       Kind
	rights     Rights
	generation uint32
	object     any
	inUse      bool
}

// Handle is an opaque (index, generation) pair a process holds.
type Handle struct {
	Index      int
	Generation uint32
}

// Table is a fixed-capacity, per-process handle table.
type Table struct {
	mu      sync.Mutex
	entries []entry
}

// NewTable creates a table with room for capacity handles.
func NewTable(capacity int) *Table {
	return &Table{entries: make([]entry, capacity)}
}

// Insert allocates a free slot for object with kind/rights and returns
// its handle. Returns an error if the table is full.
func (t *Table) Insert(kind Kind, rights Rights, object any) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.entries {
		if !t.entries[i].inUse {
			t.entries[i] = entry{kind: kind, rights: rights, generation: t.entries[i].generation, object: object, inUse: true}
			return Handle{Index: i, Generation: t.entries[i].generation}, nil
		}
	}
	return Handle{}, fmt.Errorf("cap: handle table full")
}

func (t *Table) lookupLocked(h Handle) (*entry, error) {
	if h.Index < 0 || h.Index >= len(t.entries) {
		return nil, fmt.Errorf("cap: handle index %d out of range", h.Index)
	}
	e := &t.entries[h.Index]
	if !e.inUse || e.generation != h.Generation {
		return nil, fmt.Errorf("cap: stale handle %+v", h)
	}
	return e, nil
}

// Query returns kind, rights, and generation for a live handle.
func (t *Table) Query(h Handle) (Kind, Rights, uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookupLocked(h)
	if err != nil {
		return 0, 0, 0, err
	}
	return e.kind, e.rights, e.generation, nil
}

// Object resolves a live handle to its backing kernel object.
func (t *Table) Object(h Handle) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookupLocked(h)
	if err != nil {
		return nil, err
	}
	return e.object, nil
}

// Derive returns a new handle to the same object with
// rights' = requested & h.rights (narrowing only), per §4.13.
func (t *Table) Derive(h Handle, requested Rights) (Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookupLocked(h)
	if err != nil {
		return Handle{}, err
	}
	narrowed := requested & e.rights
	for i := range t.entries {
		if !t.entries[i].inUse {
			t.entries[i] = entry{kind: e.kind, rights: narrowed, generation: t.entries[i].generation, object: e.object, inUse: true}
			return Handle{Index: i, Generation: t.entries[i].generation}, nil
		}
	}
	return Handle{}, fmt.Errorf("cap: handle table full")
}

// Revoke frees h's slot and bumps its generation so any outstanding
// copy of h becomes stale.
func (t *Table) Revoke(h Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, err := t.lookupLocked(h)
	if err != nil {
		return err
	}
	e.inUse = false
	e.object = nil
	e.generation++
	return nil
}

// List returns the handles currently in use, in index order.
func (t *Table) List() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Handle
	for i, e := range t.entries {
		if e.inUse {
			out = append(out, Handle{Index: i, Generation: e.generation})
		}
	}
	return out
}
