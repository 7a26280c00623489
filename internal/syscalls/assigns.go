package syscalls

import (
	"sort"
	"sync"

	"viperos/internal/task"
)

// AssignStore is the process-scoped key/value environment the 0xC0
// assigns group manages — the bring-up analogue of a process's
// environment variables, scoped per task ID rather than inherited at
// spawn (inheritance is left to a higher layer; §1 keeps process
// management minimal).
type AssignStore struct {
	mu    sync.Mutex
	byPID map[int]map[string]string
}

// NewAssignStore creates an empty store.
func NewAssignStore() *AssignStore {
	return &AssignStore{byPID: make(map[int]map[string]string)}
}

func (s *AssignStore) bucket(pid int) map[string]string {
	b, ok := s.byPID[pid]
	if !ok {
		b = make(map[string]string)
		s.byPID[pid] = b
	}
	return b
}

// RegisterAssignSyscalls installs the 0xC0-0xCF assigns group.
func RegisterAssignSyscalls(k *Kernel, store *AssignStore) {
	k.Register(SysAssignSet, Supported("assign_set", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		name, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		value, err := pathArg(kk, current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		store.mu.Lock()
		store.bucket(current.ID)[name] = value
		store.mu.Unlock()
		return OkVoid()
	}))

	k.Register(SysAssignGet, Supported("assign_get", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		name, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		store.mu.Lock()
		value, ok := store.bucket(current.ID)[name]
		store.mu.Unlock()
		if !ok {
			return Fail(VErrNotFound)
		}
		out, err := kk.UserBytes(current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		n := copy(out, value)
		return Ok(uint64(n), uint64(len(value)), 0)
	}))

	k.Register(SysAssignRemove, Supported("assign_remove", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		name, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		store.mu.Lock()
		b := store.bucket(current.ID)
		_, ok := b[name]
		delete(b, name)
		store.mu.Unlock()
		if !ok {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysAssignList, Supported("assign_list", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		store.mu.Lock()
		names := make([]string, 0, len(store.bucket(current.ID)))
		for name := range store.bucket(current.ID) {
			names = append(names, name)
		}
		store.mu.Unlock()
		sort.Strings(names)

		out, err := kk.UserBytes(current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		n, off := 0, 0
		for _, name := range names {
			if off+len(name)+1 > len(out) {
				break
			}
			copy(out[off:], name)
			out[off+len(name)] = 0
			off += len(name) + 1
			n++
		}
		return Ok(uint64(n), uint64(off), 0)
	}))

	k.Register(SysAssignResolve, PartiallySupported("assign_resolve", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		// Resolve is documented to expand nested assign references
		// (e.g. "$HOME/bin") textually; the bring-up store has no
		// such expansion language yet, so this is a plain get.
		name, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		store.mu.Lock()
		value, ok := store.bucket(current.ID)[name]
		store.mu.Unlock()
		if !ok {
			return Fail(VErrNotFound)
		}
		out, err := kk.UserBytes(current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		n := copy(out, value)
		return Ok(uint64(n), uint64(len(value)), 0)
	}, "no nested-reference expansion language yet; behaves as assign_get"))
}
