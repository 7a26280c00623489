package syscalls

import (
	"viperos/internal/syscalls/viper"
	"viperos/internal/task"
)

// EntryPoints resolves the symbolic "entry" argument spawn/fork take
// to an actual Go closure. A real loader would jump to a virtual
// address inside a freshly mapped ELF image; this host-simulated
// kernel has no ELF loader (out of scope for the core, §1), so x0 is
// instead an index into a small fixed table of named trampolines that
// callers register up front through Register. This
// is recorded as a resolved Open Question in the design ledger rather
// than left ambiguous.
type EntryPoints struct {
	byID map[uint64]func(*task.Task, func())
}

// NewEntryPoints creates an empty registry.
func NewEntryPoints() *EntryPoints {
	return &EntryPoints{byID: make(map[uint64]func(*task.Task, func()))}
}

// Register names id as fn, for spawn/fork's "entry" argument to refer
// to by value.
func (e *EntryPoints) Register(id uint64, fn func(*task.Task, func())) {
	e.byID[id] = fn
}

func (e *EntryPoints) resolve(id uint64) func(*task.Task, func()) {
	if e == nil {
		return nil
	}
	return e.byID[id]
}

// RegisterTaskSyscalls installs the 0x00-0x0F task-management group.
func RegisterTaskSyscalls(k *Kernel, entries *EntryPoints) {
	k.Register(SysYield, Supported("yield", func(_ *Kernel, current *task.Task, _ [6]uint64, yield func()) Result {
		yield()
		return OkVoid()
	}))

	k.Register(SysExit, Supported("exit", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		kk.Tasks.Exit(current, int32(args[0]))
		return OkVoid()
	}))

	k.Register(SysCurrent, Supported("current", func(_ *Kernel, current *task.Task, _ [6]uint64, _ func()) Result {
		return Ok(uint64(current.ID), 0, 0)
	}))

	k.Register(SysSpawn, PartiallySupported("spawn", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		entryID, priority, arg := args[0], args[1], args[2]
		fn := entries.resolve(entryID)
		if fn == nil {
			return Fail(VErrInvalidArg)
		}
		child, err := kk.Tasks.Create(task.CreateOpts{
			Name:     "spawned",
			Priority: uint8(priority),
			Policy:   task.SchedOther,
			Flags:    task.FlagKernel,
			ParentID: current.ID,
			Entry:    fn,
			Arg:      arg,
		})
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		kk.Sched.Enqueue(child)
		return Ok(uint64(child.ID), 0, 0)
	}, "entry is a registered trampoline id, not a real virtual address (no ELF loader in the core)"))

	k.Register(SysJoin, Supported("join", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		pid := int(args[0])
		t := kk.Tasks.Lookup(pid)
		if t == nil {
			return Fail(VErrNotFound)
		}
		for t.State != task.Exited {
			yield()
		}
		return Ok(uint64(int64(t.ExitCode)), 0, 0)
	}))

	k.Register(SysList, Supported("list", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		va, length := args[0], args[1]
		buf, err := kk.UserBytes(current, va, length)
		if err != nil {
			return Fail(err)
		}
		maxEntries := len(buf) / viper.TaskInfoSize
		infos := make([]task.Info, maxEntries)
		n := kk.Tasks.List(infos)
		for i := 0; i < n; i++ {
			info := infos[i]
			viper.EncodeTaskInfo(buf[i*viper.TaskInfoSize:], viper.TaskInfo{
				ID: info.ID, State: info.State, Flags: info.Flags, Priority: info.Priority,
				Name: info.Name, CPUTicks: info.CPUTicks, SwitchCount: info.SwitchCount,
				ParentID: info.ParentID, ExitCode: info.ExitCode,
			})
		}
		return Ok(uint64(n), 0, 0)
	}))

	k.Register(SysSetPriority, Supported("set_priority", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		pid, prio := int(args[0]), uint8(args[1])
		t := kk.Tasks.Lookup(pid)
		if t == nil {
			return Fail(VErrNotFound)
		}
		t.Priority = prio
		return OkVoid()
	}))

	k.Register(SysGetPriority, Supported("get_priority", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		pid := int(args[0])
		t := kk.Tasks.Lookup(pid)
		if t == nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(t.Priority), 0, 0)
	}))

	k.Register(SysWait, Supported("wait", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		pid := int(args[0])
		t := kk.Tasks.Lookup(pid)
		if t == nil {
			return Fail(VErrNotFound)
		}
		for t.State != task.Exited {
			current.State = task.Blocked
			yield()
			current.State = task.Running
		}
		return Ok(uint64(int64(t.ExitCode)), 0, 0)
	}))

	k.Register(SysFork, PartiallySupported("fork", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		entryID := args[0]
		fn := entries.resolve(entryID)
		if fn == nil {
			return Fail(VErrInvalidArg)
		}
		child, err := kk.Tasks.Fork(current, fn)
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		kk.Sched.Enqueue(child)
		return Ok(uint64(child.ID), 0, 0)
	}, "copy-on-write is out of scope (§1 Non-goals); the child inherits cwd and a copy of the signal state, with empty FD and handle tables"))

	k.Register(SysSbrk, Error("sbrk", VErrNotSupported,
		"heap growth belongs to a per-process break managed by internal/mm/addrspace, not yet wired through the syscall surface"))

	k.Register(SysKill, Supported("kill", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		pid, sig := int(args[0]), int(args[1])
		if err := kk.Tasks.Kill(pid, sig, current, func(t *task.Task) {
			if t.WaitChannel != nil {
				if q, ok := t.WaitChannel.(interface{ Remove(*task.Task) }); ok {
					q.Remove(t)
				}
			}
		}); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))
}
