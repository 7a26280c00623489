package syscalls

import (
	"viperos/internal/cap"
	"viperos/internal/task"
)

// RegisterCapSyscalls installs the 0x70-0x7F capability group, per
// spec §4.13.
func RegisterCapSyscalls(k *Kernel) {
	k.Register(SysCapDerive, Supported("cap_derive", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		rights := cap.Rights(args[2])
		derived, err := current.Handles.Derive(h, rights)
		if err != nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(derived.Index), uint64(derived.Generation), 0)
	}))

	k.Register(SysCapRevoke, Supported("cap_revoke", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		if err := current.Handles.Revoke(h); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysCapQuery, Supported("cap_query", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		kind, rights, generation, err := current.Handles.Query(h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(kind), uint64(rights), uint64(generation))
	}))

	k.Register(SysCapList, Supported("cap_list", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		handles := current.Handles.List()
		out, err := kk.UserBytes(current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		maxEntries := len(out) / 8
		n := 0
		for i := 0; i < len(handles) && n < maxEntries; i++ {
			encodeHandle(out[n*8:], handles[i])
			n++
		}
		return Ok(uint64(n), 0, 0)
	}))
}

func encodeHandle(buf []byte, h cap.Handle) {
	buf[0] = byte(h.Index)
	buf[1] = byte(h.Index >> 8)
	buf[2] = byte(h.Index >> 16)
	buf[3] = byte(h.Index >> 24)
	buf[4] = byte(h.Generation)
	buf[5] = byte(h.Generation >> 8)
	buf[6] = byte(h.Generation >> 16)
	buf[7] = byte(h.Generation >> 24)
}
