package syscalls

import (
	"viperos/internal/ipc"
	"viperos/internal/syscalls/viper"
	"viperos/internal/task"
	"viperos/internal/timer"
)

// RegisterPollSyscalls installs the 0x20-0x2F poll group. clock is the
// wall clock Poller.Poll uses to honor timeout_ms (internal/timer.Driver.GetMS).
func RegisterPollSyscalls(k *Kernel, clock *timer.Driver) {
	k.Register(SysPollCreate, Supported("poll_create", func(kk *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		handle, err := kk.PollSets.Create()
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(handle), 0, 0)
	}))

	k.Register(SysPollAdd, Supported("poll_add", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		set, handle, events := uint32(args[0]), uint32(args[1]), ipc.EventType(args[2])
		if err := kk.PollSets.Add(set, handle, events); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysPollRemove, Supported("poll_remove", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		set, handle := uint32(args[0]), uint32(args[1])
		if err := kk.PollSets.Remove(set, handle); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysPollWait, Supported("poll_wait", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		set, timeoutMS, outVA, outLen := uint32(args[0]), int64(args[1]), args[2], args[3]
		events, err := kk.PollSets.Events(set)
		if err != nil {
			return Fail(VErrNotFound)
		}
		n, err := kk.Poller.Poll(events, timeoutMS, clock.GetMS, yield)
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		if outVA != 0 {
			out, err := kk.UserBytes(current, outVA, outLen)
			if err != nil {
				return Fail(err)
			}
			maxEntries := len(out) / viper.PollEventSize
			for i := 0; i < len(events) && i < maxEntries; i++ {
				viper.EncodePollEvent(out[i*viper.PollEventSize:], events[i].Handle, uint32(events[i].Events), uint32(events[i].Triggered))
			}
		}
		return Ok(uint64(n), 0, 0)
	}))
}
