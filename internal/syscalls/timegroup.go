package syscalls

import (
	"viperos/internal/ipc"
	"viperos/internal/task"
	"viperos/internal/timer"
)

// RegisterTimeSyscalls installs the 0x30-0x3F time group.
func RegisterTimeSyscalls(k *Kernel, clock *timer.Driver) {
	k.Register(SysTimeNow, Supported("time_now", func(_ *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		return Ok(clock.GetMS(), 0, 0)
	}))

	k.Register(SysSleep, Supported("sleep_ms", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		if err := ipc.SleepMS(kk.Timers, args[0], current, yield); err != nil {
			return Fail(VErrOutOfMemory)
		}
		return OkVoid()
	}))

	k.Register(SysTimerCreate, Supported("timer_create", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		id, err := kk.Timers.Create(args[0])
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(id), 0, 0)
	}))

	k.Register(SysTimerCancel, Supported("timer_cancel", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		if err := kk.Timers.Cancel(uint32(args[0])); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))
}
