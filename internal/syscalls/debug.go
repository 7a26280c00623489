package syscalls

import (
	"io"

	"viperos/internal/task"
	"viperos/internal/timer"
)

// RegisterDebugSyscalls installs the 0xF0-0xFF debug/console group.
// in, if non-nil, backs getchar (typically a PTY session's master end
// when the boot harness wires up an interactive console).
func RegisterDebugSyscalls(k *Kernel, clock *timer.Driver, in io.Reader) {
	k.Register(SysPrint, Supported("print", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		s, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		kk.Console.Print(s)
		return OkVoid()
	}))

	k.Register(SysGetchar, PartiallySupported("getchar", func(_ *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		if in == nil {
			return Fail(VErrNotSupported)
		}
		var b [1]byte
		n, err := in.Read(b[:])
		if err != nil || n == 0 {
			return Fail(VErrWouldBlock)
		}
		return Ok(uint64(b[0]), 0, 0)
	}, "non-blocking best-effort read; does not yet park the caller on console-input readiness"))

	k.Register(SysPutchar, Supported("putchar", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		kk.Console.Print(string([]byte{byte(args[0])}))
		return OkVoid()
	}))

	k.Register(SysUptime, Supported("uptime", func(_ *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		return Ok(clock.GetMS(), 0, 0)
	}))
}
