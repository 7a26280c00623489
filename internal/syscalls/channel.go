package syscalls

import (
	"viperos/internal/ipc"
	"viperos/internal/task"
)

// RegisterChannelSyscalls installs the 0x10-0x1F channel IPC group.
func RegisterChannelSyscalls(k *Kernel) {
	k.Register(SysChannelCreate, Supported("channel_create", func(kk *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		handle, err := kk.Channels.Create()
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(handle), 0, 0)
	}))

	k.Register(SysChannelSend, Supported("channel_send", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		handle, va, length, blocking := uint32(args[0]), args[1], args[2], args[3] != 0
		c, err := kk.Channels.Lookup(handle)
		if err != nil {
			return Fail(VErrNotFound)
		}
		msg, err := kk.UserBytes(current, va, length)
		if err != nil {
			return Fail(err)
		}
		if blocking {
			if err := ipc.BlockingSend(c, msg, current, yield); err != nil {
				return Fail(mapChannelErr(err))
			}
			return OkVoid()
		}
		if err := c.Send(msg); err != nil {
			return Fail(mapChannelErr(err))
		}
		return OkVoid()
	}))

	k.Register(SysChannelRecv, Supported("channel_recv", func(kk *Kernel, current *task.Task, args [6]uint64, yield func()) Result {
		handle, va, length, blocking := uint32(args[0]), args[1], args[2], args[3] != 0
		c, err := kk.Channels.Lookup(handle)
		if err != nil {
			return Fail(VErrNotFound)
		}
		buf, err := kk.UserBytes(current, va, length)
		if err != nil {
			return Fail(err)
		}
		var n, msgLen int
		if blocking {
			n, msgLen, err = ipc.BlockingRecv(c, buf, current, yield)
		} else {
			n, msgLen, err = c.Recv(buf)
		}
		if err != nil {
			return Fail(mapChannelErr(err))
		}
		return Ok(uint64(n), uint64(msgLen), 0)
	}))

	k.Register(SysChannelClose, Supported("channel_close", func(kk *Kernel, _ *task.Task, args [6]uint64, _ func()) Result {
		handle := uint32(args[0])
		if err := kk.Channels.CloseHandle(handle); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))
}

func mapChannelErr(err error) error {
	switch err {
	case ipc.ErrWouldBlock:
		return VErrWouldBlock
	case ipc.ErrClosed, ipc.ErrNotFound:
		return VErrNotFound
	case ipc.ErrTooLarge, ipc.ErrFull:
		return VErrInvalidArg
	default:
		return VErrUnknown
	}
}
