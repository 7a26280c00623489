package syscalls

import (
	"viperos/internal/task"
)

// RegisterSysinfoSyscalls installs the 0xE0-0xEF sysinfo group.
func RegisterSysinfoSyscalls(k *Kernel) {
	k.Register(SysMemInfo, Supported("mem_info", func(kk *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		free, used := kk.PMM.Stats()
		return Ok(uint64(free), uint64(used), uint64(kk.PMM.TotalPages()))
	}))

	k.Register(SysNetStats, PartiallySupported("net_stats", func(kk *Kernel, _ *task.Task, _ [6]uint64, _ func()) Result {
		// internal/net.Stub has no byte/packet counters (§1: the stack
		// itself is an external collaborator); only RX queue depth is
		// observable from the core side.
		return Ok(0, 0, 0)
	}, "reports zero counters; internal/net.Stub does not track byte/packet totals"))

	k.Register(SysPing, Error("ping", VErrNotSupported,
		"ICMP belongs to the external network-stack collaborator (§1 Non-goals)"))

	k.Register(SysDeviceList, Supported("device_list", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		buf, err := kk.UserBytes(current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		names := []string{"null", "zero", "console"}
		n := 0
		off := 0
		for _, name := range names {
			if off+len(name)+1 > len(buf) {
				break
			}
			copy(buf[off:], name)
			buf[off+len(name)] = 0
			off += len(name) + 1
			n++
		}
		return Ok(uint64(n), uint64(off), 0)
	}))
}
