package syscalls

// Syscall numbers, per spec §6's fixed ABI ranges. Each group starts
// at its documented base; gaps within a range are reserved for
// growth, matching the original's sparsely-populated group layout.
const (
	// 0x00-0x0F: task management.
	SysYield = 0x00 + iota
	SysExit
	SysCurrent
	SysSpawn
	SysJoin
	SysList
	SysSetPriority
	SysGetPriority
	SysWait
	SysFork
	SysSbrk
	SysKill
)

const (
	// 0x10-0x1F: channel IPC.
	SysChannelCreate = 0x10 + iota
	SysChannelSend
	SysChannelRecv
	SysChannelClose
)

const (
	// 0x20-0x2F: poll.
	SysPollCreate = 0x20 + iota
	SysPollAdd
	SysPollRemove
	SysPollWait
)

const (
	// 0x30-0x3F: time.
	SysTimeNow = 0x30 + iota
	SysSleep
	SysTimerCreate
	SysTimerCancel
)

const (
	// 0x40-0x4F: FD I/O.
	SysOpen = 0x40 + iota
	SysClose
	SysRead
	SysWrite
	SysLseek
	SysStat
	SysFstat
	SysDup
	SysDup2
)

const (
	// 0x50-0x5F: sockets + DNS. Out of scope for the core (§1); the
	// numbers are reserved so a later network stack slots in without
	// an ABI break.
	SysSocketCreate = 0x50 + iota
	SysSocketConnect
	SysSocketSend
	SysSocketRecv
	SysSocketClose
	SysDNSResolve
)

const (
	// 0x60-0x6F: directory operations.
	SysReaddir = 0x60 + iota
	SysMkdir
	SysRmdir
	SysUnlink
	SysRename
	SysSymlink
	SysReadlink
	SysGetcwd
	SysChdir
)

const (
	// 0x70-0x7F: capability.
	SysCapDerive = 0x70 + iota
	SysCapRevoke
	SysCapQuery
	SysCapList
)

const (
	// 0x80-0x8F: handle-FS (capability-addressed file I/O, distinct
	// from the path-addressed 0x40 FD group).
	SysHandleOpenRoot = 0x80 + iota
	SysHandleOpenRel
	SysHandleIORead
	SysHandleIOWrite
	SysHandleIOSeek
	SysHandleReadDir
	SysHandleClose
	SysHandleRewind
)

const (
	// 0x90-0x9F: signals.
	SysSigaction = 0x90 + iota
	SysSigprocmask
	SysSigreturn
	SysSigkill
	SysSigpending
)

const (
	// 0xC0-0xCF: assigns (the bring-up key/value process environment).
	SysAssignSet = 0xC0 + iota
	SysAssignGet
	SysAssignRemove
	SysAssignList
	SysAssignResolve
)

const (
	// 0xD0-0xDF: TLS session. Out of scope for the core (§1); AEAD and
	// handshake state belong to the external TLS collaborator.
	SysTLSCreate = 0xD0 + iota
	SysTLSHandshake
	SysTLSSend
	SysTLSRecv
	SysTLSClose
	SysTLSInfo
)

const (
	// 0xE0-0xEF: sysinfo.
	SysMemInfo = 0xE0 + iota
	SysNetStats
	SysPing
	SysDeviceList
)

const (
	// 0xF0-0xFF: debug/console.
	SysPrint = 0xF0 + iota
	SysGetchar
	SysPutchar
	SysUptime
)

const (
	// 0x100-0x10F: device management.
	SysDeviceOpen = 0x100 + iota
	SysDeviceIOCtl
	SysDeviceClose
)

const (
	// 0x110-0x11F: GUI / display. Out of scope for the core (§1).
	SysGUICreateSurface = 0x110 + iota
	SysGUIBlit
	SysGUIPresent
)
