package syscalls

import (
	"io"

	"viperos/internal/timer"
)

// RegisterAll wires every RegisterX group into k, producing the fully
// populated dispatch table Dispatch serves. Boot calls this exactly
// once, after every subsystem singleton on Kernel is already set, per
// §9's bring-up ordering (syscalls come up after IPC/VFS/scheduler are
// live since several handlers reach straight through to them).
//
// entries backs spawn/fork's symbolic entry argument, store backs the
// assigns group, clock backs every syscall that reads the wall clock,
// and in (optionally nil) backs getchar.
func RegisterAll(k *Kernel, entries *EntryPoints, store *AssignStore, clock *timer.Driver, in io.Reader) {
	RegisterTaskSyscalls(k, entries)
	RegisterChannelSyscalls(k)
	RegisterPollSyscalls(k, clock)
	RegisterTimeSyscalls(k, clock)
	RegisterFDSyscalls(k)
	RegisterSocketSyscalls(k)
	RegisterDirSyscalls(k)
	RegisterCapSyscalls(k)
	RegisterHandleFSSyscalls(k)
	RegisterSignalSyscalls(k)
	RegisterAssignSyscalls(k, store)
	RegisterTLSSyscalls(k)
	RegisterSysinfoSyscalls(k)
	RegisterDebugSyscalls(k, clock, in)
	RegisterDeviceSyscalls(k)
	RegisterGUISyscalls(k)
}
