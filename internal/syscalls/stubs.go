package syscalls

import (
	"viperos/internal/task"
)

// RegisterSocketSyscalls installs the 0x50-0x5F socket+DNS group.
// The network stack is an external collaborator out of scope for the
// core (§1 Non-goals); these numbers are reserved ABI slots so a real
// stack can be wired in later without renumbering, per the sentry's
// own practice of keeping a syscall table entry for everything the
// ABI names even when the backing feature isn't built yet.
func RegisterSocketSyscalls(k *Kernel) {
	k.Register(SysSocketCreate, Error("socket_create", VErrNotSupported, "network stack is an external collaborator (§1)"))
	k.Register(SysSocketConnect, Error("socket_connect", VErrNotSupported, "see socket_create"))
	k.Register(SysSocketSend, Error("socket_send", VErrNotSupported, "see socket_create"))
	k.Register(SysSocketRecv, Error("socket_recv", VErrNotSupported, "see socket_create"))
	k.Register(SysSocketClose, Error("socket_close", VErrNotSupported, "see socket_create"))
	k.Register(SysDNSResolve, Error("dns_resolve", VErrNotSupported, "see socket_create"))
}

// RegisterTLSSyscalls installs the 0xD0-0xDF TLS-session group.
// AEAD/handshake state belongs to the external TLS collaborator (§1);
// these are reserved exactly like the socket group.
func RegisterTLSSyscalls(k *Kernel) {
	k.Register(SysTLSCreate, Error("tls_create", VErrNotSupported, "TLS is an external collaborator (§1, referenced but out of scope)"))
	k.Register(SysTLSHandshake, Error("tls_handshake", VErrNotSupported, "see tls_create"))
	k.Register(SysTLSSend, Error("tls_send", VErrNotSupported, "see tls_create"))
	k.Register(SysTLSRecv, Error("tls_recv", VErrNotSupported, "see tls_create"))
	k.Register(SysTLSClose, Error("tls_close", VErrNotSupported, "see tls_create"))
	k.Register(SysTLSInfo, Error("tls_info", VErrNotSupported, "see tls_create"))
}

// RegisterDeviceSyscalls installs the 0x100-0x10F device-management
// group. ViperOS's fixed device set (internal/vfs/devfs) has no
// ioctl-style control operations yet, so open/close alias the FD
// group's path-based open against the mounted root and ioctl is a
// named error. Boot mounts only memfs there, so /dev paths do not
// resolve to devfs nodes.
func RegisterDeviceSyscalls(k *Kernel) {
	k.Register(SysDeviceOpen, Supported("device_open", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		inode, err := kk.VFS.Resolve(path, 0)
		if err != nil {
			return Fail(VErrNotFound)
		}
		fd, err := current.FDTable.Open(inode, 0)
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(fd), 0, 0)
	}))
	k.Register(SysDeviceIOCtl, Error("device_ioctl", VErrNotSupported, "devfs exposes fixed null/zero/console nodes with no control-plane verbs yet"))
	k.Register(SysDeviceClose, Supported("device_close", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		if err := current.FDTable.Close(int(args[0])); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))
}

// RegisterGUISyscalls installs the 0x110-0x11F GUI/display group,
// explicitly out of scope for the core (§1): the framebuffer console
// mirror is a panic-banner-only consumer, not a general display
// surface.
func RegisterGUISyscalls(k *Kernel) {
	k.Register(SysGUICreateSurface, Error("gui_create_surface", VErrNotSupported, "display surfaces are out of scope (§1); only the panic-banner mirror touches the framebuffer"))
	k.Register(SysGUIBlit, Error("gui_blit", VErrNotSupported, "see gui_create_surface"))
	k.Register(SysGUIPresent, Error("gui_present", VErrNotSupported, "see gui_create_surface"))
}
