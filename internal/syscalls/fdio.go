package syscalls

import (
	"viperos/internal/syscalls/viper"
	"viperos/internal/task"
	"viperos/internal/vfs"
)

func pathArg(k *Kernel, current *task.Task, va, length uint64) (string, error) {
	buf, err := k.UserBytes(current, va, length)
	if err != nil {
		return "", err
	}
	n := 0
	for n < len(buf) && buf[n] != 0 {
		n++
	}
	return string(buf[:n]), nil
}

// RegisterFDSyscalls installs the 0x40-0x4F FD I/O group, per spec
// §4.14: a single global FD table keyed off current.FDTable (moved
// into the per-task descriptor already, resolving §9 Open Question 3).
func RegisterFDSyscalls(k *Kernel) {
	k.Register(SysOpen, Supported("open", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		flags := vfs.OpenFlags(args[2])
		inode, err := kk.VFS.Resolve(path, flags)
		if err != nil {
			return Fail(VErrNotFound)
		}
		fd, err := current.FDTable.Open(inode, flags)
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(fd), 0, 0)
	}))

	k.Register(SysClose, Supported("close", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		if err := current.FDTable.Close(int(args[0])); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysRead, Supported("read", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		buf, err := kk.UserBytes(current, args[1], args[2])
		if err != nil {
			return Fail(err)
		}
		n, err := current.FDTable.Read(int(args[0]), buf)
		if err != nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(n), 0, 0)
	}))

	k.Register(SysWrite, Supported("write", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		buf, err := kk.UserBytes(current, args[1], args[2])
		if err != nil {
			return Fail(err)
		}
		n, err := current.FDTable.Write(int(args[0]), buf)
		if err != nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(n), 0, 0)
	}))

	k.Register(SysLseek, Supported("lseek", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		off, err := current.FDTable.Lseek(int(args[0]), int64(args[1]), int(args[2]))
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		return Ok(uint64(off), 0, 0)
	}))

	k.Register(SysStat, Supported("stat", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		st, err := kk.VFS.Stat(path)
		if err != nil {
			return Fail(VErrNotFound)
		}
		out, err := kk.UserBytes(current, args[2], viper.StatSize)
		if err != nil {
			return Fail(err)
		}
		viper.EncodeStat(out, st.Ino, st.Mode, st.Size, st.Blocks, st.Atime, st.Mtime, st.Ctime)
		return OkVoid()
	}))

	k.Register(SysFstat, Supported("fstat", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		st, err := current.FDTable.Fstat(int(args[0]))
		if err != nil {
			return Fail(VErrNotFound)
		}
		out, err := kk.UserBytes(current, args[1], viper.StatSize)
		if err != nil {
			return Fail(err)
		}
		viper.EncodeStat(out, st.Ino, st.Mode, st.Size, st.Blocks, st.Atime, st.Mtime, st.Ctime)
		return OkVoid()
	}))

	k.Register(SysDup, Supported("dup", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		fd, err := current.FDTable.Dup(int(args[0]))
		if err != nil {
			return Fail(VErrNotFound)
		}
		return Ok(uint64(fd), 0, 0)
	}))

	k.Register(SysDup2, Supported("dup2", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		if err := current.FDTable.Dup2(int(args[0]), int(args[1])); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))
}

// RegisterDirSyscalls installs the 0x60-0x6F directory-operations
// group. Mutators explicitly sync the file system on success, per
// §4.14.
func RegisterDirSyscalls(k *Kernel) {
	k.Register(SysReaddir, Supported("readdir", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		fd := int(args[0])
		inode, err := current.FDTable.Inode(fd)
		if err != nil {
			return Fail(VErrNotFound)
		}
		entries, err := inode.Readdir()
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		buf, err := kk.UserBytes(current, args[1], args[2])
		if err != nil {
			return Fail(err)
		}
		cursor := int(args[3])
		n := vfs.Getdents(buf, entries, &cursor)
		return Ok(uint64(n), uint64(cursor), 0)
	}))

	k.Register(SysMkdir, Supported("mkdir", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		if err := kk.VFS.Mkdir(path); err != nil {
			return Fail(VErrInvalidArg)
		}
		_ = kk.VFS.Sync()
		return OkVoid()
	}))

	k.Register(SysRmdir, Supported("rmdir", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		if err := kk.VFS.Rmdir(path); err != nil {
			return Fail(VErrInvalidArg)
		}
		_ = kk.VFS.Sync()
		return OkVoid()
	}))

	k.Register(SysUnlink, Supported("unlink", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		if err := kk.VFS.Unlink(path); err != nil {
			return Fail(VErrInvalidArg)
		}
		_ = kk.VFS.Sync()
		return OkVoid()
	}))

	k.Register(SysRename, Supported("rename", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		oldPath, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		newPath, err := pathArg(kk, current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		if err := kk.VFS.Rename(oldPath, newPath); err != nil {
			return Fail(VErrInvalidArg)
		}
		_ = kk.VFS.Sync()
		return OkVoid()
	}))

	k.Register(SysSymlink, Error("symlink", VErrNotSupported,
		"ViperFS symlink support is an external-collaborator concern (§1); the vfs.FileSystem interface has no symlink hook yet"))
	k.Register(SysReadlink, Error("readlink", VErrNotSupported, "see symlink"))

	k.Register(SysGetcwd, Supported("getcwd", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		out, err := kk.UserBytes(current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		n := copy(out, current.Cwd)
		if n < len(out) {
			out[n] = 0
		}
		return Ok(uint64(len(current.Cwd)), 0, 0)
	}))

	k.Register(SysChdir, Supported("chdir", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		if _, err := kk.VFS.Stat(path); err != nil {
			return Fail(VErrNotFound)
		}
		current.Cwd = path
		return OkVoid()
	}))
}
