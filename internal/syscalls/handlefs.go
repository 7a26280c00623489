package syscalls

import (
	"viperos/internal/cap"
	"viperos/internal/task"
	"viperos/internal/vfs"
)

// handleFile is the object a handle-FS capability resolves to: an
// inode plus its own offset, mirroring the path-addressed FD table's
// fdEntry shape but reached through internal/cap.Table instead of a
// small-integer FD table (§6's 0x80 range is explicitly a second,
// capability-addressed way to reach the same file operations).
type handleFile struct {
	inode  vfs.Inode
	offset int64
}

func openHandle(k *Kernel, current *task.Task, inode vfs.Inode) (cap.Handle, error) {
	return current.Handles.Insert(cap.KindFile, cap.RightRead|cap.RightWrite, &handleFile{inode: inode})
}

func resolveHandleFile(current *task.Task, h cap.Handle) (*handleFile, error) {
	obj, err := current.Handles.Object(h)
	if err != nil {
		return nil, err
	}
	hf, ok := obj.(*handleFile)
	if !ok {
		return nil, VErrInvalidArg
	}
	return hf, nil
}

// RegisterHandleFSSyscalls installs the 0x80-0x8F handle-FS group.
func RegisterHandleFSSyscalls(k *Kernel) {
	k.Register(SysHandleOpenRoot, Supported("handle_open_root", func(kk *Kernel, current *task.Task, _ [6]uint64, _ func()) Result {
		inode, err := kk.VFS.Resolve("/", 0)
		if err != nil {
			return Fail(VErrNotFound)
		}
		h, err := openHandle(kk, current, inode)
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(h.Index), uint64(h.Generation), 0)
	}))

	k.Register(SysHandleOpenRel, Supported("handle_open_rel", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		path, err := pathArg(kk, current, args[0], args[1])
		if err != nil {
			return Fail(err)
		}
		inode, err := kk.VFS.Resolve(path, vfs.OpenFlags(args[2]))
		if err != nil {
			return Fail(VErrNotFound)
		}
		h, err := openHandle(kk, current, inode)
		if err != nil {
			return Fail(VErrOutOfMemory)
		}
		return Ok(uint64(h.Index), uint64(h.Generation), 0)
	}))

	k.Register(SysHandleIORead, Supported("handle_io_read", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		hf, err := resolveHandleFile(current, h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		buf, err := kk.UserBytes(current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		n, err := hf.inode.ReadAt(buf, hf.offset)
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		hf.offset += int64(n)
		return Ok(uint64(n), 0, 0)
	}))

	k.Register(SysHandleIOWrite, Supported("handle_io_write", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		hf, err := resolveHandleFile(current, h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		buf, err := kk.UserBytes(current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		n, err := hf.inode.WriteAt(buf, hf.offset)
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		hf.offset += int64(n)
		return Ok(uint64(n), 0, 0)
	}))

	k.Register(SysHandleIOSeek, Supported("handle_io_seek", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		hf, err := resolveHandleFile(current, h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		switch int(args[3]) {
		case vfs.SeekSet:
			hf.offset = int64(args[2])
		case vfs.SeekCur:
			hf.offset += int64(args[2])
		case vfs.SeekEnd:
			hf.offset = int64(hf.inode.Size()) + int64(args[2])
		default:
			return Fail(VErrInvalidArg)
		}
		return Ok(uint64(hf.offset), 0, 0)
	}))

	k.Register(SysHandleReadDir, Supported("handle_read_dir", func(kk *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		hf, err := resolveHandleFile(current, h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		entries, err := hf.inode.Readdir()
		if err != nil {
			return Fail(VErrInvalidArg)
		}
		buf, err := kk.UserBytes(current, args[2], args[3])
		if err != nil {
			return Fail(err)
		}
		cursor := int(hf.offset)
		n := vfs.Getdents(buf, entries, &cursor)
		hf.offset = int64(cursor)
		return Ok(uint64(n), uint64(cursor), 0)
	}))

	k.Register(SysHandleClose, Supported("handle_close", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		if err := current.Handles.Revoke(h); err != nil {
			return Fail(VErrNotFound)
		}
		return OkVoid()
	}))

	k.Register(SysHandleRewind, Supported("handle_rewind", func(_ *Kernel, current *task.Task, args [6]uint64, _ func()) Result {
		h := cap.Handle{Index: int(args[0]), Generation: uint32(args[1])}
		hf, err := resolveHandleFile(current, h)
		if err != nil {
			return Fail(VErrNotFound)
		}
		hf.offset = 0
		return OkVoid()
	}))
}
