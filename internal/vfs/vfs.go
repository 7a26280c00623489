// Package vfs is the syscall-facing façade over an external file
// system (ViperFS), per spec §4.14. The concrete on-disk layout is out
// of scope for the core (§1); this package defines the narrow
// FileSystem interface the core depends on and a fixed-layout FD
// table, and resolves paths to inodes through whatever FileSystem is
// mounted.
package vfs

import (
	"fmt"
	"strings"
)

// Mode bits, a small subset of the stat mode field (§6 Stat struct).
const (
	ModeDir  uint32 = 1 << 31
	ModeFile uint32 = 0
)

// Inode is the minimal shape the core needs from an external file
// system: enough to answer stat/read/write/getdents.
type Inode interface {
	Number() uint64
	Mode() uint32
	Size() uint64
	ReadAt(buf []byte, offset int64) (int, error)
	WriteAt(buf []byte, offset int64) (int, error)
	Truncate(size int64) error
	Readdir() ([]DirEntry, error)
}

// DirEntry is one entry a directory inode reports to Readdir; Type
// mirrors the §6 DirEnt.type byte (0 = file, 1 = dir).
type DirEntry struct {
	Ino  uint64
	Name string
	Type uint8
}

// FileSystem resolves paths to inodes and performs the directory
// mutators. ViperFS (out of scope) is expected to implement this;
// internal/vfs/devfs provides a minimal in-core implementation for
// device nodes.
type FileSystem interface {
	Lookup(path string) (Inode, error)
	Create(path string, truncate bool) (Inode, error)
	Mkdir(path string) error
	Rmdir(path string) error
	Unlink(path string) error
	Rename(oldPath, newPath string) error
	Sync() error
}

// OpenFlags mirror the subset of O_* the syscall ABI exposes.
type OpenFlags uint32

const (
	ORead OpenFlags = 1 << iota
	OWrite
	OCreat
	OTrunc
	OAppend
)

// Whence values for lseek.
const (
	SeekSet = 0
	SeekCur = 1
	SeekEnd = 2
)

// Stat is the fixed-layout structure returned by stat/fstat (§6).
type Stat struct {
	Ino    uint64
	Mode   uint32
	Size   uint64
	Blocks uint64
	Atime  uint64
	Mtime  uint64
	Ctime  uint64
}

// VFS binds a mounted root FileSystem to path resolution.
type VFS struct {
	root FileSystem
}

// New binds root as the mounted file system.
func New(root FileSystem) *VFS {
	return &VFS{root: root}
}

// Resolve looks up path against the mounted root, honoring O_CREAT
// and O_TRUNC.
func (v *VFS) Resolve(path string, flags OpenFlags) (Inode, error) {
	path = normalize(path)
	inode, err := v.root.Lookup(path)
	if err != nil {
		if flags&OCreat == 0 {
			return nil, err
		}
		return v.root.Create(path, flags&OTrunc != 0)
	}
	if flags&OTrunc != 0 {
		if err := inode.Truncate(0); err != nil {
			return nil, err
		}
	}
	return inode, nil
}

func (v *VFS) Mkdir(path string) error  { return v.root.Mkdir(normalize(path)) }
func (v *VFS) Rmdir(path string) error  { return v.root.Rmdir(normalize(path)) }
func (v *VFS) Unlink(path string) error { return v.root.Unlink(normalize(path)) }
func (v *VFS) Rename(o, n string) error { return v.root.Rename(normalize(o), normalize(n)) }
func (v *VFS) Sync() error              { return v.root.Sync() }

func (v *VFS) Stat(path string) (Stat, error) {
	inode, err := v.root.Lookup(normalize(path))
	if err != nil {
		return Stat{}, err
	}
	return statOf(inode), nil
}

func statOf(inode Inode) Stat {
	return Stat{Ino: inode.Number(), Mode: inode.Mode(), Size: inode.Size()}
}

func normalize(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// ErrNotFound is returned by a FileSystem.Lookup that finds nothing.
var ErrNotFound = fmt.Errorf("vfs: not found")
