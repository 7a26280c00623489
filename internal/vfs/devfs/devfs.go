// Package devfs implements the pseudo-device inodes the core needs
// for its own bring-up and for the device-management syscall group
// (0x100 range): /dev/null, /dev/zero, and /dev/console. Adapted from
// the sentry's devices/memdev, which registers the equivalent Linux
// character devices (null/zero/full/random) against its VFS; ViperOS's
// device set is narrower because there is no host kernel underneath
// to source /dev/random from.
package devfs

import (
	"fmt"
	"sync"

	"viperos/internal/vfs"
)

const (
	NullIno = iota + 1
	ZeroIno
	ConsoleIno
)

type nullDevice struct{}

func (nullDevice) Number() uint64                          { return NullIno }
func (nullDevice) Mode() uint32                             { return 0 }
func (nullDevice) Size() uint64                             { return 0 }
func (nullDevice) ReadAt(buf []byte, _ int64) (int, error)  { return 0, nil }
func (nullDevice) WriteAt(buf []byte, _ int64) (int, error) { return len(buf), nil }
func (nullDevice) Truncate(int64) error                     { return nil }
func (nullDevice) Readdir() ([]vfs.DirEntry, error)         { return nil, fmt.Errorf("devfs: not a directory") }

type zeroDevice struct{}

func (zeroDevice) Number() uint64 { return ZeroIno }
func (zeroDevice) Mode() uint32   { return 0 }
func (zeroDevice) Size() uint64   { return 0 }
func (zeroDevice) ReadAt(buf []byte, _ int64) (int, error) {
	for i := range buf {
		buf[i] = 0
	}
	return len(buf), nil
}
func (zeroDevice) WriteAt(buf []byte, _ int64) (int, error) { return len(buf), nil }
func (zeroDevice) Truncate(int64) error                     { return nil }
func (zeroDevice) Readdir() ([]vfs.DirEntry, error)         { return nil, fmt.Errorf("devfs: not a directory") }

// Writer is the narrow sink consoleDevice forwards writes to (the
// serial UART's Write method).
type Writer interface {
	Write(p []byte) (int, error)
}

type consoleDevice struct {
	mu sync.Mutex
	w  Writer
}

func (c *consoleDevice) Number() uint64 { return ConsoleIno }
func (c *consoleDevice) Mode() uint32   { return 0 }
func (c *consoleDevice) Size() uint64   { return 0 }
func (c *consoleDevice) ReadAt(buf []byte, _ int64) (int, error) {
	return 0, fmt.Errorf("devfs: console is write-only from this fd")
}
func (c *consoleDevice) WriteAt(buf []byte, _ int64) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.w == nil {
		return len(buf), nil
	}
	return c.w.Write(buf)
}
func (c *consoleDevice) Truncate(int64) error             { return nil }
func (c *consoleDevice) Readdir() ([]vfs.DirEntry, error) { return nil, fmt.Errorf("devfs: not a directory") }

// FS is a minimal flat FileSystem exposing the fixed device set at
// /dev/null, /dev/zero, /dev/console. It implements vfs.FileSystem
// directly since device nodes are never created, renamed, or removed.
type FS struct {
	console *consoleDevice
	byPath  map[string]vfs.Inode
}

// New creates a device file system whose /dev/console forwards writes
// to w (typically the serial UART).
func New(w Writer) *FS {
	c := &consoleDevice{w: w}
	return &FS{
		console: c,
		byPath: map[string]vfs.Inode{
			"/dev/null":    nullDevice{},
			"/dev/zero":    zeroDevice{},
			"/dev/console": c,
		},
	}
}

func (f *FS) Lookup(path string) (vfs.Inode, error) {
	if i, ok := f.byPath[path]; ok {
		return i, nil
	}
	return nil, vfs.ErrNotFound
}

func (f *FS) Create(path string, truncate bool) (vfs.Inode, error) {
	return nil, fmt.Errorf("devfs: read-only device namespace")
}
func (f *FS) Mkdir(string) error            { return fmt.Errorf("devfs: read-only device namespace") }
func (f *FS) Rmdir(string) error            { return fmt.Errorf("devfs: read-only device namespace") }
func (f *FS) Unlink(string) error           { return fmt.Errorf("devfs: read-only device namespace") }
func (f *FS) Rename(string, string) error   { return fmt.Errorf("devfs: read-only device namespace") }
func (f *FS) Sync() error                   { return nil }

func (f *FS) Readdir() []vfs.DirEntry {
	return []vfs.DirEntry{
		{Ino: NullIno, Name: "null", Type: 0},
		{Ino: ZeroIno, Name: "zero", Type: 0},
		{Ino: ConsoleIno, Name: "console", Type: 0},
	}
}
