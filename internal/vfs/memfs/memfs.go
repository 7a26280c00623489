// Package memfs is a small in-memory FileSystem used as the ViperFS
// stand-in for tests and for the boot subcommand's default root: the
// real on-disk layout is an external collaborator out of scope for
// the core (spec §1), but the VFS façade and FD table still need a
// concrete mounted file system to exercise against.
package memfs

import (
	"fmt"
	"path"
	"strings"
	"sync"

	"viperos/internal/vfs"
)

type node struct {
	ino     uint64
	isDir   bool
	data    []byte
	entries map[string]*node
}

func (n *node) Number() uint64 { return n.ino }
func (n *node) Mode() uint32 {
	if n.isDir {
		return vfs.ModeDir
	}
	return vfs.ModeFile
}
func (n *node) Size() uint64 {
	if n.isDir {
		return uint64(len(n.entries))
	}
	return uint64(len(n.data))
}

func (n *node) ReadAt(buf []byte, offset int64) (int, error) {
	if n.isDir {
		return 0, fmt.Errorf("memfs: is a directory")
	}
	if offset >= int64(len(n.data)) {
		return 0, nil
	}
	k := copy(buf, n.data[offset:])
	return k, nil
}

func (n *node) WriteAt(buf []byte, offset int64) (int, error) {
	if n.isDir {
		return 0, fmt.Errorf("memfs: is a directory")
	}
	end := offset + int64(len(buf))
	if end > int64(len(n.data)) {
		grown := make([]byte, end)
		copy(grown, n.data)
		n.data = grown
	}
	copy(n.data[offset:], buf)
	return len(buf), nil
}

func (n *node) Truncate(size int64) error {
	if size < int64(len(n.data)) {
		n.data = n.data[:size]
	} else if size > int64(len(n.data)) {
		grown := make([]byte, size)
		copy(grown, n.data)
		n.data = grown
	}
	return nil
}

func (n *node) Readdir() ([]vfs.DirEntry, error) {
	if !n.isDir {
		return nil, fmt.Errorf("memfs: not a directory")
	}
	var out []vfs.DirEntry
	for name, child := range n.entries {
		typ := uint8(0)
		if child.isDir {
			typ = 1
		}
		out = append(out, vfs.DirEntry{Ino: child.ino, Name: name, Type: typ})
	}
	return out, nil
}

// FS is the mounted root.
type FS struct {
	mu      sync.Mutex
	root    *node
	nextIno uint64
}

// New creates an empty root directory.
func New() *FS {
	return &FS{root: &node{ino: 1, isDir: true, entries: map[string]*node{}}, nextIno: 2}
}

func split(p string) []string {
	p = strings.Trim(path.Clean(p), "/")
	if p == "" || p == "." {
		return nil
	}
	return strings.Split(p, "/")
}

func (f *FS) walk(parts []string, createDirsUpTo int) (*node, *node, string, error) {
	cur := f.root
	for i, part := range parts {
		last := i == len(parts)-1
		if last {
			return cur, cur.entries[part], part, nil
		}
		child, ok := cur.entries[part]
		if !ok {
			if i < createDirsUpTo {
				child = &node{ino: f.allocIno(), isDir: true, entries: map[string]*node{}}
				cur.entries[part] = child
			} else {
				return nil, nil, "", vfs.ErrNotFound
			}
		}
		if !child.isDir {
			return nil, nil, "", fmt.Errorf("memfs: %s is not a directory", part)
		}
		cur = child
	}
	return cur, cur, "", nil
}

func (f *FS) allocIno() uint64 {
	ino := f.nextIno
	f.nextIno++
	return ino
}

func (f *FS) Lookup(path string) (vfs.Inode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := split(path)
	if len(parts) == 0 {
		return f.root, nil
	}
	parent, child, _, err := f.walk(parts, -1)
	if err != nil {
		return nil, err
	}
	_ = parent
	if child == nil {
		return nil, vfs.ErrNotFound
	}
	return child, nil
}

func (f *FS) Create(path string, truncate bool) (vfs.Inode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := split(path)
	if len(parts) == 0 {
		return nil, fmt.Errorf("memfs: cannot create root")
	}
	parent, existing, name, err := f.walk(parts, len(parts)-1)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if truncate {
			existing.data = nil
		}
		return existing, nil
	}
	n := &node{ino: f.allocIno()}
	parent.entries[name] = n
	return n, nil
}

func (f *FS) Mkdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := split(path)
	if len(parts) == 0 {
		return fmt.Errorf("memfs: root exists")
	}
	parent, existing, name, err := f.walk(parts, len(parts)-1)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("memfs: %s exists", path)
	}
	parent.entries[name] = &node{ino: f.allocIno(), isDir: true, entries: map[string]*node{}}
	return nil
}

func (f *FS) Rmdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := split(path)
	parent, existing, name, err := f.walk(parts, -1)
	if err != nil {
		return err
	}
	if existing == nil || !existing.isDir {
		return fmt.Errorf("memfs: %s is not a directory", path)
	}
	if len(existing.entries) != 0 {
		return fmt.Errorf("memfs: %s not empty", path)
	}
	delete(parent.entries, name)
	return nil
}

func (f *FS) Unlink(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	parts := split(path)
	parent, existing, name, err := f.walk(parts, -1)
	if err != nil {
		return err
	}
	if existing == nil || existing.isDir {
		return fmt.Errorf("memfs: %s is not a file", path)
	}
	delete(parent.entries, name)
	return nil
}

func (f *FS) Rename(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldParts := split(oldPath)
	oldParent, existing, oldName, err := f.walk(oldParts, -1)
	if err != nil {
		return err
	}
	if existing == nil {
		return vfs.ErrNotFound
	}
	newParts := split(newPath)
	newParent, _, newName, err := f.walk(newParts, len(newParts)-1)
	if err != nil {
		return err
	}
	delete(oldParent.entries, oldName)
	newParent.entries[newName] = existing
	return nil
}

// Sync is a no-op: memfs has no backing store to flush.
func (f *FS) Sync() error { return nil }
