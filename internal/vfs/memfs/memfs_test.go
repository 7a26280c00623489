package memfs

import (
	"testing"

	"viperos/internal/vfs"
)

func TestCreateWriteReadRoundTrip(t *testing.T) {
	fs := New()
	inode, err := fs.Create("/hello.txt", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := inode.WriteAt([]byte("hello"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got, err := fs.Lookup("/hello.txt")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	buf := make([]byte, 16)
	n, err := got.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("ReadAt = %q, want %q", buf[:n], "hello")
	}
}

func TestLookupMissingReturnsErrNotFound(t *testing.T) {
	fs := New()
	if _, err := fs.Lookup("/nope"); err != vfs.ErrNotFound {
		t.Fatalf("Lookup of a missing path = %v, want vfs.ErrNotFound", err)
	}
}

func TestMkdirAndNestedCreate(t *testing.T) {
	fs := New()
	if err := fs.Mkdir("/dir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := fs.Create("/dir/file", false); err != nil {
		t.Fatalf("Create nested: %v", err)
	}
	dir, err := fs.Lookup("/dir")
	if err != nil {
		t.Fatalf("Lookup dir: %v", err)
	}
	entries, err := dir.Readdir()
	if err != nil {
		t.Fatalf("Readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "file" {
		t.Fatalf("Readdir = %+v, want one entry named \"file\"", entries)
	}
}

func TestRmdirRejectsNonEmpty(t *testing.T) {
	fs := New()
	if err := fs.Mkdir("/dir"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := fs.Create("/dir/file", false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Rmdir("/dir"); err == nil {
		t.Fatalf("Rmdir succeeded on a non-empty directory")
	}
}

func TestUnlinkRemovesFile(t *testing.T) {
	fs := New()
	if _, err := fs.Create("/f", false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Unlink("/f"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := fs.Lookup("/f"); err != vfs.ErrNotFound {
		t.Fatalf("Lookup after Unlink = %v, want vfs.ErrNotFound", err)
	}
}

func TestRenameMovesEntry(t *testing.T) {
	fs := New()
	if _, err := fs.Create("/old", false); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := fs.Rename("/old", "/new"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := fs.Lookup("/old"); err != vfs.ErrNotFound {
		t.Fatalf("Lookup(/old) after Rename = %v, want vfs.ErrNotFound", err)
	}
	if _, err := fs.Lookup("/new"); err != nil {
		t.Fatalf("Lookup(/new) after Rename: %v", err)
	}
}

func TestCreateExistingWithTruncateClearsData(t *testing.T) {
	fs := New()
	inode, err := fs.Create("/f", false)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := inode.WriteAt([]byte("data"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	again, err := fs.Create("/f", true)
	if err != nil {
		t.Fatalf("Create (truncate): %v", err)
	}
	if again.Size() != 0 {
		t.Fatalf("Size after truncating Create = %d, want 0", again.Size())
	}
}
