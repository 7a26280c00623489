package devfs

import (
	"bytes"
	"testing"

	"viperos/internal/vfs"
)

func TestNullDeviceDiscardsWritesAndReadsEmpty(t *testing.T) {
	fs := New(nil)
	null, err := fs.Lookup("/dev/null")
	if err != nil {
		t.Fatalf("Lookup(/dev/null): %v", err)
	}
	n, err := null.WriteAt([]byte("discarded"), 0)
	if err != nil || n != len("discarded") {
		t.Fatalf("WriteAt = (%d, %v), want (%d, nil)", n, err, len("discarded"))
	}
	buf := make([]byte, 4)
	n, err = null.ReadAt(buf, 0)
	if err != nil || n != 0 {
		t.Fatalf("ReadAt = (%d, %v), want (0, nil)", n, err)
	}
}

func TestZeroDeviceFillsZeroes(t *testing.T) {
	fs := New(nil)
	zero, err := fs.Lookup("/dev/zero")
	if err != nil {
		t.Fatalf("Lookup(/dev/zero): %v", err)
	}
	buf := bytes.Repeat([]byte{0xff}, 8)
	n, err := zero.ReadAt(buf, 0)
	if err != nil || n != 8 {
		t.Fatalf("ReadAt = (%d, %v), want (8, nil)", n, err)
	}
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("buf[%d] = %#x, want 0", i, b)
		}
	}
}

type capturingWriter struct {
	buf bytes.Buffer
}

func (c *capturingWriter) Write(p []byte) (int, error) { return c.buf.Write(p) }

func TestConsoleDeviceForwardsWrites(t *testing.T) {
	w := &capturingWriter{}
	fs := New(w)
	console, err := fs.Lookup("/dev/console")
	if err != nil {
		t.Fatalf("Lookup(/dev/console): %v", err)
	}
	if _, err := console.WriteAt([]byte("hi"), 0); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if w.buf.String() != "hi" {
		t.Fatalf("console writer captured %q, want %q", w.buf.String(), "hi")
	}
	if _, err := console.ReadAt(make([]byte, 4), 0); err == nil {
		t.Fatalf("ReadAt on the write-only console succeeded")
	}
}

func TestLookupUnknownPathFails(t *testing.T) {
	fs := New(nil)
	if _, err := fs.Lookup("/dev/nope"); err != vfs.ErrNotFound {
		t.Fatalf("Lookup(/dev/nope) = %v, want vfs.ErrNotFound", err)
	}
}

func TestMutatorsAreRejected(t *testing.T) {
	fs := New(nil)
	if _, err := fs.Create("/dev/new", false); err == nil {
		t.Fatalf("Create succeeded on the read-only device namespace")
	}
	if err := fs.Mkdir("/dev/sub"); err == nil {
		t.Fatalf("Mkdir succeeded on the read-only device namespace")
	}
	if err := fs.Unlink("/dev/null"); err == nil {
		t.Fatalf("Unlink succeeded on the read-only device namespace")
	}
}
