package vfs

import "encoding/binary"

// direntHeaderSize is the fixed portion of §6's DirEnt: ino(8) +
// reclen(2) + type(1) + namelen(1) = 12 bytes, before the name.
const direntHeaderSize = 12

// MaxNameLen bounds a packed DirEnt's name, per §6 (truncated at 255).
const MaxNameLen = 255

// PackDirEntry encodes one DirEnt into buf at offset 0, returning the
// number of bytes written (the 8-byte-aligned record length) or 0 if
// buf is too small to hold even one entry, per spec §4.14's
// "a buffer that cannot fit one entry returns 0 without advancing".
func PackDirEntry(buf []byte, ino uint64, name string, typ uint8) int {
	if len(name) > MaxNameLen {
		name = name[:MaxNameLen]
	}
	raw := direntHeaderSize + len(name) + 1 // +1 for NUL terminator
	reclen := (raw + 7) &^ 7
	if len(buf) < reclen {
		return 0
	}
	binary.LittleEndian.PutUint64(buf[0:8], ino)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(reclen))
	buf[10] = typ
	buf[11] = uint8(len(name))
	copy(buf[12:12+len(name)], name)
	buf[12+len(name)] = 0
	for i := 12 + len(name) + 1; i < reclen; i++ {
		buf[i] = 0
	}
	return reclen
}

// Getdents packs as many of entries (starting at *cursor) as fit in
// buf, advancing *cursor past each packed entry, per spec §4.14.
func Getdents(buf []byte, entries []DirEntry, cursor *int) int {
	written := 0
	for *cursor < len(entries) {
		e := entries[*cursor]
		n := PackDirEntry(buf[written:], e.Ino, e.Name, e.Type)
		if n == 0 {
			break
		}
		written += n
		*cursor++
	}
	return written
}
