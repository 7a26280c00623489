// Package viper packs the fixed-layout ABI structures spec §6 defines
// (Stat, TaskInfo, PollEvent) into their little-endian wire
// representation, so internal/syscalls' handlers can write a kernel
// value straight into a user buffer without each handler repeating
// the byte layout. The name is this repository's own (it has nothing
// to do with the "viper" CLI config library some of the pack's other
// example repos import).
package viper

import "encoding/binary"

// StatSize is sizeof(Stat) per §6: ino, mode, size, blocks, atime,
// mtime, ctime — seven 8-byte fields except mode, which is 4 bytes
// padded to 8 for natural alignment of the field that follows.
const StatSize = 8 + 8 + 8 + 8 + 8 + 8 + 8

// EncodeStat writes a Stat structure into buf[0:StatSize].
func EncodeStat(buf []byte, ino uint64, mode uint32, size, blocks, atime, mtime, ctime uint64) {
	binary.LittleEndian.PutUint64(buf[0:8], ino)
	binary.LittleEndian.PutUint32(buf[8:12], mode)
	binary.LittleEndian.PutUint32(buf[12:16], 0) // padding
	binary.LittleEndian.PutUint64(buf[16:24], size)
	binary.LittleEndian.PutUint64(buf[24:32], blocks)
	binary.LittleEndian.PutUint64(buf[32:40], atime)
	binary.LittleEndian.PutUint64(buf[40:48], mtime)
	binary.LittleEndian.PutUint64(buf[48:56], ctime)
}

// TaskInfoSize is sizeof(TaskInfo) per §6: id(4) + state(1) + flags(1)
// + priority(1) + pad(1) + name[32] + cpu_ticks(8) + switch_count(8) +
// parent_id(4) + exit_code(4).
const TaskInfoSize = 4 + 1 + 1 + 1 + 1 + 32 + 8 + 8 + 4 + 4

// TaskInfo is the wire-layout argument EncodeTaskInfo takes; it
// mirrors internal/task.Info's fields so callers can pass that value
// straight through without a second struct definition.
type TaskInfo struct {
	ID          uint32
	State       uint8
	Flags       uint8
	Priority    uint8
	Name        string
	CPUTicks    uint64
	SwitchCount uint64
	ParentID    uint32
	ExitCode    int32
}

// PollEventSize is sizeof one wire PollEvent record: handle(4) +
// events(4) + triggered(4), matching internal/ipc.PollEvent's fields.
const PollEventSize = 4 + 4 + 4

// EncodePollEvent writes one (handle, events, triggered) record into
// buf[0:PollEventSize], for poll_wait to report back which of the
// caller's watched handles actually fired.
func EncodePollEvent(buf []byte, handle, events, triggered uint32) {
	binary.LittleEndian.PutUint32(buf[0:4], handle)
	binary.LittleEndian.PutUint32(buf[4:8], events)
	binary.LittleEndian.PutUint32(buf[8:12], triggered)
}

// EncodeTaskInfo writes a TaskInfo into buf[0:TaskInfoSize], truncating
// Name at 31 bytes plus a NUL terminator.
func EncodeTaskInfo(buf []byte, info TaskInfo) {
	binary.LittleEndian.PutUint32(buf[0:4], info.ID)
	buf[4] = info.State
	buf[5] = info.Flags
	buf[6] = info.Priority
	buf[7] = 0 // pad

	name := info.Name
	if len(name) > 31 {
		name = name[:31]
	}
	copy(buf[8:8+32], name)
	for i := 8 + len(name); i < 8+32; i++ {
		buf[i] = 0
	}

	binary.LittleEndian.PutUint64(buf[40:48], info.CPUTicks)
	binary.LittleEndian.PutUint64(buf[48:56], info.SwitchCount)
	binary.LittleEndian.PutUint32(buf[56:60], info.ParentID)
	binary.LittleEndian.PutUint32(buf[60:64], uint32(info.ExitCode))
}
