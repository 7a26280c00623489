// Package usage tracks system-wide memory accounting, adapted from
// the sentry's pkg/sentry/usage: a small mutex-guarded counter set
// exposed to the mem_info sysinfo syscall (0xE0 range), per the
// SPEC_FULL §3 "Memory usage accounting" addition.
package usage

import "sync"

// MemoryStats mirrors the sentry's CPUStats/MemoryStats shape: a
// mutex-guarded struct of monotonically-meaningful counters, read
// through a copying accessor so callers never see a torn snapshot.
type MemoryStats struct {
	mu sync.Mutex

	TotalPages int
	UsedPages  int
	FreePages  int
}

// Source is the narrow read interface usage needs from the PMM,
// avoiding a direct dependency on internal/mm/pmm from this package.
type Source interface {
	Stats() (free, used int)
	TotalPages() int
}

// Snapshot polls src and returns a coherent MemoryStats value.
func Snapshot(src Source) MemoryStats {
	free, used := src.Stats()
	return MemoryStats{
		TotalPages: src.TotalPages(),
		UsedPages:  used,
		FreePages:  free,
	}
}

// Bytes converts a page count to bytes at the fixed 4 KiB granule.
func (m MemoryStats) Bytes() (total, used, free int64) {
	const pageSize = 4096
	return int64(m.TotalPages) * pageSize, int64(m.UsedPages) * pageSize, int64(m.FreePages) * pageSize
}
