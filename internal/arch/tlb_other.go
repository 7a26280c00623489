//go:build !arm64

package arch

// InvalidateVA and InvalidateAllTLB are no-ops on the portable
// (non-arm64) build: this repo's scheduler and tests run against the
// host-simulated arena, which has no CPU-side TLB to invalidate. On a
// genuine arm64 target (see tlb_arm64.s) these issue the real
// TLBI/DSB/ISB sequence the architecture requires after a page-table
// mutation (§4.5). Call-site discipline (invalidate after every
// mutation) is identical either way; only the backend differs.
func InvalidateVA(va uint64) {}

func InvalidateAllTLB() {}
