//go:build arm64

package arch

// InvalidateVA issues TLBI VAAE1IS for the page containing va,
// followed by DSB SY and ISB, per spec §4.5.
//
//go:noescape
func InvalidateVA(va uint64)

// InvalidateAllTLB issues TLBI VMALLE1IS followed by DSB SY and ISB,
// used after a bulk change (§4.5).
//
//go:noescape
func InvalidateAllTLB()
