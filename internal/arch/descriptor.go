package arch

// Descriptor is a 64-bit AArch64 long-descriptor translation table
// entry, per spec §3. Bit layout follows ARMv8-A VMSAv8-64 (stage 1,
// 4KB granule).
type Descriptor uint64

const (
	descValid    = 1 << 0
	descTableBit = 1 << 1 // 1 = table (levels 0-2) or page (level 3); 0 = block or invalid

	descAttrIdxShift = 2
	descAttrIdxMask  = 0x7 << descAttrIdxShift

	descNS     = 1 << 5
	descAPShift = 6
	descAPMask  = 0x3 << descAPShift
	descSHShift = 8
	descSHMask  = 0x3 << descSHShift
	descAF      = 1 << 10

	descOutputAddrMask = 0x0000fffffffff000 // bits [47:12]

	descPXN = 1 << 53
	descUXN = 1 << 54
)

// AP (access permission) encodings.
const (
	APKernelRW = 0b00 // EL1 RW, EL0 none
	APUserRW   = 0b01 // EL1 RW, EL0 RW
	APKernelRO = 0b10 // EL1 RO, EL0 none
	APUserRO   = 0b11 // EL1 RO, EL0 RO
)

// Shareability encodings.
const (
	SHNonShareable   = 0b00
	SHOuterShareable = 0b10
	SHInnerShareable = 0b11
)

// MAIR indices, matching the MAIR_EL1 programmed at boot: index 0 is
// normal write-back cacheable memory, index 1 is device-nGnRE memory.
const (
	MAIRNormal = 0
	MAIRDevice = 1
)

// FlagPreset bundles the bits that vary by mapping kind, so callers
// describe intent ("kernel RW", "device MMIO") instead of assembling
// raw bits at each call site.
type FlagPreset struct {
	AP    uint64
	SH    uint64
	MAIR  uint64
	XN    bool // sets both UXN and PXN for data-only pages
	UserXN bool // sets only UXN, leaving kernel execute permitted
}

var (
	PresetKernelRW = FlagPreset{AP: APKernelRW, SH: SHInnerShareable, MAIR: MAIRNormal, XN: true}
	PresetKernelRX = FlagPreset{AP: APKernelRO, SH: SHInnerShareable, MAIR: MAIRNormal, UserXN: true}
	PresetKernelRO = FlagPreset{AP: APKernelRO, SH: SHInnerShareable, MAIR: MAIRNormal, XN: true}
	PresetDeviceMMIO = FlagPreset{AP: APKernelRW, SH: SHOuterShareable, MAIR: MAIRDevice, XN: true}
	PresetUserRW     = FlagPreset{AP: APUserRW, SH: SHInnerShareable, MAIR: MAIRNormal, UserXN: true}
	PresetUserRX     = FlagPreset{AP: APUserRO, SH: SHInnerShareable, MAIR: MAIRNormal}
)

// NewTableDescriptor builds a non-terminal descriptor pointing at a
// page-aligned table physical address.
func NewTableDescriptor(tablePhys uint64) Descriptor {
	return Descriptor(tablePhys&descOutputAddrMask | descValid | descTableBit)
}

// NewPageDescriptor builds a level-3 terminal descriptor mapping a
// page-aligned physical frame with the given preset.
func NewPageDescriptor(framePhys uint64, p FlagPreset) Descriptor {
	d := uint64(framePhys)&descOutputAddrMask | descValid | descTableBit | descAF
	d |= p.AP << descAPShift
	d |= p.SH << descSHShift
	d |= p.MAIR << descAttrIdxShift
	if p.XN {
		d |= descPXN | descUXN
	} else if p.UserXN {
		d |= descUXN
	}
	return Descriptor(d)
}

// NewBlockDescriptor builds a level-1/2 block descriptor (table bit
// clear) for large mappings such as the identity-mapped kernel image.
func NewBlockDescriptor(blockPhys uint64, p FlagPreset) Descriptor {
	return NewPageDescriptor(blockPhys, p) &^ descTableBit
}

func (d Descriptor) Valid() bool   { return d&descValid != 0 }
func (d Descriptor) IsTable() bool { return d&descTableBit != 0 }
func (d Descriptor) OutputAddress() uint64 {
	return uint64(d) & descOutputAddrMask
}

// VAIndices extracts the four 9-bit level indices and the 12-bit page
// offset from a 48-bit virtual address.
func VAIndices(va uint64) (l0, l1, l2, l3 int, pageOffset uint64) {
	l0 = int((va >> 39) & 0x1ff)
	l1 = int((va >> 30) & 0x1ff)
	l2 = int((va >> 21) & 0x1ff)
	l3 = int((va >> 12) & 0x1ff)
	pageOffset = va & 0xfff
	return
}
