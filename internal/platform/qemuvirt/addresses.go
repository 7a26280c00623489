// Package qemuvirt names the fixed hardware addresses of the QEMU
// `virt` machine that ViperOS targets, per spec §6.
package qemuvirt

const (
	// GICDistributorBase is the GICv2/v3 distributor MMIO base.
	GICDistributorBase uintptr = 0x08000000

	// GICv2CPUInterfaceBase is the GICv2 CPU interface MMIO base.
	GICv2CPUInterfaceBase uintptr = 0x08010000

	// GICv3RedistributorBase is the first GICv3 redistributor's MMIO base.
	GICv3RedistributorBase uintptr = 0x080A0000

	// GICv3RedistributorStride is the per-CPU redistributor frame size.
	GICv3RedistributorStride uintptr = 0x00020000

	// UARTBase is the PL011 UART MMIO base on virt.
	UARTBase uintptr = 0x09000000

	// TimerPPI is the architected (non-secure) timer's PPI id.
	TimerPPI = 30

	// FwCfgBase is the fw_cfg MMIO selector/data base on virt.
	FwCfgBase uintptr = 0x09020000

	// FramebufferBase is the default ramfb scratch base used by the
	// constants table in the original kernel.
	FramebufferBase uintptr = 0x40000000

	// PageSize is the fixed MMU granule used throughout the kernel.
	PageSize = 4096

	// SpuriousIRQThreshold: GIC IAR reads at or above this value are
	// spurious and must not be dispatched (§4.2).
	SpuriousIRQThreshold = 1020

	// MaxIRQs bounds the interrupt-id space the controller and
	// handler table cover.
	MaxIRQs = 1024
)
