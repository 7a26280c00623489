//go:build arm64

package arch

// SyncHandler and IRQHandler are installed by internal/boot during
// bring-up and invoked by the assembly vector stubs. Indirection
// through package-level vars keeps this low-level package free of a
// dependency on the scheduler/dispatcher packages that implement them.
var (
	SyncHandler func(f *Frame)
	IRQHandler  func(f *Frame)
)

func dispatchSync(f *Frame) {
	if SyncHandler != nil {
		SyncHandler(f)
	}
}

func dispatchIRQ(f *Frame) {
	if IRQHandler != nil {
		IRQHandler(f)
	}
}
