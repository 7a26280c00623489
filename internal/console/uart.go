// Package console implements the PL011 UART output path and the
// small formatting façade the kernel uses for early-boot and panic
// output, ported from console.{hpp,cpp}/serial output paths. The
// PL011 itself is modeled as a plain io.Writer sink rather than real
// MMIO registers (qemuvirt.UARTBase is recorded for documentation but
// not dereferenced): on the host this kernel is developed on, output
// either goes straight to the process's stdout or, when a PTY-backed
// session is requested (spec §2a), to a pseudo-terminal allocated
// with github.com/kr/pty and placed in raw mode via
// github.com/containerd/console, the same pairing runsc's sandbox
// uses for its own console handling.
package console

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
)

// UART is the PL011 serial output sink. Real hardware would hold a
// register base address; this one holds whatever io.Writer boot
// wiring selected (process stdout, a PTY, or a test buffer).
type UART struct {
	mu  sync.Mutex
	out io.Writer
}

// NewUART wraps out (typically os.Stdout or a PTY's master end) as
// the kernel's serial console.
func NewUART(out io.Writer) *UART {
	if out == nil {
		out = os.Stdout
	}
	return &UART{out: out}
}

// Write implements io.Writer and devfs.Writer, so a UART can be the
// sink internal/vfs/devfs's console device forwards writes to.
func (u *UART) Write(p []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.out.Write(p)
}

// Puts writes a string followed by no implicit newline, matching
// serial::puts's raw-string semantics.
func (u *UART) Puts(s string) {
	_, _ = u.Write([]byte(s))
}

// Facade is the console::print/print_dec/print_hex wrapper over a
// UART, kept as a separate type (matching console.cpp's stated intent
// of "a thin wrapper... so it's easier to route output to multiple
// devices without rewriting call sites") so panic/boot code depends
// on Facade rather than UART directly.
type Facade struct {
	uart *UART
}

// NewFacade wraps uart.
func NewFacade(uart *UART) *Facade { return &Facade{uart: uart} }

// Print writes s verbatim.
func (f *Facade) Print(s string) { f.uart.Puts(s) }

// PrintDec writes value in decimal.
func (f *Facade) PrintDec(value int64) {
	f.uart.Puts(strconv.FormatInt(value, 10))
}

// PrintHex writes value in "0x"-prefixed lowercase hexadecimal.
func (f *Facade) PrintHex(value uint64) {
	f.uart.Puts(fmt.Sprintf("0x%x", value))
}

// Printf is a convenience this port adds beyond the original's three
// primitives, since Go's fmt makes a full formatter nearly free and
// every higher kernel layer (klog included) expects one.
func (f *Facade) Printf(format string, args ...any) {
	f.uart.Puts(fmt.Sprintf(format, args...))
}
