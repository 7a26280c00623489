package console

import (
	"fmt"
	"io"
	"os"

	containerdconsole "github.com/containerd/console"
	"github.com/kr/pty"
)

// HostSession is a PTY-backed console: the kernel's UART writes land
// on the master side, and a host terminal attaches to the slave side
// in raw mode, the same pairing runsc's sandbox uses to give a
// container a real interactive terminal without going through the
// host's own job-control line discipline.
type HostSession struct {
	master, slave *os.File
	console       containerdconsole.Console
	uart          *UART
}

// NewHostSession allocates a PTY pair and puts the slave side into
// raw mode, returning a UART whose writes/reads go through the master
// side.
func NewHostSession() (*HostSession, error) {
	master, slave, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("console: opening pty: %w", err)
	}
	c, err := containerdconsole.ConsoleFromFile(slave)
	if err != nil {
		master.Close()
		slave.Close()
		return nil, fmt.Errorf("console: wrapping pty slave: %w", err)
	}
	if err := c.SetRaw(); err != nil {
		master.Close()
		slave.Close()
		return nil, fmt.Errorf("console: setting raw mode: %w", err)
	}
	return &HostSession{
		master:  master,
		slave:   slave,
		console: c,
		uart:    NewUART(master),
	}, nil
}

// UART returns the PTY-backed serial sink for wiring into devfs and
// the kernel's console facade.
func (h *HostSession) UART() *UART { return h.uart }

// Reader returns the master side for reading keystrokes a host
// terminal sends in on the slave side (getchar's backing source).
func (h *HostSession) Reader() io.Reader { return h.master }

// SlavePath is the path a host user attaches to (e.g. via `screen` or
// `minicom`) to interact with the kernel's console.
func (h *HostSession) SlavePath() string { return h.slave.Name() }

// Close restores the slave's terminal mode and releases both ends.
func (h *HostSession) Close() error {
	_ = h.console.Reset()
	slaveErr := h.slave.Close()
	masterErr := h.master.Close()
	if slaveErr != nil {
		return slaveErr
	}
	return masterErr
}
