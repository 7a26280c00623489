// Package config loads the boot-time configuration for a simulated
// ViperOS machine. Modeled on runsc/config's centralization of
// boot-time knobs, but expressed as a TOML document (the kernel's
// bootinfo) instead of CLI flags.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// GICVersion selects the interrupt controller generation to program.
type GICVersion int

const (
	GICv2 GICVersion = 2
	GICv3 GICVersion = 3
)

// Config is the fully-resolved boot configuration. Zero-value fields
// are filled from Default() before use.
type Config struct {
	// MemoryBytes is the size of the simulated physical RAM region.
	MemoryBytes int64 `toml:"memory_bytes"`

	// MaxTasks bounds the TCB table and kernel-stack pool.
	MaxTasks int `toml:"max_tasks"`

	// GIC selects GICv2 or GICv3 distributor programming.
	GIC GICVersion `toml:"gic_version"`

	// TickHz is the architected timer's heartbeat frequency.
	TickHz int `toml:"tick_hz"`

	// MaxChannels bounds the IPC channel table.
	MaxChannels int `toml:"max_channels"`

	// ChannelQueueDepth bounds each channel's message FIFO.
	ChannelQueueDepth int `toml:"channel_queue_depth"`

	// MaxMessageBytes bounds a single IPC message.
	MaxMessageBytes int `toml:"max_message_bytes"`

	// MaxFDs bounds each process's FD table.
	MaxFDs int `toml:"max_fds"`

	// MaxHandles bounds each process's capability table.
	MaxHandles int `toml:"max_handles"`

	// LogLevel is passed to internal/klog.SetLevel.
	LogLevel string `toml:"log_level"`

	// PTYConsole attaches the serial UART to a host pseudo-terminal
	// instead of stdio when true (used by the interactive `boot`
	// subcommand).
	PTYConsole bool `toml:"pty_console"`

	// ControlSocket is the path of the host-side introspection
	// control socket (§4.17). Empty disables it.
	ControlSocket string `toml:"control_socket"`

	// StateDir holds the lock file for a running machine; no console
	// transcript is written there.
	StateDir string `toml:"state_dir"`
}

// Default returns the baseline configuration used when no TOML file
// is given, sized for the QEMU virt machine's default RAM.
func Default() Config {
	return Config{
		MemoryBytes:       256 << 20,
		MaxTasks:          256,
		GIC:               GICv3,
		TickHz:            1000,
		MaxChannels:       128,
		ChannelQueueDepth: 64,
		MaxMessageBytes:   4096,
		MaxFDs:            64,
		MaxHandles:        128,
		LogLevel:          "info",
		StateDir:          "/tmp/viperos",
	}
}

// Load reads a TOML file and overlays it on Default(). An empty path
// returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first structural problem with cfg, if any.
func (c Config) Validate() error {
	if c.MemoryBytes <= 0 {
		return fmt.Errorf("config: memory_bytes must be positive")
	}
	if c.MaxTasks <= 0 {
		return fmt.Errorf("config: max_tasks must be positive")
	}
	if c.GIC != GICv2 && c.GIC != GICv3 {
		return fmt.Errorf("config: gic_version must be 2 or 3")
	}
	if c.TickHz <= 0 {
		return fmt.Errorf("config: tick_hz must be positive")
	}
	return nil
}
