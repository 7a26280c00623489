package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"viperos/internal/config"
)

// configCmd implements subcommands.Command for "config": it loads and
// validates a configuration and prints the fully-resolved result,
// useful for checking what a TOML file overrides before booting with
// it.
type configCmd struct {
	configPath string
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "print the resolved boot configuration" }
func (*configCmd) Usage() string {
	return "config [-config path.toml] - print the resolved configuration\n"
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML configuration file (uses built-in defaults if empty)")
}

func (c *configCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("memory_bytes      = %d\n", cfg.MemoryBytes)
	fmt.Printf("max_tasks         = %d\n", cfg.MaxTasks)
	fmt.Printf("gic_version       = %d\n", cfg.GIC)
	fmt.Printf("tick_hz           = %d\n", cfg.TickHz)
	fmt.Printf("max_channels      = %d\n", cfg.MaxChannels)
	fmt.Printf("channel_queue_depth = %d\n", cfg.ChannelQueueDepth)
	fmt.Printf("max_message_bytes = %d\n", cfg.MaxMessageBytes)
	fmt.Printf("max_fds           = %d\n", cfg.MaxFDs)
	fmt.Printf("max_handles       = %d\n", cfg.MaxHandles)
	fmt.Printf("log_level         = %s\n", cfg.LogLevel)
	fmt.Printf("pty_console       = %t\n", cfg.PTYConsole)
	fmt.Printf("control_socket    = %s\n", cfg.ControlSocket)
	fmt.Printf("state_dir         = %s\n", cfg.StateDir)
	return subcommands.ExitSuccess
}
