// Command viperos is the host-side entry point for a simulated
// ViperOS machine: boot it, run a self-check pass, or print the
// resolved configuration, modeled on runsc/cli's subcommand registry.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"

	"viperos/internal/klog"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(subcommands.CommandsCommand(), "")

	subcommands.Register(&bootCmd{}, "")
	subcommands.Register(&selftestCmd{}, "")
	subcommands.Register(&configCmd{}, "")

	flag.Parse()
	klog.SetLevel("info")

	os.Exit(int(subcommands.Execute(context.Background())))
}
