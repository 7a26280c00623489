package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/google/subcommands"

	"viperos/internal/boot"
	"viperos/internal/config"
	"viperos/internal/klog"
)

// bootCmd implements subcommands.Command for "boot": it loads a
// configuration, takes an exclusive lock on its state directory (the
// same single-instance guarantee runsc's sandbox takes on its root
// directory before starting), and runs a Machine until interrupted.
type bootCmd struct {
	configPath string
}

func (*bootCmd) Name() string     { return "boot" }
func (*bootCmd) Synopsis() string { return "boot a ViperOS machine" }
func (*bootCmd) Usage() string {
	return "boot [-config path.toml] - boot a ViperOS machine and run until interrupted\n"
}

func (c *bootCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configPath, "config", "", "path to a TOML configuration file (uses built-in defaults if empty)")
}

func (c *bootCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}
	if err := cfg.Validate(); err != nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}
	klog.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		klog.Errorf("boot: creating state dir: %v", err)
		return subcommands.ExitFailure
	}
	lockPath := filepath.Join(cfg.StateDir, "viperos.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		klog.Errorf("boot: locking %s: %v", lockPath, err)
		return subcommands.ExitFailure
	}
	if !locked {
		klog.Errorf("boot: another instance holds %s", lockPath)
		return subcommands.ExitFailure
	}
	defer fl.Unlock()

	m := boot.New(cfg)
	if err := m.Boot(); err != nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}

	var ctrl *boot.Controller
	if cfg.ControlSocket != "" {
		ctrl, err = boot.NewController(m, cfg.ControlSocket)
		if err != nil {
			klog.Errorf("boot: %v", err)
			return subcommands.ExitFailure
		}
		go func() {
			if err := ctrl.Serve(); err != nil {
				klog.Warnf("boot: control socket: %v", err)
			}
		}()
		defer ctrl.Close()
	}

	runCtx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Fprintf(os.Stderr, "viperos: running (pid %d)\n", os.Getpid())
	if err := m.Run(runCtx); err != nil && runCtx.Err() == nil {
		klog.Errorf("boot: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
