// Package boot brings up a ViperOS machine: one method per subsystem,
// called in the fixed dependency order spec §9 documents, grounded on
// runsc/boot/loader.go's staged New/Run sequence and
// runsc/sandbox/sandbox.go's process-lifecycle wrapper. Nothing here
// is reachable until cmd/viperos constructs a Machine and calls Boot
// then Run.
package boot

import (
	"context"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"viperos/internal/config"
	"viperos/internal/console"
	"viperos/internal/ipc"
	"viperos/internal/irq"
	"viperos/internal/klog"
	"viperos/internal/mm/pmm"
	"viperos/internal/mm/usage"
	"viperos/internal/mm/vmm"
	netstub "viperos/internal/net"
	"viperos/internal/sched"
	"viperos/internal/syscalls"
	"viperos/internal/task"
	"viperos/internal/timer"
	"viperos/internal/timerwheel"
	"viperos/internal/vfs"
	"viperos/internal/vfs/memfs"
)

// Machine is the assembled kernel: every subsystem singleton plus the
// dispatch table built over them. Boot fills it in stage by stage;
// Run hands control to the scheduler and its background pollers.
type Machine struct {
	Config config.Config

	UART        *console.UART
	Console     *console.Facade
	hostSession *console.HostSession

	GIC   *irq.Controller
	Clock *timer.Driver

	PMM *pmm.Allocator
	VMM *vmm.VMM

	Stack *task.StackPool
	Tasks *task.Manager
	Sched *sched.Scheduler
	idle  *task.Task

	VFS *vfs.VFS

	Channels *ipc.Manager
	Poller   *ipc.Poller
	PollSets *ipc.SetTable
	Timers   *ipc.TimerTable
	Wheel    *timerwheel.Wheel

	Net *netstub.Stub

	Kernel *syscalls.Kernel

	entries *syscalls.EntryPoints
	assigns *syscalls.AssignStore
}

// New creates an unbooted machine over cfg. Call Boot before Run.
func New(cfg config.Config) *Machine {
	return &Machine{Config: cfg}
}

// noInput backs getchar when no PTY console is attached: there is no
// host keyboard to read from, so every read reports end-of-file
// instead of blocking forever.
type noInput struct{}

func (noInput) Read([]byte) (int, error) { return 0, io.EOF }

// Boot runs every bring-up stage in order, stopping at the first
// failure. A failure here is a host-process exit, not a kernel panic:
// the machine has not yet taken over the virtual CPU.
func (m *Machine) Boot() error {
	stages := []struct {
		name string
		fn   func() error
	}{
		{"console", m.initConsole},
		{"fw_cfg", m.initFwCfg},
		{"framebuffer", m.initFramebuffer},
		{"pmm", m.initPMM},
		{"vmm", m.initVMM},
		{"heap", m.initHeap},
		{"exceptions", m.initExceptions},
		{"gic", m.initGIC},
		{"timer", m.initTimer},
		{"ipc", m.initIPC},
		{"vfs", m.initVFS},
		{"scheduler", m.initScheduler},
		{"syscalls", m.initSyscalls},
		{"tasks", m.initTasks},
	}
	for _, stage := range stages {
		if err := stage.fn(); err != nil {
			klog.Errorf("boot: stage %s failed: %v", stage.name, err)
			return fmt.Errorf("boot: stage %s: %w", stage.name, err)
		}
		klog.Infof("boot: stage %s ready", stage.name)
	}
	return nil
}

func (m *Machine) initConsole() error {
	if m.Config.PTYConsole {
		hs, err := console.NewHostSession()
		if err != nil {
			return fmt.Errorf("console: %w", err)
		}
		m.hostSession = hs
		m.UART = hs.UART()
		klog.Infof("console: interactive session, attach at %s", hs.SlavePath())
	} else {
		m.UART = console.NewUART(nil)
	}
	m.Console = console.NewFacade(m.UART)
	return nil
}

// initFwCfg and initFramebuffer have no device to program on this
// host-simulated target (spec §1: the fw_cfg/ramfb interfaces have no
// guest-visible syscall surface); the stages exist so the documented
// bring-up order is visible and each one is a named seam a future
// virtio/ramfb backend can fill in without reordering anything else.
func (m *Machine) initFwCfg() error { return nil }

func (m *Machine) initFramebuffer() error { return nil }

func (m *Machine) initPMM() error {
	reserved := []pmm.Range{}
	p, err := pmm.New(uint64(m.Config.MemoryBytes), reserved)
	if err != nil {
		return err
	}
	m.PMM = p
	return nil
}

func (m *Machine) initVMM() error {
	v, err := vmm.New(m.PMM)
	if err != nil {
		return err
	}
	m.VMM = v
	return nil
}

// initHeap has no separate kernel-heap allocator: every kernel-side
// allocation in this port is an ordinary Go value, so the PMM page
// allocator from initPMM already covers the concern the original's
// heap_init stage existed for (carving out a bump-allocated region for
// kernel objects table the GC makes unnecessary here).
func (m *Machine) initHeap() error { return nil }

// initExceptions is a no-op on every backend, arm64 included: it does
// not install the vector-stub hooks declared in internal/arch. The
// goroutine-based scheduler in internal/sched dispatches syscalls
// and faults through direct Go calls rather than a real EL1 vector
// table, per spec §5's documented correspondence.
func (m *Machine) initExceptions() error { return nil }

func (m *Machine) initGIC() error {
	version := irq.Version(m.Config.GIC)
	m.GIC = irq.New(version)
	return m.GIC.Init()
}

func (m *Machine) initTimer() error {
	m.Clock = timer.New(m.GIC)
	m.Clock.Init()
	return nil
}

func (m *Machine) initIPC() error {
	m.Channels = ipc.NewManager(m.Config.MaxChannels, m.Config.ChannelQueueDepth, m.Config.MaxMessageBytes)
	m.Timers = ipc.NewTimerTable(m.Clock.GetMS)
	m.PollSets = ipc.NewSetTable()
	m.Net = netstub.New(64)
	m.Poller = &ipc.Poller{Channels: m.Channels, Timers: m.Timers, NetRX: m.Net.HasRX}
	m.Wheel = timerwheel.New(m.Clock.GetMS())
	return nil
}

func (m *Machine) initVFS() error {
	m.VFS = vfs.New(memfs.New())
	return nil
}

func (m *Machine) initScheduler() error {
	pool := task.NewStackPool(m.PMM, m.VMM, 0x40000000, m.Config.MaxTasks)
	m.Stack = pool
	m.Tasks = task.NewManager(m.Config.MaxTasks, pool, m.Config.MaxFDs, m.Config.MaxHandles)
	idle, err := sched.NewIdleTask(m.Tasks)
	if err != nil {
		return err
	}
	m.idle = idle
	m.Sched = sched.New(m.Tasks, idle)
	return nil
}

func (m *Machine) initSyscalls() error {
	k := syscalls.NewKernel()
	k.Tasks = m.Tasks
	k.Sched = m.Sched
	k.PMM = m.PMM
	k.Channels = m.Channels
	k.Poller = m.Poller
	k.PollSets = m.PollSets
	k.Timers = m.Timers
	k.Wheel = m.Wheel
	k.GIC = m.GIC
	k.Clock = m.Clock
	k.VFS = m.VFS
	k.Net = m.Net
	k.Console = m.Console
	m.Kernel = k

	m.entries = syscalls.NewEntryPoints()
	m.assigns = syscalls.NewAssignStore()

	var reader io.Reader = noInput{}
	if m.hostSession != nil {
		reader = m.hostSession.Reader()
	}
	syscalls.RegisterAll(k, m.entries, m.assigns, m.Clock, reader)
	return nil
}

// initTasks exists as a named stage for symmetry with the documented
// bring-up order; the idle task created during initScheduler is
// already the scheduler's dispatch fallback (sched.New's second
// argument) and needs no separate enqueue. Spawning the first real
// user/kernel task beyond idle is left to callers: cmd/viperos's boot
// and selftest subcommands decide what that entry point actually does.
func (m *Machine) initTasks() error {
	return nil
}

// EntryPoints exposes the spawn/fork entry registry for cmd/viperos to
// populate before Run starts dispatching tasks.
func (m *Machine) EntryPoints() *syscalls.EntryPoints { return m.entries }

// Assigns exposes the assigns store for host-side test setup.
func (m *Machine) Assigns() *syscalls.AssignStore { return m.assigns }

// Run hands control to the scheduler and drives every background
// poller under one errgroup, per SPEC_FULL.md §4.16: a poller's fatal
// error surfaces through g.Wait() instead of leaking a goroutine. Run
// blocks until ctx is canceled or a poller returns an error.
func (m *Machine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m.Clock.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return m.irqDrainLoop(gctx)
	})

	g.Go(func() error {
		stop := make(chan struct{})
		go func() {
			<-gctx.Done()
			close(stop)
		}()
		m.Sched.Run(stop)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err := g.Wait()
	if m.hostSession != nil {
		_ = m.hostSession.Close()
	}
	return err
}

// irqDrainLoop repeatedly acknowledges and dispatches pending GIC
// interrupts (the IRQ path spec §4.2 describes), and after every IRQ
// that reaches a handler (the timer PPI is the only one injected)
// advances the timer wheel and delivers the lowest-numbered pending,
// unblocked signal of every live task that has one — the caller
// DeliverSignal was written for (internal/syscalls/signals.go).
func (m *Machine) irqDrainLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if m.GIC.HandleIRQ() {
			m.Wheel.Tick(m.Clock.GetMS())
			m.deliverPendingSignals()
			continue
		}
		time.Sleep(100 * time.Microsecond)
	}
}

func (m *Machine) deliverPendingSignals() {
	infos := make([]task.Info, m.Config.MaxTasks)
	n := m.Tasks.List(infos)
	for i := 0; i < n; i++ {
		t := m.Tasks.Lookup(int(infos[i].ID))
		if t == nil || t.State == task.Exited {
			continue
		}
		pending := t.Signals.PendingMask &^ t.Signals.BlockedMask
		if pending == 0 {
			continue
		}
		for sig := 0; sig < 64; sig++ {
			if pending&(1<<uint(sig)) != 0 {
				syscalls.DeliverSignal(t, t.TrapFrame, sig)
				break
			}
		}
	}
}

// MemStats reports a point-in-time usage snapshot, for the debug
// control plane and the selftest subcommand.
func (m *Machine) MemStats() usage.MemoryStats {
	return usage.Snapshot(m.PMM)
}
