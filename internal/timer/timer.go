// Package timer is the architected-timer driver, per spec §4.3 and
// the kernel's own timer.{hpp,cpp}. The real driver programs
// CNTP_CVAL_EL0 from CNTFRQ_EL0 to raise a 1 kHz PPI; on this host-
// simulated kernel there is no CNTFRQ_EL0 to read, so Run paces a
// software clock at the same 1 kHz using golang.org/x/time/rate (the
// rate limiter's Wait is the portable stand-in for "block until the
// next compare-value interrupt"), and injects TimerPPI through
// internal/irq exactly as the real PPI line would.
package timer

import (
	"context"
	"sync/atomic"

	"golang.org/x/time/rate"

	"viperos/internal/irq"
	"viperos/internal/klog"
	"viperos/internal/platform/qemuvirt"
)

// TickHz is the fixed tick rate spec §2 describes ("1 kHz tick").
const TickHz = 1000

// Driver owns the tick counter and the pacing loop that injects the
// timer PPI into the interrupt controller once per simulated
// millisecond.
type Driver struct {
	gic   *irq.Controller
	ticks uint64 // atomic
	freq  uint64
}

// New creates a driver that will inject qemuvirt.TimerPPI into gic.
func New(gic *irq.Controller) *Driver {
	return &Driver{gic: gic, freq: TickHz}
}

// Init registers the timer PPI handler and enables it at the
// controller, mirroring timer::init's "register handler, program
// compare value, enable interrupt" sequence (the compare-value
// programming itself has no analogue here since there is no real
// counter register).
func (d *Driver) Init() {
	d.gic.RegisterHandler(qemuvirt.TimerPPI, func(uint32) {
		atomic.AddUint64(&d.ticks, 1)
	})
	d.gic.SetPriority(qemuvirt.TimerPPI, 0)
	d.gic.EnableIRQ(qemuvirt.TimerPPI)
	klog.Infof("timer: architected timer driver initialized at %d Hz", TickHz)
}

// GetTicks returns the number of 1ms intervals elapsed since Init,
// per §4.3's get_ticks.
func (d *Driver) GetTicks() uint64 { return atomic.LoadUint64(&d.ticks) }

// GetFrequency returns the timer's tick rate in Hz.
func (d *Driver) GetFrequency() uint64 { return d.freq }

// GetMS is an alias for GetTicks at 1 kHz (1 tick == 1 ms).
func (d *Driver) GetMS() uint64 { return d.GetTicks() }

// GetNS converts the tick count to nanoseconds.
func (d *Driver) GetNS() uint64 { return d.GetTicks() * (1_000_000_000 / TickHz) }

// Run paces a 1 kHz clock and injects the timer PPI once per tick
// until ctx is canceled. It is the software replacement for the real
// hardware's free-running compare-value interrupt.
func (d *Driver) Run(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Limit(TickHz), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		d.gic.Inject(qemuvirt.TimerPPI)
	}
}

// DelayMS busy-waits (spinning on GetTicks, as the original's
// delay_ms does on its tick counter) for at least ms milliseconds.
// Callers inside a task's entry point should prefer yielding via
// internal/ipc.SleepMS instead; DelayMS is for boot-time code that
// runs before the scheduler exists.
func (d *Driver) DelayMS(ms uint32) {
	deadline := d.GetTicks() + uint64(ms)
	for d.GetTicks() < deadline {
	}
}
