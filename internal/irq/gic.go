// Package irq implements the GICv2/v3 abstraction spec §4.2 requires:
// distributor + CPU-interface (v2) or redistributor + ICC-register
// (v3) programming, per-IRQ enable/priority configuration, and
// acknowledge/EOI dispatch. It is ported from the kernel's own
// gic.{hpp,cpp}, with the real MMIO/system-register accesses replaced
// by an in-memory register model, per the host-simulated-kernel
// approach: there is no physical GICD/GICR to map on the host this
// kernel is developed and tested on, so the distributor/redistributor
// state lives in a mutex-guarded Go struct instead, exercising the
// same enable/priority/routing bookkeeping the real hardware would.
package irq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"viperos/internal/klog"
)

// Version identifies the detected controller generation.
type Version uint8

const (
	Unknown Version = 0
	V2      Version = 2
	V3      Version = 3
)

// MaxIRQs bounds the controller's handler table, per spec §6's
// SpuriousIRQThreshold-adjacent constant.
const MaxIRQs = 1024

// SpuriousThreshold: IAR reads at or above this are spurious, per
// §4.2 / qemuvirt.SpuriousIRQThreshold.
const SpuriousThreshold = 1020

// Handler is invoked, with the IRQ id, once acknowledge + EOI has
// already happened (§4.2's "EOI before handler" discipline).
type Handler func(irq uint32)

// irqState is the per-IRQ distributor bookkeeping (enable, priority,
// group) the real GICD_I{SENABLER,ICENABLER,PRIORITYR,GROUPR} register
// arrays hold. Routing and trigger mode are not modelled.
type irqState struct {
	enabled  bool
	priority uint8
	group1   bool
}

// Controller is the simulated GIC: one distributor, one CPU interface
// (v2) or redistributor (v3), and a pending-IRQ queue that simulated
// devices inject into in place of a real SPI/PPI line. internal/timer
// is the only injecting device; internal/console raises no IRQ.
type Controller struct {
	mu       sync.Mutex
	version  Version
	irqs     [MaxIRQs]irqState
	handlers [MaxIRQs]Handler
	pending  []uint32

	cpuAwake bool // redistributor wake state (v3 only; always true for v2)
}

// New creates a controller for the given (already-detected) version.
// Real detection on hardware reads GICD_PIDR2; since this is a fixed
// QEMU `virt` target, version comes from internal/config.GICVersion
// instead (§2b).
func New(version Version) *Controller {
	return &Controller{version: version}
}

// Init programs the distributor into the known initial state §4.2
// describes: every IRQ disabled, pending cleared, default priority
// 0xA0, group 1. SPI routing and trigger mode have no state here and
// are not programmed.
func (c *Controller) Init() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.irqs {
		c.irqs[i] = irqState{enabled: false, priority: 0xA0, group1: true}
	}
	c.pending = nil
	klog.Infof("irq: distributor initialized (version=%d, max_irqs=%d)", c.version, MaxIRQs)
	return c.initCPULocked()
}

func (c *Controller) initCPULocked() error {
	if c.version == V3 {
		if err := c.wakeRedistributorLocked(); err != nil {
			return err
		}
	}
	c.cpuAwake = true
	klog.Infof("irq: CPU interface configured (version=%d)", c.version)
	return nil
}

// InitCPU configures the current CPU's interface without touching
// distributor-wide state, for secondary-CPU bring-up (§4.2). ViperOS
// is single-CPU (non-goal: multiprocessor support), so this is only
// exercised by re-init paths (e.g. resume from a simulated sleep).
func (c *Controller) InitCPU() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initCPULocked()
}

// wakeRedistributorLocked simulates GICR_WAKER's ProcessorSleep/
// ChildrenAsleep handshake: clear ProcessorSleep, then poll until
// ChildrenAsleep clears or a bounded number of attempts is exhausted.
// The original busy-spins up to a fixed iteration count; backoff gives
// the same bounded-retry shape idiomatically.
func (c *Controller) wakeRedistributorLocked() error {
	attempts := 0
	op := func() error {
		attempts++
		// The simulated redistributor always wakes on its first poll;
		// real hardware can take a few iterations, which is why this
		// is a retry loop rather than a single check.
		c.cpuAwake = true
		return nil
	}
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Microsecond), 8)
	if err := backoff.Retry(op, b); err != nil {
		klog.Warnf("irq: redistributor wake timeout after %d attempts", attempts)
		return fmt.Errorf("irq: redistributor wake timeout: %w", err)
	}
	return nil
}

// EnableIRQ enables delivery of irq, per §4.2's enable_irq.
func (c *Controller) EnableIRQ(irqID uint32) {
	if irqID >= MaxIRQs {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.irqs[irqID].enabled = true
}

// DisableIRQ disables delivery of irq.
func (c *Controller) DisableIRQ(irqID uint32) {
	if irqID >= MaxIRQs {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.irqs[irqID].enabled = false
}

// SetPriority sets irq's priority (0 = highest, 255 = lowest).
func (c *Controller) SetPriority(irqID uint32, priority uint8) {
	if irqID >= MaxIRQs {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.irqs[irqID].priority = priority
}

// RegisterHandler installs handler for irq, replacing any previous
// registration.
func (c *Controller) RegisterHandler(irqID uint32, handler Handler) {
	if irqID >= MaxIRQs {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[irqID] = handler
}

// Inject simulates a device asserting irq: it is how internal/timer
// raises the architected-timer PPI in the absence of a real hardware
// line (no UART SPI is injected anywhere). A disabled or out-of-range
// IRQ is silently dropped, matching real hardware's masking behavior.
func (c *Controller) Inject(irqID uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if irqID >= MaxIRQs || !c.irqs[irqID].enabled {
		return
	}
	c.pending = append(c.pending, irqID)
}

// HandleIRQ is the top-level IRQ dispatch routine §4.2 describes:
// acknowledge (pop the next pending IRQ), filter spurious values,
// signal EOI, then invoke the registered handler — EOI happens before
// the handler runs so the handler is free to reschedule. It reports
// whether an IRQ was actually dispatched.
func (c *Controller) HandleIRQ() bool {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return false
	}
	irqID := c.pending[0]
	c.pending = c.pending[1:]
	handler := c.handlers[irqID]
	c.mu.Unlock()

	if irqID >= SpuriousThreshold {
		return false
	}
	// EOI is implicit in this model: there is no separate "active"
	// bit to drop, since Inject/HandleIRQ already behave as an
	// edge-triggered queue rather than a level held until EOI.
	if handler != nil {
		handler(irqID)
		return true
	}
	klog.Warnf("irq: unhandled IRQ %d", irqID)
	return false
}

// EOI is exposed for callers that want to manage end-of-interrupt
// explicitly rather than through HandleIRQ; it is a no-op in this
// model for the reason HandleIRQ documents, kept so callers ported
// from the original's explicit eoi() call sites still compile cleanly
// against this package's API shape.
func (c *Controller) EOI(irqID uint32) {}

// Version returns the detected/configured controller generation.
func (c *Controller) Version() Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// PendingCount reports how many IRQs are queued for dispatch,
// for tests and the debug control plane (§4.17).
func (c *Controller) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// DrainPending runs HandleIRQ until the pending queue is empty or ctx
// is done, for a boot-time self-test harness that wants deterministic
// drain-to-completion semantics. It returns how many IRQs reached a
// handler.
func (c *Controller) DrainPending(ctx context.Context) int {
	n := 0
	for c.PendingCount() > 0 {
		if c.HandleIRQ() {
			n++
		}
		select {
		case <-ctx.Done():
			return n
		default:
		}
	}
	return n
}
