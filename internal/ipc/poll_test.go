package ipc

import (
	"testing"

	"viperos/internal/task"
)

// fakeClock is a manually-advanced millisecond clock for deterministic
// poll/sleep tests, avoiding any dependency on wall-clock timing.
type fakeClock struct{ ms uint64 }

func (c *fakeClock) now() uint64 { return c.ms }
func (c *fakeClock) advance(d uint64) { c.ms += d }

// TestPollTimeout is the poll-timeout scenario seed: Poll must return
// zero ready events once timeoutMS has elapsed with nothing ready, and
// must not block past that deadline.
func TestPollTimeout(t *testing.T) {
	clock := &fakeClock{ms: 1000}
	p := &Poller{Channels: NewManager(1, 1, 64), Timers: NewTimerTable(clock.now)}

	events := []PollEvent{{Handle: 1, Events: EventChannelRead}}
	yields := 0
	n, err := p.Poll(events, 5, clock.now, func() {
		yields++
		clock.advance(1)
	})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 0 {
		t.Fatalf("Poll returned %d ready events, want 0", n)
	}
	if yields < 5 {
		t.Fatalf("Poll returned after only %d yields, want at least 5", yields)
	}
}

// TestPollReadyBeforeTimeout checks that Poll returns as soon as a
// watched channel has a message, without waiting out the timeout.
func TestPollReadyBeforeTimeout(t *testing.T) {
	clock := &fakeClock{ms: 0}
	mgr := NewManager(1, 4, 64)
	handle, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ch, err := mgr.Lookup(handle)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := ch.Send([]byte("hi")); err != nil {
		t.Fatalf("Send: %v", err)
	}

	p := &Poller{Channels: mgr, Timers: NewTimerTable(clock.now)}
	events := []PollEvent{{Handle: handle, Events: EventChannelRead}}
	n, err := p.Poll(events, 1000, clock.now, func() {
		t.Fatalf("Poll yielded despite a ready channel")
	})
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if n != 1 || events[0].Triggered&EventChannelRead == 0 {
		t.Fatalf("Poll did not report the ready channel: n=%d triggered=%v", n, events[0].Triggered)
	}
}

// TestSleepMSAccuracy is the sleep-accuracy scenario seed: SleepMS
// must keep yielding until the requested duration has passed on the
// supplied clock, and return promptly once it has.
func TestSleepMSAccuracy(t *testing.T) {
	clock := &fakeClock{ms: 0}
	tt := NewTimerTable(clock.now)
	current := &task.Task{State: task.Running}

	yields := 0
	yield := func() {
		yields++
		clock.advance(1)
	}
	if err := SleepMS(tt, 10, current, yield); err != nil {
		t.Fatalf("SleepMS: %v", err)
	}
	if yields < 10 {
		t.Fatalf("SleepMS returned after %d yields, want at least 10", yields)
	}
	if current.State != task.Running {
		t.Fatalf("SleepMS left task in state %s, want Running", current.State)
	}
}

func TestSleepMSZeroReturnsImmediately(t *testing.T) {
	clock := &fakeClock{ms: 0}
	tt := NewTimerTable(clock.now)
	current := &task.Task{State: task.Running}
	if err := SleepMS(tt, 0, current, func() { t.Fatalf("unexpected yield for 0ms sleep") }); err != nil {
		t.Fatalf("SleepMS: %v", err)
	}
}
