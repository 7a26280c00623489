package timerwheel

import "testing"

// TestScheduleCancel128 is the timer-wheel scenario seed: across two
// waves of MaxTimers timers each (128 schedule calls and 64 cancels
// total), spread across both wheel levels, Tick must fire exactly the
// survivors of each wave, each exactly once, and never hold more than
// the pool's MaxTimers entries live at once — the pool is a fixed-size
// array, so the wave draining between batches is load-bearing, not
// incidental.
func TestScheduleCancel128(t *testing.T) {
	w := New(0)
	const waves = 2
	const n = MaxTimers

	for wave := 0; wave < waves; wave++ {
		fired := make([]int, 0, n)
		ids := make([]uint32, n)
		for i := 0; i < n; i++ {
			i := i
			// Spread deadlines across both the 256ms level-0 span and the
			// level-1 span beyond it, exercising cascade().
			deadline := w.now + uint64(1+i*20)
			ids[i] = w.Schedule(deadline, func(any) { fired = append(fired, i) }, nil)
			if ids[i] == 0 {
				t.Fatalf("wave %d: Schedule(%d) returned id 0", wave, i)
			}
		}
		if got := w.ActiveCount(); got != n {
			t.Fatalf("wave %d: ActiveCount = %d, want %d", wave, got, n)
		}

		cancelled := map[int]bool{}
		for i := 0; i < n; i += 2 {
			if !w.Cancel(ids[i]) {
				t.Fatalf("wave %d: Cancel(%d) failed", wave, i)
			}
			cancelled[i] = true
		}
		if got, want := w.ActiveCount(), n/2; got != want {
			t.Fatalf("wave %d: ActiveCount after cancel = %d, want %d", wave, got, want)
		}

		w.Tick(w.now + 1 + uint64(n)*20)

		if got, want := len(fired), n/2; got != want {
			t.Fatalf("wave %d: fired %d timers, want %d", wave, got, want)
		}
		seen := map[int]bool{}
		for _, i := range fired {
			if cancelled[i] {
				t.Fatalf("wave %d: cancelled timer %d fired anyway", wave, i)
			}
			if seen[i] {
				t.Fatalf("wave %d: timer %d fired more than once", wave, i)
			}
			seen[i] = true
		}
		if got := w.ActiveCount(); got != 0 {
			t.Fatalf("wave %d: ActiveCount after full Tick = %d, want 0", wave, got)
		}
	}
}

func TestScheduleInPastFiresSynchronously(t *testing.T) {
	w := New(1000)
	called := false
	id := w.Schedule(500, func(any) { called = true }, nil)
	if id != 0 {
		t.Fatalf("Schedule into the past returned id %d, want 0", id)
	}
	if !called {
		t.Fatalf("Schedule into the past did not fire synchronously")
	}
}

func TestCancelUnknownID(t *testing.T) {
	w := New(0)
	if w.Cancel(12345) {
		t.Fatalf("Cancel of an unknown id reported success")
	}
	if w.Cancel(0) {
		t.Fatalf("Cancel(0) reported success")
	}
}
