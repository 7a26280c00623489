package ipc

import "testing"

// TestChannelPingPong is the channel-ping-pong scenario seed: a
// message sent on a channel must come back out intact, in order, and
// readiness bits must track the FIFO's occupancy.
func TestChannelPingPong(t *testing.T) {
	mgr := NewManager(4, 8, 256)
	handle, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ch, err := mgr.Lookup(handle)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	if ch.HasMessage() {
		t.Fatalf("fresh channel reports HasMessage")
	}
	if !ch.HasSpace() {
		t.Fatalf("fresh channel reports no space")
	}

	for _, msg := range []string{"ping", "pong", "ping"} {
		if err := ch.Send([]byte(msg)); err != nil {
			t.Fatalf("Send(%q): %v", msg, err)
		}
	}
	if !ch.HasMessage() {
		t.Fatalf("channel with queued messages reports no message")
	}

	for _, want := range []string{"ping", "pong", "ping"} {
		buf := make([]byte, 64)
		n, _, err := ch.Recv(buf)
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if got := string(buf[:n]); got != want {
			t.Fatalf("Recv = %q, want %q", got, want)
		}
	}
	if ch.HasMessage() {
		t.Fatalf("drained channel still reports HasMessage")
	}
}

func TestChannelSendOverCapacityFails(t *testing.T) {
	mgr := NewManager(1, 1, 64)
	handle, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ch, err := mgr.Lookup(handle)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if err := ch.Send([]byte("one")); err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if err := ch.Send([]byte("two")); err != ErrWouldBlock {
		t.Fatalf("second Send over depth 1 = %v, want ErrWouldBlock", err)
	}
}

func TestChannelCloseRejectsFurtherUse(t *testing.T) {
	mgr := NewManager(1, 4, 64)
	handle, err := mgr.Create()
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	ch, err := mgr.Lookup(handle)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	ch.Close()
	if err := ch.Send([]byte("x")); err != ErrClosed {
		t.Fatalf("Send on closed channel = %v, want ErrClosed", err)
	}
}
