// Package net exposes the kernel's side of the networking boundary:
// spec §1 treats the full network stack (Ethernet/ARP/IP/TCP/UDP/
// ICMP/DNS/HTTP/TLS) as an external collaborator, so this package does
// not implement protocols — it only provides the process-scoped RX
// pseudo-handle poll's EventNetRX bit observes (§3's "Poll set / poll
// event"), and the narrow Source interface a real driver (or, in
// tests, a fake) plugs into that slot.
//
// The dispatch shape — a background goroutine polling a receive
// queue and flagging readiness for the poll loop to observe — is
// ported from the packet-mmap RX ring dispatcher in
// pkg/tcpip/link/fdbased/mmap.go: that dispatcher blocks on the
// AF_PACKET ring via BlockingPollUntilStopped and hands frames to a
// NetworkDispatcher; here the "ring" is a bounded in-memory queue and
// the "NetworkDispatcher" is simply a readiness flag poll reads,
// since parsing frames is out of scope for the core.
package net

import "sync"

// Source is implemented by whatever actually receives frames (a
// virtio-net driver on real hardware, a fake in tests). ViperOS's
// core never calls Source directly; it only drains what Source
// enqueues via Deliver.
type Source interface {
	// Start begins delivering received frames to the stub via Deliver.
	// It must return promptly; long-running work happens on Source's
	// own goroutine.
	Start(stub *Stub) error
	Stop()
}

// Stub is the process-scoped RX pseudo-handle backing store: a
// bounded queue of opaque received frames plus a readiness flag poll
// queries through HasRX.
type Stub struct {
	mu       sync.Mutex
	capacity int
	frames   [][]byte
	source   Source
}

// New creates a stub with room for capacity queued frames.
func New(capacity int) *Stub {
	return &Stub{capacity: capacity}
}

// Attach starts src delivering into this stub.
func (s *Stub) Attach(src Source) error {
	s.mu.Lock()
	s.source = src
	s.mu.Unlock()
	return src.Start(s)
}

// Detach stops the attached source, if any.
func (s *Stub) Detach() {
	s.mu.Lock()
	src := s.source
	s.source = nil
	s.mu.Unlock()
	if src != nil {
		src.Stop()
	}
}

// Deliver enqueues a received frame, dropping the oldest if the queue
// is at capacity (best-effort RX, matching real NICs under overload).
func (s *Stub) Deliver(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) >= s.capacity {
		s.frames = s.frames[1:]
	}
	s.frames = append(s.frames, frame)
}

// HasRX is the EventNetRX readiness predicate internal/ipc.Poller
// wires in as a NetRXPredicate. handle is accepted for API symmetry
// with the other predicates but ignored: there is exactly one RX
// pseudo-handle per process in this model.
func (s *Stub) HasRX(_ uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames) > 0
}

// Recv dequeues the oldest received frame, or returns ok=false if
// none is queued.
func (s *Stub) Recv() (frame []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.frames) == 0 {
		return nil, false
	}
	frame = s.frames[0]
	s.frames = s.frames[1:]
	return frame, true
}
