package scan

import (
	"testing"
	"time"
)

func TestDebouncerSuppressesWithinWindow(t *testing.T) {
	d := NewDebouncer(500 * time.Millisecond)
	base := time.Now()

	if !d.Accept(base) {
		t.Fatal("first signal should always be accepted")
	}
	// Hardware double-fire: same physical scan, a few ms apart
	if d.Accept(base.Add(10 * time.Millisecond)) {
		t.Error("signal 10ms after accept should be suppressed")
	}
	if d.Accept(base.Add(499 * time.Millisecond)) {
		t.Error("signal just inside the window should be suppressed")
	}
	if !d.Accept(base.Add(500 * time.Millisecond)) {
		t.Error("signal at the window boundary should be accepted")
	}
}

func TestDebouncerIgnoresCodeValue(t *testing.T) {
	// Suppression is time-based only; a different barcode inside the window
	// is still treated as scanner noise.
	d := NewDebouncer(500 * time.Millisecond)
	base := time.Now()

	if !d.Accept(base) {
		t.Fatal("first signal should be accepted")
	}
	if d.Accept(base.Add(100 * time.Millisecond)) {
		t.Error("second signal within the window should be suppressed even for another code")
	}
}

func TestDebouncerWindowRestartsFromAcceptedSignal(t *testing.T) {
	d := NewDebouncer(500 * time.Millisecond)
	base := time.Now()

	d.Accept(base)
	d.Accept(base.Add(400 * time.Millisecond)) // suppressed, must not move the window

	if !d.Accept(base.Add(600 * time.Millisecond)) {
		t.Error("window is measured from the last accepted signal, not the last suppressed one")
	}
}

func TestSessionDebouncersAreIndependent(t *testing.T) {
	s := NewSessionDebouncers(500 * time.Millisecond)
	base := time.Now()

	if !s.Get("1:1").Accept(base) {
		t.Fatal("session 1:1 first signal should be accepted")
	}
	if !s.Get("1:2").Accept(base.Add(50 * time.Millisecond)) {
		t.Error("another session must not be suppressed by session 1:1")
	}
	if s.Get("1:1").Accept(base.Add(50 * time.Millisecond)) {
		t.Error("session 1:1 should still be inside its own window")
	}

	if s.Get("1:1") != s.Get("1:1") {
		t.Error("Get must return the same debouncer for the same session key")
	}
}
