//go:build linux

package input

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func newPipeDevice(t *testing.T) (*Device, int) {
	t.Helper()
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	dev, err := newDevice(p[0], "pipe", "test button")
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	t.Cleanup(func() {
		dev.Close()
		unix.Close(p[1])
	})
	return dev, p[1]
}

func TestDeviceWaitReadsEvents(t *testing.T) {
	dev, w := newPipeDevice(t)
	buf := append(Encode(Event{Type: EvKey, Code: KeyF12, Value: 1}), Encode(Event{Type: EvKey, Code: KeyF12, Value: 0})...)
	if _, err := unix.Write(w, buf); err != nil {
		t.Fatalf("write: %v", err)
	}

	events, err := dev.Wait(time.Second)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(events) != 2 || events[0].Value != 1 || events[1].Value != 0 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].Received.IsZero() {
		t.Fatal("expected arrival time")
	}
	if dev.Name() != "test button" {
		t.Fatalf("unexpected name %q", dev.Name())
	}
}

func TestDeviceWaitTimesOut(t *testing.T) {
	dev, _ := newPipeDevice(t)
	start := time.Now()
	events, err := dev.Wait(50 * time.Millisecond)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty timeout, got %v %v", events, err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Fatal("Wait returned before the timeout")
	}
}

func TestDeviceWakeInterruptsWait(t *testing.T) {
	dev, _ := newPipeDevice(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		dev.Wake()
	}()
	start := time.Now()
	events, err := dev.Wait(5 * time.Second)
	if err != nil || len(events) != 0 {
		t.Fatalf("expected empty wake, got %v %v", events, err)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("Wake did not interrupt Wait")
	}
}

func TestDeviceWakeAfterCloseWritesNothing(t *testing.T) {
	dev, _ := newPipeDevice(t)
	if err := dev.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The freed descriptor numbers are handed out again immediately.
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer unix.Close(p[0])
	defer unix.Close(p[1])

	dev.Wake()
	var buf [8]byte
	if n, _ := unix.Read(p[0], buf[:]); n > 0 {
		t.Fatalf("Wake after Close wrote %d bytes to a reused descriptor", n)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestDeviceHangupIsDeviceGone(t *testing.T) {
	var p [2]int
	if err := unix.Pipe2(p[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		t.Fatalf("pipe: %v", err)
	}
	dev, err := newDevice(p[0], "pipe", "")
	if err != nil {
		t.Fatalf("newDevice: %v", err)
	}
	defer dev.Close()
	unix.Close(p[1])

	if _, err := dev.Wait(time.Second); !errors.Is(err, ErrDeviceGone) {
		t.Fatalf("expected ErrDeviceGone, got %v", err)
	}
}

func TestOpenMissingDevice(t *testing.T) {
	if _, err := Open(t.TempDir() + "/missing"); err == nil {
		t.Fatal("expected open error")
	}
}
