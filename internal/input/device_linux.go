//go:build linux

package input

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const maxEventsPerRead = 64

// Device is an open evdev node plus a self-pipe used to interrupt Wait.
type Device struct {
	path  string
	name  string
	fd    int
	wakeR int
	wakeW int
	buf   []byte

	mu     sync.Mutex
	closed bool
}

// Open opens path read-only and non-blocking and reads its EVIOCGNAME name.
func Open(path string) (*Device, error) {
	fd, err := unix.Open(path, unix.O_RDONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open input device %s: %w", path, err)
	}
	dev, err := newDevice(fd, path, deviceName(fd))
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return dev, nil
}

func newDevice(fd int, path, name string) (*Device, error) {
	var pipe [2]int
	if err := unix.Pipe2(pipe[:], unix.O_NONBLOCK|unix.O_CLOEXEC); err != nil {
		return nil, fmt.Errorf("create wake pipe: %w", err)
	}
	return &Device{
		path:  path,
		name:  name,
		fd:    fd,
		wakeR: pipe[0],
		wakeW: pipe[1],
		buf:   make([]byte, EventSize*maxEventsPerRead),
	}, nil
}

// deviceName issues EVIOCGNAME; devices that do not support it get "".
func deviceName(fd int) string {
	buf := make([]byte, 256)
	req := uintptr(2)<<30 | uintptr(len(buf))<<16 | uintptr('E')<<8 | 0x06
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return ""
	}
	name, _, _ := strings.Cut(string(buf), "\x00")
	return name
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Name returns the kernel-reported device name, if any.
func (d *Device) Name() string { return d.name }

// Wait blocks for up to timeout until events arrive, Wake is called, or the
// device goes away. A timeout or wake returns no events and a nil error.
func (d *Device) Wait(timeout time.Duration) ([]Event, error) {
	fds := []unix.PollFd{
		{Fd: int32(d.fd), Events: unix.POLLIN},
		{Fd: int32(d.wakeR), Events: unix.POLLIN},
	}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("poll input device: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	if fds[1].Revents&unix.POLLIN != 0 {
		d.drainWake()
	}

	rev := fds[0].Revents
	if rev&unix.POLLIN != 0 {
		read, err := unix.Read(d.fd, d.buf)
		switch {
		case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
			return nil, nil
		case errors.Is(err, unix.ENODEV):
			return nil, ErrDeviceGone
		case err != nil:
			return nil, fmt.Errorf("read input device: %w", err)
		case read == 0:
			return nil, ErrDeviceGone
		}
		return Decode(d.buf[:read], time.Now())
	}
	if rev&(unix.POLLHUP|unix.POLLERR|unix.POLLNVAL) != 0 {
		return nil, ErrDeviceGone
	}
	return nil, nil
}

// Wake interrupts a concurrent or the next Wait. Safe from any goroutine;
// a no-op once the device is closed.
func (d *Device) Wake() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	_, _ = unix.Write(d.wakeW, []byte{1})
}

func (d *Device) drainWake() {
	var scratch [64]byte
	for {
		n, err := unix.Read(d.wakeR, scratch[:])
		if n <= 0 || err != nil {
			return
		}
	}
}

// Close releases the device and the wake pipe.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	err := unix.Close(d.fd)
	unix.Close(d.wakeR)
	unix.Close(d.wakeW)
	return err
}
