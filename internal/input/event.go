package input

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// Linux input event constants (linux/input-event-codes.h).
const (
	EvKey  uint16 = 0x01
	KeyF12 uint16 = 88

	valueReleased int32 = 0
	valuePressed  int32 = 1
	valueRepeat   int32 = 2
)

// ErrDeviceGone is returned once the input device hangs up or is unplugged.
var ErrDeviceGone = errors.New("input device gone")

// timevalSize is 16 on 64-bit kernels and 8 on 32-bit ones, which makes
// struct input_event 24 or 16 bytes.
var timevalSize = binary.Size(unix.Timeval{})

// EventSize is the size of one struct input_event on this platform.
var EventSize = timevalSize + 8

// Event is one decoded struct input_event. Time is the kernel timestamp;
// Received is when the daemon read it and is what press durations use.
type Event struct {
	Time     time.Time
	Type     uint16
	Code     uint16
	Value    int32
	Received time.Time
}

// Decode splits buf into native-layout input events.
func Decode(buf []byte, received time.Time) ([]Event, error) {
	return decodeWith(buf, timevalSize, received)
}

func decodeWith(buf []byte, tvSize int, received time.Time) ([]Event, error) {
	size := tvSize + 8
	if len(buf)%size != 0 {
		return nil, fmt.Errorf("short input event read: %d bytes is not a multiple of %d", len(buf), size)
	}
	events := make([]Event, 0, len(buf)/size)
	for off := 0; off < len(buf); off += size {
		chunk := buf[off : off+size]
		var sec, usec int64
		if tvSize == 16 {
			sec = int64(binary.NativeEndian.Uint64(chunk[0:8]))
			usec = int64(binary.NativeEndian.Uint64(chunk[8:16]))
		} else {
			sec = int64(int32(binary.NativeEndian.Uint32(chunk[0:4])))
			usec = int64(int32(binary.NativeEndian.Uint32(chunk[4:8])))
		}
		body := chunk[tvSize:]
		events = append(events, Event{
			Time:     time.Unix(sec, usec*int64(time.Microsecond)),
			Type:     binary.NativeEndian.Uint16(body[0:2]),
			Code:     binary.NativeEndian.Uint16(body[2:4]),
			Value:    int32(binary.NativeEndian.Uint32(body[4:8])),
			Received: received,
		})
	}
	return events, nil
}

// Encode is the inverse of Decode for a single event. It is used to feed
// synthetic events through pipes.
func Encode(ev Event) []byte {
	return encodeWith(ev, timevalSize)
}

func encodeWith(ev Event, tvSize int) []byte {
	buf := make([]byte, tvSize+8)
	usec := int64(ev.Time.Nanosecond()) / int64(time.Microsecond)
	if tvSize == 16 {
		binary.NativeEndian.PutUint64(buf[0:8], uint64(ev.Time.Unix()))
		binary.NativeEndian.PutUint64(buf[8:16], uint64(usec))
	} else {
		binary.NativeEndian.PutUint32(buf[0:4], uint32(ev.Time.Unix()))
		binary.NativeEndian.PutUint32(buf[4:8], uint32(usec))
	}
	body := buf[tvSize:]
	binary.NativeEndian.PutUint16(body[0:2], ev.Type)
	binary.NativeEndian.PutUint16(body[2:4], ev.Code)
	binary.NativeEndian.PutUint32(body[4:8], uint32(ev.Value))
	return buf
}
