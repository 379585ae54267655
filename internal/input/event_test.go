package input

import (
	"testing"
	"time"
)

func TestDecodeBothLayouts(t *testing.T) {
	stamp := time.Unix(1_700_000_123, 456_000)
	received := time.Now()
	for _, tvSize := range []int{16, 8} {
		want := Event{Time: stamp, Type: EvKey, Code: KeyF12, Value: valuePressed}
		buf := append(encodeWith(want, tvSize), encodeWith(Event{Time: stamp, Type: EvKey, Code: KeyF12, Value: valueReleased}, tvSize)...)

		events, err := decodeWith(buf, tvSize, received)
		if err != nil {
			t.Fatalf("tv=%d: decode: %v", tvSize, err)
		}
		if len(events) != 2 {
			t.Fatalf("tv=%d: expected 2 events, got %d", tvSize, len(events))
		}
		got := events[0]
		if got.Type != EvKey || got.Code != KeyF12 || got.Value != valuePressed {
			t.Fatalf("tv=%d: unexpected event %+v", tvSize, got)
		}
		if !got.Time.Equal(stamp) {
			t.Fatalf("tv=%d: time = %v, want %v", tvSize, got.Time, stamp)
		}
		if !got.Received.Equal(received) {
			t.Fatalf("tv=%d: received not propagated", tvSize)
		}
		if events[1].Value != valueReleased {
			t.Fatalf("tv=%d: second event value = %d", tvSize, events[1].Value)
		}
	}
}

func TestDecodeRejectsPartialEvent(t *testing.T) {
	buf := Encode(Event{Type: EvKey, Code: KeyF12, Value: 1})
	if _, err := Decode(buf[:len(buf)-1], time.Now()); err == nil {
		t.Fatal("expected error for truncated event")
	}
}

func TestEventSizeMatchesTimeval(t *testing.T) {
	if EventSize != 24 && EventSize != 16 {
		t.Fatalf("unexpected input_event size %d", EventSize)
	}
}
