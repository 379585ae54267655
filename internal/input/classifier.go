package input

import (
	"time"

	"remoteaccessd/internal/action"
)

// Thresholds are the half-open press duration bands:
// [0,Toggle) ignore, [Toggle,Provision) toggle, [Provision,Ignore) provision,
// [Ignore,∞) ignore.
type Thresholds struct {
	Toggle    time.Duration
	Provision time.Duration
	Ignore    time.Duration
}

// DefaultThresholds returns the 2s / 5s / 8s bands.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Toggle:    2000 * time.Millisecond,
		Provision: 5000 * time.Millisecond,
		Ignore:    8000 * time.Millisecond,
	}
}

// Classify maps a press duration onto an action kind.
func Classify(d time.Duration, th Thresholds) action.Kind {
	switch {
	case d < th.Toggle:
		return action.Ignore
	case d < th.Provision:
		return action.ToggleAccess
	case d < th.Ignore:
		return action.StartProvisioning
	default:
		return action.Ignore
	}
}

// Classifier tracks one key's press session. It is not safe for concurrent
// use; the daemon loop owns it.
type Classifier struct {
	key       uint16
	th        Thresholds
	keyDown   bool
	pressedAt time.Time
}

// NewClassifier watches key and classifies releases against th.
func NewClassifier(key uint16, th Thresholds) *Classifier {
	return &Classifier{key: key, th: th}
}

// Observe feeds one event. Only a release of the watched key after a press
// can yield a non-Ignore request.
func (c *Classifier) Observe(ev Event) action.Request {
	if ev.Type != EvKey || ev.Code != c.key {
		return action.Request{}
	}
	switch ev.Value {
	case valuePressed:
		if !c.keyDown {
			c.keyDown = true
			c.pressedAt = ev.Received
		}
	case valueReleased:
		if !c.keyDown {
			return action.Request{Origin: action.OriginButton}
		}
		held := ev.Received.Sub(c.pressedAt)
		c.keyDown = false
		c.pressedAt = time.Time{}
		return action.Request{Kind: Classify(held, c.th), Origin: action.OriginButton, HeldFor: held}
	case valueRepeat:
		// autorepeat never restarts the timer
	}
	return action.Request{}
}

// Pressed reports whether the key is currently held.
func (c *Classifier) Pressed() bool {
	return c.keyDown
}
