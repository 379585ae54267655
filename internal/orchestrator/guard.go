package orchestrator

import "sync/atomic"

// State is the guard's admission state.
type State int32

const (
	StateIdle State = iota
	StateBusy
	StatePendingReboot
)

func (s State) String() string {
	switch s {
	case StateBusy:
		return "busy"
	case StatePendingReboot:
		return "pending_reboot"
	default:
		return "idle"
	}
}

// Guard admits one operation at a time. All transitions are single atomic
// compare-and-swap steps.
type Guard struct {
	state atomic.Int32
}

// TryAcquire moves Idle to Busy and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.state.CompareAndSwap(int32(StateIdle), int32(StateBusy))
}

// Release moves Busy back to Idle.
func (g *Guard) Release() bool {
	return g.state.CompareAndSwap(int32(StateBusy), int32(StateIdle))
}

// MarkPendingReboot moves Busy to PendingReboot. The guard then refuses
// every request until the host goes down or CancelReboot is called.
func (g *Guard) MarkPendingReboot() bool {
	return g.state.CompareAndSwap(int32(StateBusy), int32(StatePendingReboot))
}

// CancelReboot moves PendingReboot back to Idle after a failed reboot.
func (g *Guard) CancelReboot() bool {
	return g.state.CompareAndSwap(int32(StatePendingReboot), int32(StateIdle))
}

// State returns the current state.
func (g *Guard) State() State {
	return State(g.state.Load())
}
