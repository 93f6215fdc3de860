package translate

import "keyscribe/internal/keycode"

// Tracker folds modifier key transitions into a ModifierState. It is not
// safe for concurrent use; the engine serializes event handling in front
// of it.
type Tracker struct {
	state ModifierState
}

// NewTracker returns a tracker with every flag clear.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Apply folds one key transition into the state and returns the updated
// snapshot. Events for non-modifier keys leave the state untouched.
//
// The left and right variants of a pair share one flag, so releasing
// either variant clears the pair even if the other is still held. Caps
// lock toggles on key-down only; its release is ignored.
func (t *Tracker) Apply(ev KeyEvent) ModifierState {
	down := ev.Direction == Down
	switch ev.Code {
	case keycode.LeftMeta, keycode.RightMeta:
		t.state.Meta = down
	case keycode.LeftShift, keycode.RightShift:
		t.state.Shift = down
	case keycode.LeftControl, keycode.RightControl:
		t.state.Control = down
	case keycode.LeftAlt, keycode.RightAlt:
		t.state.Alt = down
	case keycode.CapsLock:
		if down {
			t.state.CapsLock = !t.state.CapsLock
		}
	}
	return t.state
}

// State returns the current snapshot.
func (t *Tracker) State() ModifierState {
	return t.state
}

// Reset clears every flag, caps lock included. Backends call this when
// a device detaches and held-key state can no longer be trusted.
func (t *Tracker) Reset() {
	t.state = ModifierState{}
}
