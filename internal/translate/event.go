package translate

import (
	"time"

	"keyscribe/internal/keycode"
)

// Direction distinguishes key presses from releases.
type Direction int

const (
	Down Direction = iota
	Up
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// KeyEvent is a single key transition in the canonical code space.
// Capture backends emit these; the engine feeds them through the state
// tracker and the translator.
type KeyEvent struct {
	Code      keycode.Code
	Direction Direction
	Time      time.Time
}

// Press returns a key-down event for c stamped with the current time.
func Press(c keycode.Code) KeyEvent {
	return KeyEvent{Code: c, Direction: Down, Time: time.Now()}
}

// Release returns a key-up event for c stamped with the current time.
func Release(c keycode.Code) KeyEvent {
	return KeyEvent{Code: c, Direction: Up, Time: time.Now()}
}
