package translate

import "strings"

// ModifierState is the device-wide modifier snapshot consulted on every
// translation. Meta, Shift, Control and Alt reflect keys currently held;
// CapsLock is a latched toggle.
type ModifierState struct {
	Meta     bool
	Shift    bool
	Control  bool
	Alt      bool
	CapsLock bool
}

// Decorated reports whether a chord modifier is active. Decorated
// translations are wrapped in angle brackets and ignore caps lock; shift
// alone never decorates.
func (s ModifierState) Decorated() bool {
	return s.Meta || s.Control || s.Alt
}

// String renders the active flags for diagnostics, "none" when clear.
func (s ModifierState) String() string {
	parts := make([]string, 0, 5)
	if s.Meta {
		parts = append(parts, "meta")
	}
	if s.Shift {
		parts = append(parts, "shift")
	}
	if s.Control {
		parts = append(parts, "control")
	}
	if s.Alt {
		parts = append(parts, "alt")
	}
	if s.CapsLock {
		parts = append(parts, "caps")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}
