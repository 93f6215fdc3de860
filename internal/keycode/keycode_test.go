package keycode

import "testing"

// =============================================================================
// Tests for classification
// =============================================================================

func TestIsModifier(t *testing.T) {
	modifiers := []Code{
		LeftMeta, RightMeta,
		LeftShift, RightShift,
		LeftControl, RightControl,
		LeftAlt, RightAlt,
		CapsLock,
	}
	for _, c := range modifiers {
		if !IsModifier(c) {
			t.Errorf("%v should be a modifier", c)
		}
	}

	others := []Code{A, Z, Digit0, Digit9, Space, Return, Backspace, Semicolon, PageUp, F1, NumLock}
	for _, c := range others {
		if IsModifier(c) {
			t.Errorf("%v should not be a modifier", c)
		}
	}
}

// =============================================================================
// Tests for names
// =============================================================================

func TestStringNames(t *testing.T) {
	cases := map[Code]string{
		A:         "A",
		Digit7:    "Digit7",
		Semicolon: "Semicolon",
		LeftShift: "LeftShift",
		PageUp:    "PageUp",
		Space:     "Space",
	}
	for c, want := range cases {
		if got := c.String(); got != want {
			t.Errorf("String(0x%02X) = %q, want %q", uint16(c), got, want)
		}
	}
}

func TestStringUnnamed(t *testing.T) {
	if got := Code(0x07).String(); got != "Code(0x07)" {
		t.Errorf("unexpected name for unnamed code: %q", got)
	}
}

func TestFromNameRoundTrip(t *testing.T) {
	for c, name := range names {
		back, ok := FromName(name)
		if !ok {
			t.Errorf("FromName(%q) not found", name)
			continue
		}
		if back != c {
			t.Errorf("FromName(%q) = 0x%02X, want 0x%02X", name, uint16(back), uint16(c))
		}
	}
}

func TestFromNameUnknown(t *testing.T) {
	if _, ok := FromName("Hyper"); ok {
		t.Error("unknown name should not resolve")
	}
}

// =============================================================================
// Tests for platform conversions
// =============================================================================

func TestFromEvdev(t *testing.T) {
	cases := map[uint16]Code{
		1:   Escape,
		2:   Digit1,
		11:  Digit0,
		30:  A,
		39:  Semicolon,
		42:  LeftShift,
		58:  CapsLock,
		100: RightAlt,
		104: PageUp,
		109: PageDown,
		125: LeftMeta,
	}
	for ev, want := range cases {
		got, ok := FromEvdev(ev)
		if !ok {
			t.Errorf("FromEvdev(%d) not found", ev)
			continue
		}
		if got != want {
			t.Errorf("FromEvdev(%d) = %v, want %v", ev, got, want)
		}
	}
}

func TestFromEvdevUnknown(t *testing.T) {
	// KEY_MUTE has no canonical assignment.
	if _, ok := FromEvdev(113); ok {
		t.Error("unmapped evdev code should not resolve")
	}
}

func TestFromX11(t *testing.T) {
	// X11 keycodes sit 8 above the evdev codes.
	if c, ok := FromX11(38); !ok || c != A {
		t.Errorf("FromX11(38) = %v, %v; want A", c, ok)
	}
	if c, ok := FromX11(9); !ok || c != Escape {
		t.Errorf("FromX11(9) = %v, %v; want Escape", c, ok)
	}
	if _, ok := FromX11(3); ok {
		t.Error("keycodes below the offset should not resolve")
	}
}
