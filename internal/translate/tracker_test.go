package translate

import (
	"testing"

	"keyscribe/internal/keycode"
)

// =============================================================================
// Tests for held-modifier pairs
// =============================================================================

func TestTrackerInitialState(t *testing.T) {
	tr := NewTracker()
	if tr.State() != (ModifierState{}) {
		t.Errorf("initial state should be clear, got %v", tr.State())
	}
}

func TestTrackerHoldAndRelease(t *testing.T) {
	pairs := []struct {
		name  string
		left  keycode.Code
		right keycode.Code
		flag  func(ModifierState) bool
	}{
		{"meta", keycode.LeftMeta, keycode.RightMeta, func(s ModifierState) bool { return s.Meta }},
		{"shift", keycode.LeftShift, keycode.RightShift, func(s ModifierState) bool { return s.Shift }},
		{"control", keycode.LeftControl, keycode.RightControl, func(s ModifierState) bool { return s.Control }},
		{"alt", keycode.LeftAlt, keycode.RightAlt, func(s ModifierState) bool { return s.Alt }},
	}

	for _, p := range pairs {
		for _, variant := range []keycode.Code{p.left, p.right} {
			tr := NewTracker()

			s := tr.Apply(Press(variant))
			if !p.flag(s) {
				t.Errorf("%s: press %v should set flag", p.name, variant)
			}

			s = tr.Apply(Release(variant))
			if p.flag(s) {
				t.Errorf("%s: release %v should clear flag", p.name, variant)
			}
		}
	}
}

func TestTrackerEitherReleaseClearsPair(t *testing.T) {
	// The pair shares one flag: releasing the left variant clears it
	// even while the right variant is still held.
	pairs := [][2]keycode.Code{
		{keycode.LeftMeta, keycode.RightMeta},
		{keycode.LeftShift, keycode.RightShift},
		{keycode.LeftControl, keycode.RightControl},
		{keycode.LeftAlt, keycode.RightAlt},
	}

	for _, p := range pairs {
		tr := NewTracker()
		tr.Apply(Press(p[0]))
		tr.Apply(Press(p[1]))
		s := tr.Apply(Release(p[0]))

		if s.Meta || s.Shift || s.Control || s.Alt {
			t.Errorf("releasing %v should clear the shared flag, got %v", p[0], s)
		}
	}
}

func TestTrackerRepressAfterPartialRelease(t *testing.T) {
	tr := NewTracker()
	tr.Apply(Press(keycode.LeftShift))
	tr.Apply(Press(keycode.RightShift))
	tr.Apply(Release(keycode.LeftShift))

	s := tr.Apply(Press(keycode.RightShift))
	if !s.Shift {
		t.Error("pressing a variant again should set the flag")
	}
}

// =============================================================================
// Tests for caps lock
// =============================================================================

func TestTrackerCapsToggle(t *testing.T) {
	tr := NewTracker()

	s := tr.Apply(Press(keycode.CapsLock))
	if !s.CapsLock {
		t.Error("first caps press should latch on")
	}

	tr.Apply(Release(keycode.CapsLock))
	s = tr.Apply(Press(keycode.CapsLock))
	if s.CapsLock {
		t.Error("second caps press should latch off")
	}
}

func TestTrackerCapsReleaseIgnored(t *testing.T) {
	tr := NewTracker()
	tr.Apply(Press(keycode.CapsLock))

	s := tr.Apply(Release(keycode.CapsLock))
	if !s.CapsLock {
		t.Error("caps release must not change the latch")
	}
}

// =============================================================================
// Tests for non-modifier events and reset
// =============================================================================

func TestTrackerIgnoresNonModifiers(t *testing.T) {
	tr := NewTracker()
	tr.Apply(Press(keycode.LeftShift))

	before := tr.State()
	tr.Apply(Press(keycode.A))
	tr.Apply(Release(keycode.A))
	tr.Apply(Press(keycode.Digit3))

	if tr.State() != before {
		t.Errorf("non-modifier events should leave state untouched: %v != %v", tr.State(), before)
	}
}

func TestTrackerReset(t *testing.T) {
	tr := NewTracker()
	tr.Apply(Press(keycode.LeftControl))
	tr.Apply(Press(keycode.CapsLock))

	tr.Reset()
	if tr.State() != (ModifierState{}) {
		t.Errorf("reset should clear everything, got %v", tr.State())
	}
}

// =============================================================================
// Tests for ModifierState helpers
// =============================================================================

func TestModifierStateDecorated(t *testing.T) {
	cases := []struct {
		state ModifierState
		want  bool
	}{
		{ModifierState{}, false},
		{ModifierState{Shift: true}, false},
		{ModifierState{CapsLock: true}, false},
		{ModifierState{Meta: true}, true},
		{ModifierState{Control: true}, true},
		{ModifierState{Alt: true}, true},
		{ModifierState{Shift: true, Control: true}, true},
	}
	for _, tc := range cases {
		if got := tc.state.Decorated(); got != tc.want {
			t.Errorf("Decorated(%v) = %v, want %v", tc.state, got, tc.want)
		}
	}
}

func TestModifierStateString(t *testing.T) {
	if got := (ModifierState{}).String(); got != "none" {
		t.Errorf("empty state = %q, want none", got)
	}
	s := ModifierState{Meta: true, Shift: true, CapsLock: true}
	if got := s.String(); got != "meta+shift+caps" {
		t.Errorf("state = %q, want meta+shift+caps", got)
	}
}
