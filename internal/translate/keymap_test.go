package translate

import (
	"testing"

	"keyscribe/internal/keycode"
)

// =============================================================================
// Tests for the default table
// =============================================================================

func TestDefaultKeymapDigits(t *testing.T) {
	want := ")!@#$%^&*("
	for i := 0; i < 10; i++ {
		code := keycode.Digit0 + keycode.Code(i)
		primary, secondary, caps, ok := DefaultKeymap().CharacterPair(code)
		if !ok {
			t.Fatalf("no pair for %v", code)
		}
		if primary != rune('0'+i) {
			t.Errorf("%v primary = %q, want %q", code, primary, rune('0'+i))
		}
		if secondary != rune(want[i]) {
			t.Errorf("%v secondary = %q, want %q", code, secondary, rune(want[i]))
		}
		if caps {
			t.Errorf("%v should not be caps-sensitive", code)
		}
	}
}

func TestDefaultKeymapLetters(t *testing.T) {
	km := DefaultKeymap()
	for c := keycode.A; c <= keycode.Z; c++ {
		primary, secondary, caps, ok := km.CharacterPair(c)
		if !ok {
			t.Fatalf("no pair for %v", c)
		}
		wantLow := 'a' + rune(c-keycode.A)
		if primary != wantLow || secondary != wantLow-'a'+'A' {
			t.Errorf("%v pair = %q/%q", c, primary, secondary)
		}
		if !caps {
			t.Errorf("%v should be caps-sensitive", c)
		}
	}
}

func TestDefaultKeymapPunctuation(t *testing.T) {
	cases := []struct {
		code      keycode.Code
		primary   rune
		secondary rune
	}{
		{keycode.Semicolon, ';', ':'},
		{keycode.Equal, '=', '+'},
		{keycode.Comma, ',', '<'},
		{keycode.Minus, '-', '_'},
		{keycode.Period, '.', '>'},
		{keycode.Slash, '/', '?'},
		{keycode.Grave, '`', '~'},
		{keycode.LeftBracket, '[', '{'},
		{keycode.Backslash, '\\', '|'},
		{keycode.RightBracket, ']', '}'},
		{keycode.Quote, '\'', '"'},
	}

	km := DefaultKeymap()
	for _, tc := range cases {
		primary, secondary, caps, ok := km.CharacterPair(tc.code)
		if !ok {
			t.Fatalf("no pair for %v", tc.code)
		}
		if primary != tc.primary || secondary != tc.secondary {
			t.Errorf("%v pair = %q/%q, want %q/%q", tc.code, primary, secondary, tc.primary, tc.secondary)
		}
		if !caps {
			t.Errorf("%v should be caps-sensitive", tc.code)
		}
	}
}

func TestDefaultKeymapIndependentCopies(t *testing.T) {
	a := DefaultKeymap()
	b := DefaultKeymap()

	if err := a.SetPair(keycode.A, 'q', 'Q', true); err != nil {
		t.Fatalf("SetPair failed: %v", err)
	}

	primary, _, _, _ := b.CharacterPair(keycode.A)
	if primary != 'a' {
		t.Error("mutating one keymap must not affect another")
	}
}

// =============================================================================
// Tests for mutation guards
// =============================================================================

func TestSetPairRejectsModifiers(t *testing.T) {
	km := DefaultKeymap()
	if err := km.SetPair(keycode.LeftShift, 'x', 'X', true); err == nil {
		t.Error("modifier keys must not accept character pairs")
	}
}

func TestSetPairRejectsFixedLabels(t *testing.T) {
	km := DefaultKeymap()
	if err := km.SetPair(keycode.Return, 'x', 'X', true); err == nil {
		t.Error("fixed-label keys must not accept character pairs")
	}
}

func TestSetPairAllowsUnmappedCodes(t *testing.T) {
	km := DefaultKeymap()
	if err := km.SetPair(keycode.F1, '?', '?', false); err != nil {
		t.Fatalf("SetPair on an unmapped code failed: %v", err)
	}
	primary, _, _, ok := km.CharacterPair(keycode.F1)
	if !ok || primary != '?' {
		t.Error("pair for freshly mapped code not found")
	}
}

// =============================================================================
// Tests for reverse lookup
// =============================================================================

func TestResolveChar(t *testing.T) {
	cases := []struct {
		r       rune
		code    keycode.Code
		shifted bool
	}{
		{'a', keycode.A, false},
		{'A', keycode.A, true},
		{'1', keycode.Digit1, false},
		{'!', keycode.Digit1, true},
		{';', keycode.Semicolon, false},
		{':', keycode.Semicolon, true},
		{'?', keycode.Slash, true},
		{'"', keycode.Quote, true},
	}

	km := DefaultKeymap()
	for _, tc := range cases {
		code, shifted, ok := km.ResolveChar(tc.r)
		if !ok {
			t.Errorf("ResolveChar(%q) not found", tc.r)
			continue
		}
		if code != tc.code || shifted != tc.shifted {
			t.Errorf("ResolveChar(%q) = %v/%v, want %v/%v", tc.r, code, shifted, tc.code, tc.shifted)
		}
	}
}

func TestResolveCharUnknown(t *testing.T) {
	if _, _, ok := DefaultKeymap().ResolveChar('€'); ok {
		t.Error("characters outside the table should not resolve")
	}
}
