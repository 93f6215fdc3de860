package translate

import (
	"strings"
	"testing"

	"keyscribe/internal/keycode"
)

func translateOne(t *testing.T, code keycode.Code, state ModifierState) string {
	t.Helper()
	out, ok := NewTranslator().Translate(code, state)
	if !ok {
		t.Fatalf("Translate(%v, %v) reported no mapping", code, state)
	}
	return out
}

// =============================================================================
// Tests for case selection
// =============================================================================

func TestTranslateBareKey(t *testing.T) {
	if got := translateOne(t, keycode.A, ModifierState{}); got != "a" {
		t.Errorf("bare a = %q, want a", got)
	}
	if got := translateOne(t, keycode.Digit1, ModifierState{}); got != "1" {
		t.Errorf("bare 1 = %q, want 1", got)
	}
}

func TestTranslateShiftSelectsSecondary(t *testing.T) {
	cases := []struct {
		code keycode.Code
		want string
	}{
		{keycode.A, "A"},
		{keycode.Digit1, "!"},
		{keycode.Digit0, ")"},
		{keycode.Semicolon, ":"},
		{keycode.Slash, "?"},
		{keycode.Backslash, "|"},
	}
	for _, tc := range cases {
		got := translateOne(t, tc.code, ModifierState{Shift: true})
		if got != tc.want {
			t.Errorf("shift+%v = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestTranslateCapsUppercasesLetters(t *testing.T) {
	if got := translateOne(t, keycode.A, ModifierState{CapsLock: true}); got != "A" {
		t.Errorf("caps a = %q, want A", got)
	}
}

func TestTranslateShiftCapsCancel(t *testing.T) {
	// Shift and caps lock undo each other on caps-sensitive keys.
	state := ModifierState{Shift: true, CapsLock: true}
	if got := translateOne(t, keycode.A, state); got != "a" {
		t.Errorf("shift+caps a = %q, want a", got)
	}
}

func TestTranslateCapsIgnoresDigits(t *testing.T) {
	if got := translateOne(t, keycode.Digit1, ModifierState{CapsLock: true}); got != "1" {
		t.Errorf("caps 1 = %q, want 1", got)
	}
	// With caps inert on digits, shift still selects the symbol.
	state := ModifierState{Shift: true, CapsLock: true}
	if got := translateOne(t, keycode.Digit1, state); got != "!" {
		t.Errorf("caps+shift 1 = %q, want !", got)
	}
}

func TestTranslateCapsShiftsPunctuation(t *testing.T) {
	// Punctuation keys follow caps lock like letters do.
	if got := translateOne(t, keycode.Semicolon, ModifierState{CapsLock: true}); got != ":" {
		t.Errorf("caps ; = %q, want :", got)
	}
	state := ModifierState{Shift: true, CapsLock: true}
	if got := translateOne(t, keycode.Semicolon, state); got != ";" {
		t.Errorf("caps+shift ; = %q, want ;", got)
	}
}

// =============================================================================
// Tests for chord decoration
// =============================================================================

func TestTranslateControlChord(t *testing.T) {
	if got := translateOne(t, keycode.C, ModifierState{Control: true}); got != "<CTRL + c>" {
		t.Errorf("ctrl+c = %q, want <CTRL + c>", got)
	}
}

func TestTranslateChordPrefixOrder(t *testing.T) {
	// Prefixes always render WIN, CTRL, ALT regardless of press order.
	state := ModifierState{Meta: true, Control: true, Alt: true}
	if got := translateOne(t, keycode.A, state); got != "<WIN + CTRL + ALT + a>" {
		t.Errorf("chord = %q, want <WIN + CTRL + ALT + a>", got)
	}

	state = ModifierState{Meta: true, Control: true}
	if got := translateOne(t, keycode.A, state); got != "<WIN + CTRL + a>" {
		t.Errorf("chord = %q, want <WIN + CTRL + a>", got)
	}

	if got := translateOne(t, keycode.F, ModifierState{Alt: true}); got != "<ALT + f>" {
		t.Errorf("alt+f = %q, want <ALT + f>", got)
	}
	state = ModifierState{Control: true, Alt: true}
	if got := translateOne(t, keycode.Delete, state); got != "<DEL>" {
		t.Errorf("ctrl+alt+del = %q, want <DEL>", got)
	}
}

func TestTranslateChordSuppressesCaps(t *testing.T) {
	state := ModifierState{Control: true, CapsLock: true}
	if got := translateOne(t, keycode.A, state); got != "<CTRL + a>" {
		t.Errorf("ctrl with caps on = %q, want <CTRL + a>", got)
	}
}

func TestTranslateChordShiftStillSelects(t *testing.T) {
	state := ModifierState{Control: true, Shift: true}
	if got := translateOne(t, keycode.A, state); got != "<CTRL + A>" {
		t.Errorf("ctrl+shift+a = %q, want <CTRL + A>", got)
	}
	state = ModifierState{Meta: true, Shift: true}
	if got := translateOne(t, keycode.Digit2, state); got != "<WIN + @>" {
		t.Errorf("meta+shift+2 = %q, want <WIN + @>", got)
	}
}

// =============================================================================
// Tests for fixed labels
// =============================================================================

func TestTranslateFixedLabels(t *testing.T) {
	cases := []struct {
		code keycode.Code
		want string
	}{
		{keycode.Backspace, "<BACKSPACE>"},
		{keycode.Tab, "<TAB>"},
		{keycode.Return, "<RETURN>\r\n"},
		{keycode.Escape, "<ESC>"},
		{keycode.Space, " "},
		{keycode.End, "<END>"},
		{keycode.Home, "<HOME>"},
		{keycode.Left, "<LEFT>"},
		{keycode.Up, "<UP>"},
		{keycode.Right, "<RIGHT>"},
		{keycode.Down, "<DOWN>"},
		{keycode.PrintScreen, "<PRTSC>"},
		{keycode.Insert, "<INS>"},
		{keycode.Delete, "<DEL>"},
	}
	for _, tc := range cases {
		if got := translateOne(t, tc.code, ModifierState{}); got != tc.want {
			t.Errorf("%v = %q, want %q", tc.code, got, tc.want)
		}
	}
}

func TestTranslatePageKeysKeepCrossedLabels(t *testing.T) {
	// Long-standing transcript quirk: the page keys carry each other's
	// labels. Fixing it would break transcript comparisons.
	if got := translateOne(t, keycode.PageUp, ModifierState{}); got != "<PGDN>" {
		t.Errorf("PageUp = %q, want <PGDN>", got)
	}
	if got := translateOne(t, keycode.PageDown, ModifierState{}); got != "<PGUP>" {
		t.Errorf("PageDown = %q, want <PGUP>", got)
	}
}

func TestTranslateReturnCarriesLineBreak(t *testing.T) {
	got := translateOne(t, keycode.Return, ModifierState{})
	if !strings.HasSuffix(got, "\r\n") {
		t.Errorf("return fragment %q should end with CRLF", got)
	}
}

func TestTranslateFixedLabelsIgnoreModifiers(t *testing.T) {
	state := ModifierState{Meta: true, Shift: true, Control: true, Alt: true, CapsLock: true}
	if got := translateOne(t, keycode.Left, state); got != "<LEFT>" {
		t.Errorf("decorated Left = %q, want <LEFT>", got)
	}
	if got := translateOne(t, keycode.Space, state); got != " " {
		t.Errorf("decorated Space = %q, want single space", got)
	}
}

// =============================================================================
// Tests for unmapped codes
// =============================================================================

func TestTranslateUnmappedSilent(t *testing.T) {
	tr := NewTranslator()
	for _, code := range []keycode.Code{keycode.F1, keycode.F12, keycode.NumLock, keycode.ScrollLock, keycode.Code(0x07)} {
		out, ok := tr.Translate(code, ModifierState{})
		if ok || out != "" {
			t.Errorf("Translate(%v) = %q, %v; want silence", code, out, ok)
		}
	}
}

// =============================================================================
// End-to-end sequences through tracker and translator
// =============================================================================

// runSequence pushes events through a fresh tracker/translator pair the
// way the engine does: modifier keys feed the tracker, everything else
// translates on key-down.
func runSequence(events []KeyEvent) string {
	tracker := NewTracker()
	translator := NewTranslator()
	var out strings.Builder
	for _, ev := range events {
		if keycode.IsModifier(ev.Code) {
			tracker.Apply(ev)
			continue
		}
		if ev.Direction != Down {
			continue
		}
		if frag, ok := translator.Translate(ev.Code, tracker.State()); ok {
			out.WriteString(frag)
		}
	}
	return out.String()
}

func TestSequenceShiftedLetter(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.LeftShift),
		Press(keycode.A),
	})
	if got != "A" {
		t.Errorf("got %q, want A", got)
	}
}

func TestSequenceCapsThenLetter(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.CapsLock),
		Release(keycode.CapsLock),
		Press(keycode.A),
	})
	if got != "A" {
		t.Errorf("got %q, want A", got)
	}
}

func TestSequenceCapsAndShiftCancel(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.CapsLock),
		Release(keycode.CapsLock),
		Press(keycode.LeftShift),
		Press(keycode.A),
	})
	if got != "a" {
		t.Errorf("got %q, want a", got)
	}
}

func TestSequenceControlChord(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.LeftControl),
		Press(keycode.C),
	})
	if got != "<CTRL + c>" {
		t.Errorf("got %q, want <CTRL + c>", got)
	}
}

func TestSequenceMetaControlChord(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.LeftMeta),
		Press(keycode.LeftControl),
		Press(keycode.A),
	})
	if got != "<WIN + CTRL + a>" {
		t.Errorf("got %q, want <WIN + CTRL + a>", got)
	}
}

func TestSequenceDigits(t *testing.T) {
	if got := runSequence([]KeyEvent{Press(keycode.Digit1)}); got != "1" {
		t.Errorf("got %q, want 1", got)
	}
	got := runSequence([]KeyEvent{
		Press(keycode.LeftShift),
		Press(keycode.Digit1),
	})
	if got != "!" {
		t.Errorf("got %q, want !", got)
	}
}

func TestSequenceChordReleaseRestoresPlainOutput(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.LeftControl),
		Press(keycode.C),
		Release(keycode.LeftControl),
		Press(keycode.C),
	})
	if got != "<CTRL + c>c" {
		t.Errorf("got %q, want <CTRL + c>c", got)
	}
}

func TestSequenceTyping(t *testing.T) {
	got := runSequence([]KeyEvent{
		Press(keycode.LeftShift),
		Press(keycode.H),
		Release(keycode.LeftShift),
		Press(keycode.I),
		Press(keycode.Space),
		Press(keycode.Digit2),
		Press(keycode.U),
		Press(keycode.Return),
	})
	if got != "Hi 2u<RETURN>\r\n" {
		t.Errorf("got %q", got)
	}
}
