package translate

import (
	"fmt"

	"keyscribe/internal/keycode"
)

// pair is one two-glyph key: the unshifted and shifted characters plus
// whether caps lock participates in selecting between them.
type pair struct {
	primary   rune
	secondary rune
	caps      bool
}

// Keymap holds the character table and the fixed labels for one layout.
// The zero value is unusable; start from DefaultKeymap and overlay
// changes with ApplyLayout or SetPair.
type Keymap struct {
	pairs    map[keycode.Code]pair
	literals map[keycode.Code]string
}

// Shifted glyphs for the top-row digits 0 through 9 on a US layout.
const digitShift = ")!@#$%^&*("

// DefaultKeymap builds the US layout. Each call returns independent
// maps, so overlays applied to one translator never leak into another.
func DefaultKeymap() *Keymap {
	km := &Keymap{
		pairs:    make(map[keycode.Code]pair, 48),
		literals: make(map[keycode.Code]string, 16),
	}

	// Digits select on shift alone; caps lock never uppercases a digit
	// row symbol.
	for i, sec := range digitShift {
		km.pairs[keycode.Digit0+keycode.Code(i)] = pair{rune('0' + i), sec, false}
	}

	for c := keycode.A; c <= keycode.Z; c++ {
		low := 'a' + rune(c-keycode.A)
		km.pairs[c] = pair{low, low - 'a' + 'A', true}
	}

	// Punctuation follows caps lock the same way letters do, so caps
	// turns ';' into ':'.
	km.pairs[keycode.Semicolon] = pair{';', ':', true}
	km.pairs[keycode.Equal] = pair{'=', '+', true}
	km.pairs[keycode.Comma] = pair{',', '<', true}
	km.pairs[keycode.Minus] = pair{'-', '_', true}
	km.pairs[keycode.Period] = pair{'.', '>', true}
	km.pairs[keycode.Slash] = pair{'/', '?', true}
	km.pairs[keycode.Grave] = pair{'`', '~', true}
	km.pairs[keycode.LeftBracket] = pair{'[', '{', true}
	km.pairs[keycode.Backslash] = pair{'\\', '|', true}
	km.pairs[keycode.RightBracket] = pair{']', '}', true}
	km.pairs[keycode.Quote] = pair{'\'', '"', true}

	km.literals = map[keycode.Code]string{
		keycode.Backspace: "<BACKSPACE>",
		keycode.Tab:       "<TAB>",
		keycode.Return:    "<RETURN>\r\n",
		keycode.Escape:    "<ESC>",
		keycode.Space:     " ",

		// The PGUP and PGDN labels are crossed. Transcripts have read
		// this way since the first release and must stay byte-compatible.
		keycode.PageUp:   "<PGDN>",
		keycode.PageDown: "<PGUP>",

		keycode.End:         "<END>",
		keycode.Home:        "<HOME>",
		keycode.Left:        "<LEFT>",
		keycode.Up:          "<UP>",
		keycode.Right:       "<RIGHT>",
		keycode.Down:        "<DOWN>",
		keycode.PrintScreen: "<PRTSC>",
		keycode.Insert:      "<INS>",
		keycode.Delete:      "<DEL>",
	}

	return km
}

// CharacterPair reports the glyphs for a two-glyph key.
func (km *Keymap) CharacterPair(code keycode.Code) (primary, secondary rune, capsSensitive, ok bool) {
	p, found := km.pairs[code]
	if !found {
		return 0, 0, false, false
	}
	return p.primary, p.secondary, p.caps, true
}

// Literal reports the fixed label for code, if it carries one.
func (km *Keymap) Literal(code keycode.Code) (string, bool) {
	label, ok := km.literals[code]
	return label, ok
}

// SetPair installs or replaces the character pair for code. Modifier
// keys and fixed-label keys are out of reach.
func (km *Keymap) SetPair(code keycode.Code, primary, secondary rune, capsSensitive bool) error {
	if err := km.assignable(code); err != nil {
		return err
	}
	km.pairs[code] = pair{primary, secondary, capsSensitive}
	return nil
}

func (km *Keymap) assignable(code keycode.Code) error {
	if keycode.IsModifier(code) {
		return fmt.Errorf("%v is a modifier key", code)
	}
	if _, fixed := km.literals[code]; fixed {
		return fmt.Errorf("%v carries a fixed label", code)
	}
	return nil
}

// ResolveChar finds the key and shift level that produce r under the
// current table, ignoring caps lock. Backends that only see finished
// characters, like terminals, use this to reconstruct key events.
func (km *Keymap) ResolveChar(r rune) (code keycode.Code, shifted, ok bool) {
	for c, p := range km.pairs {
		if p.primary == r {
			return c, false, true
		}
		if p.secondary == r {
			return c, true, true
		}
	}
	return 0, false, false
}
