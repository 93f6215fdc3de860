// Package translate turns key transitions into the text fragments a
// transcript is built from.
//
// Three pieces cooperate. The Tracker folds modifier presses and
// releases into a ModifierState. The Keymap maps canonical key codes to
// glyph pairs and fixed labels. The Translator renders a key-down
// against a state snapshot: plain characters for bare keys, shifted or
// uppercased glyphs under shift and caps lock, and bracketed chord
// notation like "<CTRL + c>" when a chord modifier is held.
package translate

import (
	"strings"

	"keyscribe/internal/keycode"
)

// Translator renders key-down events into text fragments. The zero
// value is unusable; NewTranslator wires the default US layout.
type Translator struct {
	keymap *Keymap
}

// NewTranslator returns a translator over a fresh default keymap.
func NewTranslator() *Translator {
	return &Translator{keymap: DefaultKeymap()}
}

// NewTranslatorWith uses a prepared keymap, usually one with a layout
// overlay applied.
func NewTranslatorWith(km *Keymap) *Translator {
	return &Translator{keymap: km}
}

// Keymap returns the live keymap. Changes made through it are visible
// to subsequent translations.
func (tr *Translator) Keymap() *Keymap {
	return tr.keymap
}

// Translate renders one key-down against the given modifier snapshot.
// ok is false when the code has no entry in the layout; such events
// produce no output and no diagnostics.
//
// Fixed-label keys bypass modifier handling entirely. For two-glyph
// keys the shifted glyph is chosen when exactly one of shift and
// effective caps lock is active, where effective caps is forced off
// under a chord modifier and for keys the layout marks caps-insensitive.
func (tr *Translator) Translate(code keycode.Code, state ModifierState) (string, bool) {
	if label, ok := tr.keymap.Literal(code); ok {
		return label, true
	}

	p, ok := tr.keymap.pairs[code]
	if !ok {
		return "", false
	}

	decorated := state.Decorated()
	caps := state.CapsLock
	if decorated || !p.caps {
		caps = false
	}

	ch := p.primary
	if state.Shift != caps {
		ch = p.secondary
	}

	if !decorated {
		return string(ch), true
	}

	var b strings.Builder
	b.WriteByte('<')
	if state.Meta {
		b.WriteString("WIN + ")
	}
	if state.Control {
		b.WriteString("CTRL + ")
	}
	if state.Alt {
		b.WriteString("ALT + ")
	}
	b.WriteRune(ch)
	b.WriteByte('>')
	return b.String(), true
}
