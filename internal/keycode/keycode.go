// Package keycode defines the canonical key code space shared by the
// capture backends and the translation core.
//
// The numbering follows the Windows virtual-key assignments. Backends on
// other platforms convert their native codes into this space before
// emitting events, so nothing downstream ever sees a platform-specific
// code.
package keycode

import "fmt"

// Code identifies a key in the canonical code space.
type Code uint16

// Editing and control keys.
const (
	Backspace Code = 0x08
	Tab       Code = 0x09
	Return    Code = 0x0D
	CapsLock  Code = 0x14
	Escape    Code = 0x1B
	Space     Code = 0x20
)

// Navigation keys. PageUp and PageDown carry the 0x21/0x22 assignments
// of VK_PRIOR and VK_NEXT.
const (
	PageUp      Code = 0x21
	PageDown    Code = 0x22
	End         Code = 0x23
	Home        Code = 0x24
	Left        Code = 0x25
	Up          Code = 0x26
	Right       Code = 0x27
	Down        Code = 0x28
	PrintScreen Code = 0x2C
	Insert      Code = 0x2D
	Delete      Code = 0x2E
)

// Top-row digits.
const (
	Digit0 Code = 0x30 + iota
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9
)

// Letters.
const (
	A Code = 0x41 + iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
)

// Function keys.
const (
	F1 Code = 0x70 + iota
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
)

// Lock keys.
const (
	NumLock    Code = 0x90
	ScrollLock Code = 0x91
)

// Modifier keys. Left and right variants carry distinct codes on the
// wire; the state tracker collapses each pair into a single flag.
const (
	LeftMeta     Code = 0x5B
	RightMeta    Code = 0x5C
	LeftShift    Code = 0xA0
	RightShift   Code = 0xA1
	LeftControl  Code = 0xA2
	RightControl Code = 0xA3
	LeftAlt      Code = 0xA4
	RightAlt     Code = 0xA5
)

// Punctuation keys on a US layout.
const (
	Semicolon    Code = 0xBA
	Equal        Code = 0xBB
	Comma        Code = 0xBC
	Minus        Code = 0xBD
	Period       Code = 0xBE
	Slash        Code = 0xBF
	Grave        Code = 0xC0
	LeftBracket  Code = 0xDB
	Backslash    Code = 0xDC
	RightBracket Code = 0xDD
	Quote        Code = 0xDE
)

// IsModifier reports whether c mutates modifier state instead of
// producing text: the meta, shift, control and alt pairs plus caps lock.
func IsModifier(c Code) bool {
	switch c {
	case LeftMeta, RightMeta,
		LeftShift, RightShift,
		LeftControl, RightControl,
		LeftAlt, RightAlt,
		CapsLock:
		return true
	}
	return false
}

var names = map[Code]string{
	Backspace:   "Backspace",
	Tab:         "Tab",
	Return:      "Return",
	CapsLock:    "CapsLock",
	Escape:      "Escape",
	Space:       "Space",
	PageUp:      "PageUp",
	PageDown:    "PageDown",
	End:         "End",
	Home:        "Home",
	Left:        "Left",
	Up:          "Up",
	Right:       "Right",
	Down:        "Down",
	PrintScreen: "PrintScreen",
	Insert:      "Insert",
	Delete:      "Delete",

	Digit0: "Digit0",
	Digit1: "Digit1",
	Digit2: "Digit2",
	Digit3: "Digit3",
	Digit4: "Digit4",
	Digit5: "Digit5",
	Digit6: "Digit6",
	Digit7: "Digit7",
	Digit8: "Digit8",
	Digit9: "Digit9",

	A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G",
	H: "H", I: "I", J: "J", K: "K", L: "L", M: "M", N: "N",
	O: "O", P: "P", Q: "Q", R: "R", S: "S", T: "T", U: "U",
	V: "V", W: "W", X: "X", Y: "Y", Z: "Z",

	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6",
	F7: "F7", F8: "F8", F9: "F9", F10: "F10", F11: "F11", F12: "F12",

	NumLock:    "NumLock",
	ScrollLock: "ScrollLock",

	LeftMeta:     "LeftMeta",
	RightMeta:    "RightMeta",
	LeftShift:    "LeftShift",
	RightShift:   "RightShift",
	LeftControl:  "LeftControl",
	RightControl: "RightControl",
	LeftAlt:      "LeftAlt",
	RightAlt:     "RightAlt",

	Semicolon:    "Semicolon",
	Equal:        "Equal",
	Comma:        "Comma",
	Minus:        "Minus",
	Period:       "Period",
	Slash:        "Slash",
	Grave:        "Grave",
	LeftBracket:  "LeftBracket",
	Backslash:    "Backslash",
	RightBracket: "RightBracket",
	Quote:        "Quote",
}

var byName map[string]Code

func init() {
	byName = make(map[string]Code, len(names))
	for c, n := range names {
		byName[n] = c
	}
}

// String returns the canonical name for c, or a hex form for codes
// outside the named space.
func (c Code) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return fmt.Sprintf("Code(0x%02X)", uint16(c))
}

// FromName resolves a canonical key name as produced by Code.String.
// Layout files address keys by these names.
func FromName(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}
