package keycode

// Linux input event codes for the canonical space. Backends reading
// /dev/input convert through this table; X11 backends go through FromX11
// which strips the server's offset first.
var evdevToCode = map[uint16]Code{
	1:  Escape,    // KEY_ESC
	2:  Digit1,    // KEY_1
	3:  Digit2,    // KEY_2
	4:  Digit3,    // KEY_3
	5:  Digit4,    // KEY_4
	6:  Digit5,    // KEY_5
	7:  Digit6,    // KEY_6
	8:  Digit7,    // KEY_7
	9:  Digit8,    // KEY_8
	10: Digit9,    // KEY_9
	11: Digit0,    // KEY_0
	12: Minus,     // KEY_MINUS
	13: Equal,     // KEY_EQUAL
	14: Backspace, // KEY_BACKSPACE
	15: Tab,       // KEY_TAB

	16: Q,
	17: W,
	18: E,
	19: R,
	20: T,
	21: Y,
	22: U,
	23: I,
	24: O,
	25: P,

	26: LeftBracket,  // KEY_LEFTBRACE
	27: RightBracket, // KEY_RIGHTBRACE
	28: Return,       // KEY_ENTER
	29: LeftControl,  // KEY_LEFTCTRL

	30: A,
	31: S,
	32: D,
	33: F,
	34: G,
	35: H,
	36: J,
	37: K,
	38: L,

	39: Semicolon, // KEY_SEMICOLON
	40: Quote,     // KEY_APOSTROPHE
	41: Grave,     // KEY_GRAVE
	42: LeftShift, // KEY_LEFTSHIFT
	43: Backslash, // KEY_BACKSLASH

	44: Z,
	45: X,
	46: C,
	47: V,
	48: B,
	49: N,
	50: M,

	51: Comma,      // KEY_COMMA
	52: Period,     // KEY_DOT
	53: Slash,      // KEY_SLASH
	54: RightShift, // KEY_RIGHTSHIFT
	56: LeftAlt,    // KEY_LEFTALT
	57: Space,      // KEY_SPACE
	58: CapsLock,   // KEY_CAPSLOCK

	59: F1,
	60: F2,
	61: F3,
	62: F4,
	63: F5,
	64: F6,
	65: F7,
	66: F8,
	67: F9,
	68: F10,
	87: F11,
	88: F12,

	69: NumLock,    // KEY_NUMLOCK
	70: ScrollLock, // KEY_SCROLLLOCK

	97:  RightControl, // KEY_RIGHTCTRL
	99:  PrintScreen,  // KEY_SYSRQ
	100: RightAlt,     // KEY_RIGHTALT

	102: Home,     // KEY_HOME
	103: Up,       // KEY_UP
	104: PageUp,   // KEY_PAGEUP
	105: Left,     // KEY_LEFT
	106: Right,    // KEY_RIGHT
	107: End,      // KEY_END
	108: Down,     // KEY_DOWN
	109: PageDown, // KEY_PAGEDOWN
	110: Insert,   // KEY_INSERT
	111: Delete,   // KEY_DELETE

	125: LeftMeta,  // KEY_LEFTMETA
	126: RightMeta, // KEY_RIGHTMETA
}

// FromEvdev converts a Linux input event code to a canonical code.
// Codes outside the canonical space report ok=false.
func FromEvdev(code uint16) (Code, bool) {
	c, ok := evdevToCode[code]
	return c, ok
}
