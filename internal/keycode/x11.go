package keycode

// X servers hand out evdev codes shifted up by 8 to stay clear of the
// historical keycode range.
const x11Offset = 8

// FromX11 converts an X11 keycode (as seen in XKB events, IBus engine
// callbacks and QueryKeymap bit vectors) to a canonical code.
func FromX11(kc uint32) (Code, bool) {
	if kc < x11Offset || kc-x11Offset > 0xFFFF {
		return 0, false
	}
	return FromEvdev(uint16(kc - x11Offset))
}
