package capture

import "github.com/gvalkov/golang-evdev"

const (
	DpadUp    = "BTN_DPAD_UP"
	DpadDown  = "BTN_DPAD_DOWN"
	DpadLeft  = "BTN_DPAD_LEFT"
	DpadRight = "BTN_DPAD_RIGHT"
)

// hatTracker remembers the last non-neutral value of each D-pad axis so a
// held direction is reported once. Returning to neutral re-arms it.
type hatTracker struct {
	x, y int32
}

func (h *hatTracker) press(code uint16, value int32) (string, bool) {
	var last *int32
	var neg, pos string
	switch code {
	case evdev.ABS_HAT0X:
		last, neg, pos = &h.x, DpadLeft, DpadRight
	case evdev.ABS_HAT0Y:
		last, neg, pos = &h.y, DpadUp, DpadDown
	default:
		return "", false
	}
	if value == 0 {
		*last = 0
		return "", false
	}
	if value == *last {
		return "", false
	}
	*last = value
	if value < 0 {
		return neg, true
	}
	return pos, true
}
