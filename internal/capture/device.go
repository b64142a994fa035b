package capture

import (
	"fmt"
	"os"
	"time"

	"github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
)

// readWait bounds a single blocking read so the poll loop can re-check
// its deadline while the device is idle.
const readWait = 100 * time.Millisecond

type evdevSource struct {
	dev *evdev.InputDevice
}

// OpenDevice opens path as an evdev event stream. The device isn't grabbed,
// so other readers keep receiving its events.
func OpenDevice(path string) (Source, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, err
	}
	return &evdevSource{dev: dev}, nil
}

func (s *evdevSource) Read() ([]evdev.InputEvent, error) {
	err := s.dev.File.SetReadDeadline(time.Now().Add(readWait))
	if err != nil && !errors.Is(err, os.ErrNoDeadline) {
		return nil, err
	}
	return s.dev.Read()
}

func (s *evdevSource) Close() error {
	return s.dev.File.Close()
}

// Button codes occupy this slice of the key space and are named from the
// BTN table first.
const (
	btnFirst = 0x100
	btnLast  = 0x2ff
)

// canonicalKeys pins codes that carry more than one kernel name. The evdev
// tables keep whichever alias their map iteration saw last.
var canonicalKeys = map[uint16]string{
	0x071: "KEY_MUTE",
	0x07a: "KEY_HANGEUL",
	0x098: "KEY_SCREENLOCK",
	0x099: "KEY_ROTATE_DISPLAY",
	0x0cc: "KEY_ALL_APPLICATIONS",
	0x0f4: "KEY_BRIGHTNESS_AUTO",
	0x0f6: "KEY_WWAN",
	0x100: "BTN_0",
	0x110: "BTN_LEFT",
	0x120: "BTN_TRIGGER",
	0x130: "BTN_SOUTH",
	0x131: "BTN_EAST",
	0x133: "BTN_NORTH",
	0x134: "BTN_WEST",
	0x140: "BTN_TOOL_PEN",
	0x150: "BTN_GEAR_DOWN",
	0x174: "KEY_FULL_SCREEN",
	0x177: "KEY_ASPECT_RATIO",
	0x1af: "KEY_BRIGHTNESS_TOGGLE",
	0x2c0: "BTN_TRIGGER_HAPPY1",
}

// KeyName returns the kernel name for a key or button code.
func KeyName(code uint16) string {
	if name, ok := canonicalKeys[code]; ok {
		return name
	}
	if code >= btnFirst && code <= btnLast {
		if name, ok := evdev.BTN[int(code)]; ok {
			return name
		}
	}
	if name, ok := evdev.KEY[int(code)]; ok {
		return name
	}
	return fmt.Sprintf("KEY_%d", code)
}

// AxisName returns the kernel name for an absolute axis code.
func AxisName(code uint16) string {
	if name, ok := evdev.ABS[int(code)]; ok {
		return name
	}
	return fmt.Sprintf("ABS_%d", code)
}
