package capture

import (
	"context"
	"testing"
	"time"

	"github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
)

var errAgain = errors.New("resource temporarily unavailable")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	return nil
}

type timedEvent struct {
	at time.Duration
	ev evdev.InputEvent
}

// fakeDevice delivers each scripted event once the fake clock reaches it and
// reports a transient error whenever nothing is pending.
type fakeDevice struct {
	clock  *fakeClock
	start  time.Time
	script []timedEvent
	opens  int
	closes int
}

func (d *fakeDevice) Read() ([]evdev.InputEvent, error) {
	elapsed := d.clock.Now().Sub(d.start)
	var out []evdev.InputEvent
	for len(d.script) > 0 && d.script[0].at <= elapsed {
		out = append(out, d.script[0].ev)
		d.script = d.script[1:]
	}
	if len(out) == 0 {
		return nil, errAgain
	}
	return out, nil
}

func (d *fakeDevice) Close() error {
	d.closes++
	return nil
}

func newFake(script ...timedEvent) (*Engine, *fakeDevice) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	dev := &fakeDevice{clock: clock, start: clock.now, script: script}
	e := &Engine{
		Open: func(string) (Source, error) {
			dev.opens++
			return dev, nil
		},
		Clock: clock,
	}
	return e, dev
}

func key(at time.Duration, code uint16, value int32) timedEvent {
	return timedEvent{at, evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: value}}
}

func abs(at time.Duration, code uint16, value int32) timedEvent {
	return timedEvent{at, evdev.InputEvent{Type: evdev.EV_ABS, Code: code, Value: value}}
}

func syn(at time.Duration) timedEvent {
	return timedEvent{at, evdev.InputEvent{Type: evdev.EV_SYN}}
}

func TestCaptureButtonPress(t *testing.T) {
	e, dev := newFake(
		key(time.Second, evdev.KEY_B, 0),
		key(time.Second, evdev.KEY_B, 2),
		syn(time.Second),
		key(2*time.Second, evdev.KEY_A, 1),
		key(2*time.Second, evdev.KEY_C, 1),
	)
	id, err := e.CaptureButton(context.Background(), "/dev/input/event0")
	if err != nil {
		t.Fatal(err)
	}
	if id != "KEY_A" {
		t.Errorf("got %q, want KEY_A", id)
	}
	if dev.closes != 1 {
		t.Errorf("device closed %d times", dev.closes)
	}
}

func TestCaptureButtonGamepad(t *testing.T) {
	e, _ := newFake(
		key(time.Second, evdev.BTN_SOUTH, 1),
		syn(time.Second),
	)
	id, err := e.CaptureButton(context.Background(), "/dev/input/event0")
	if err != nil {
		t.Fatal(err)
	}
	if id != "BTN_SOUTH" {
		t.Errorf("got %q, want BTN_SOUTH", id)
	}
}

func TestCaptureButtonIgnoresSticks(t *testing.T) {
	e, _ := newFake(
		abs(0, evdev.ABS_X, 255),
		abs(time.Second, evdev.ABS_HAT0Y, -1),
	)
	id, err := e.CaptureButton(context.Background(), "event0")
	if err != nil {
		t.Fatal(err)
	}
	if id != DpadUp {
		t.Errorf("got %q, want %s", id, DpadUp)
	}
}

func TestCaptureButtonDpadRetrigger(t *testing.T) {
	e, dev := newFake(
		abs(0, evdev.ABS_HAT0X, 1),
		abs(time.Second, evdev.ABS_HAT0X, 0),
		abs(2*time.Second, evdev.ABS_HAT0X, 1),
	)
	ctx := context.Background()

	var got []string
	for {
		id, err := e.CaptureButton(ctx, "event0")
		if errors.Is(err, ErrTimeout) {
			break
		} else if err != nil {
			t.Fatal(err)
		}
		got = append(got, id)
	}
	if len(got) != 2 || got[0] != DpadRight || got[1] != DpadRight {
		t.Errorf("reported %v, want two %s", got, DpadRight)
	}
	if dev.opens != 3 || dev.closes != 3 {
		t.Errorf("opens=%d closes=%d", dev.opens, dev.closes)
	}
}

func TestHatTracker(t *testing.T) {
	var h hatTracker
	steps := []struct {
		code  uint16
		value int32
		want  string
	}{
		{evdev.ABS_HAT0X, 1, DpadRight},
		{evdev.ABS_HAT0X, 1, ""},
		{evdev.ABS_HAT0Y, 1, DpadDown},
		{evdev.ABS_HAT0X, 0, ""},
		{evdev.ABS_HAT0X, 1, DpadRight},
		{evdev.ABS_HAT0X, -1, DpadLeft},
		{evdev.ABS_HAT0Y, -1, DpadUp},
		{evdev.ABS_HAT0Y, -1, ""},
		{evdev.ABS_X, 1, ""},
	}
	for i, s := range steps {
		got, ok := h.press(s.code, s.value)
		if ok != (s.want != "") || got != s.want {
			t.Errorf("step %d: press(%d, %d) = %q, %v; want %q", i, s.code, s.value, got, ok, s.want)
		}
	}
}

func TestCaptureAxis(t *testing.T) {
	e, _ := newFake(
		abs(0, evdev.ABS_X, 128),
		abs(0, evdev.ABS_Y, 30),
		abs(time.Second, evdev.ABS_X, 150),
		abs(time.Second, evdev.ABS_Y, 85),
		abs(time.Second, evdev.ABS_HAT0X, -1),
		abs(2*time.Second, evdev.ABS_X, 200),
	)
	id, err := e.CaptureAxis(context.Background(), "event0")
	if err != nil {
		t.Fatal(err)
	}
	if id != "ABS_X" {
		t.Errorf("got %q, want ABS_X", id)
	}
}

func TestCaptureAxisBelowThreshold(t *testing.T) {
	e, _ := newFake(
		abs(0, evdev.ABS_X, 128),
		abs(time.Second, evdev.ABS_X, 150),
		abs(2*time.Second, evdev.ABS_X, 188),
		abs(3*time.Second, evdev.ABS_X, 68),
	)
	_, err := e.CaptureAxis(context.Background(), "event0")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestCaptureAxisUncalibratedUsesNeutral(t *testing.T) {
	e, _ := newFake(
		abs(time.Second, evdev.ABS_RZ, 180),
		abs(2*time.Second, evdev.ABS_RZ, 60),
	)
	id, err := e.CaptureAxis(context.Background(), "event0")
	if err != nil {
		t.Fatal(err)
	}
	if id != "ABS_RZ" {
		t.Errorf("got %q, want ABS_RZ", id)
	}
}

func TestCaptureAxisCalibrationIgnoresHats(t *testing.T) {
	e, _ := newFake(
		abs(0, evdev.ABS_HAT0Y, 1),
		abs(time.Second, evdev.ABS_HAT0Y, -1),
	)
	if _, err := e.CaptureAxis(context.Background(), "event0"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
}

func TestCaptureTimeout(t *testing.T) {
	for name, capture := range map[string]func(*Engine) (string, error){
		"button": func(e *Engine) (string, error) { return e.CaptureButton(context.Background(), "event0") },
		"axis":   func(e *Engine) (string, error) { return e.CaptureAxis(context.Background(), "event0") },
	} {
		t.Run(name, func(t *testing.T) {
			e, dev := newFake(key(10*time.Second, evdev.KEY_A, 0))
			_, err := capture(e)
			if !errors.Is(err, ErrTimeout) {
				t.Fatalf("got %v, want ErrTimeout", err)
			}
			elapsed := dev.clock.Now().Sub(dev.start)
			if elapsed < Timeout || elapsed > Timeout+PollBackoff {
				t.Errorf("timed out after %v", elapsed)
			}
		})
	}
}

func TestCaptureOpenError(t *testing.T) {
	e := NewEngine()
	e.Open = func(string) (Source, error) { return nil, errors.New("permission denied") }

	_, err := e.CaptureButton(context.Background(), "/dev/input/event9")
	var oe *DeviceOpenError
	if !errors.As(err, &oe) {
		t.Fatalf("got %v, want DeviceOpenError", err)
	}
	if oe.Path != "/dev/input/event9" || oe.Err.Error() != "permission denied" {
		t.Errorf("unexpected error %v", oe)
	}
	if _, err := e.CaptureAxis(context.Background(), "/dev/input/event9"); !errors.As(err, &oe) {
		t.Fatalf("axis: got %v, want DeviceOpenError", err)
	}
}

func TestCaptureCancelled(t *testing.T) {
	e, dev := newFake()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := e.CaptureButton(ctx, "event0"); !errors.Is(err, context.Canceled) {
		t.Fatalf("got %v, want context.Canceled", err)
	}
	if dev.closes != 1 {
		t.Errorf("device closed %d times", dev.closes)
	}
}

func TestNames(t *testing.T) {
	keys := map[uint16]string{
		evdev.KEY_A:      "KEY_A",
		evdev.KEY_MUTE:   "KEY_MUTE",
		evdev.BTN_SOUTH:  "BTN_SOUTH",
		evdev.BTN_EAST:   "BTN_EAST",
		evdev.BTN_NORTH:  "BTN_NORTH",
		evdev.BTN_WEST:   "BTN_WEST",
		evdev.BTN_TL:     "BTN_TL",
		evdev.BTN_TR:     "BTN_TR",
		evdev.BTN_START:  "BTN_START",
		evdev.BTN_THUMBL: "BTN_THUMBL",
		0x2ee:            "KEY_750",
	}
	for code, want := range keys {
		if got := KeyName(code); got != want {
			t.Errorf("KeyName(%#x) = %q, want %q", code, got, want)
		}
	}
	if got := AxisName(evdev.ABS_X); got != "ABS_X" {
		t.Errorf("AxisName(ABS_X) = %q", got)
	}
	if got := AxisName(0x3e); got != "ABS_62" {
		t.Errorf("AxisName(0x3e) = %q", got)
	}
}
