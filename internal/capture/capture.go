// Package capture listens to an input device and reports the next button
// press or analog axis movement.
package capture

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gvalkov/golang-evdev"
	"github.com/pkg/errors"
)

// Tunables. AxisThreshold and AxisNeutral assume an 8-bit axis (0..255);
// the threshold is roughly a quarter of that range, well above rest jitter.
const (
	Timeout           = 30 * time.Second
	CalibrationWindow = 500 * time.Millisecond
	PollBackoff       = 50 * time.Millisecond
	AxisThreshold     = 60
	AxisNeutral       = 128
)

// ErrTimeout means nothing qualifying happened before the deadline.
var ErrTimeout = errors.New("timeout")

// DeviceOpenError is returned when the device can't be opened for reading.
type DeviceOpenError struct {
	Path string
	Err  error
}

func (e *DeviceOpenError) Error() string {
	return fmt.Sprintf("failed to open device %s: %v", e.Path, e.Err)
}

func (e *DeviceOpenError) Unwrap() error { return e.Err }

// Source is an open device event stream. Read returns the events available
// now; an error is treated as transient and the read is retried.
type Source interface {
	Read() ([]evdev.InputEvent, error)
	Close() error
}

// Clock abstracts time so capture deadlines can be simulated.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Engine runs capture sessions. Sessions share no state, so an Engine may
// be used from many goroutines, though two sessions on one device race for
// its events.
type Engine struct {
	Open  func(path string) (Source, error)
	Clock Clock
	Debug bool
}

func NewEngine() *Engine {
	return &Engine{Open: OpenDevice, Clock: realClock{}}
}

func (e *Engine) open(path string) (Source, error) {
	src, err := e.Open(path)
	if err != nil {
		return nil, &DeviceOpenError{Path: path, Err: err}
	}
	return src, nil
}

// CaptureButton waits for the next key press on path and returns its code
// name. D-pad hats report as BTN_DPAD_{UP,DOWN,LEFT,RIGHT}.
func (e *Engine) CaptureButton(ctx context.Context, path string) (string, error) {
	src, err := e.open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	var hats hatTracker
	deadline := e.Clock.Now().Add(Timeout)
	id, err := e.poll(ctx, src, deadline, func(ev *evdev.InputEvent) (string, bool) {
		switch ev.Type {
		case evdev.EV_KEY:
			kev := evdev.NewKeyEvent(ev)
			if kev.State == evdev.KeyDown {
				return KeyName(kev.Scancode), true
			}
		case evdev.EV_ABS:
			return hats.press(ev.Code, ev.Value)
		}
		return "", false
	})
	if errors.Is(err, ErrTimeout) {
		return "", errors.Wrapf(err, "no button pressed within %v", Timeout)
	}
	return id, err
}

// CaptureAxis records a resting baseline for every analog axis during the
// calibration window, then returns the first axis whose value strays more
// than AxisThreshold from it. Hats are ignored.
func (e *Engine) CaptureAxis(ctx context.Context, path string) (string, error) {
	src, err := e.open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	start := e.Clock.Now()
	deadline := start.Add(Timeout)
	baseline, err := e.calibrate(ctx, src, start.Add(CalibrationWindow))
	if err != nil {
		return "", err
	}
	if e.Debug {
		log.Printf("[DEBUG] baseline for %s: %v", path, baseline)
	}

	id, err := e.poll(ctx, src, deadline, func(ev *evdev.InputEvent) (string, bool) {
		if !isStickAxis(ev) {
			return "", false
		}
		base, ok := baseline[ev.Code]
		if !ok {
			base = AxisNeutral
		}
		diff := ev.Value - base
		if diff < 0 {
			diff = -diff
		}
		if diff <= AxisThreshold {
			return "", false
		}
		name := AxisName(ev.Code)
		log.Printf("axis %s moved on %s: baseline %d, value %d", name, path, base, ev.Value)
		return name, true
	})
	if errors.Is(err, ErrTimeout) {
		return "", errors.Wrapf(err, "no axis moved within %v", Timeout)
	}
	return id, err
}

func (e *Engine) calibrate(ctx context.Context, src Source, until time.Time) (map[uint16]int32, error) {
	baseline := make(map[uint16]int32)
	for e.Clock.Now().Before(until) {
		if events, err := src.Read(); err == nil {
			for i := range events {
				if isStickAxis(&events[i]) {
					baseline[events[i].Code] = events[i].Value
				}
			}
		}
		if err := e.Clock.Sleep(ctx, PollBackoff); err != nil {
			return nil, err
		}
	}
	return baseline, nil
}

// poll feeds events to match until it reports a result. The deadline is
// checked on every pass and read errors back off without resetting it.
func (e *Engine) poll(ctx context.Context, src Source, deadline time.Time, match func(*evdev.InputEvent) (string, bool)) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if !e.Clock.Now().Before(deadline) {
			return "", ErrTimeout
		}
		events, err := src.Read()
		if err != nil {
			if err := e.Clock.Sleep(ctx, PollBackoff); err != nil {
				return "", err
			}
			continue
		}
		for i := range events {
			if e.Debug {
				log.Printf("[DEBUG] event type=%d code=%d value=%d", events[i].Type, events[i].Code, events[i].Value)
			}
			if id, ok := match(&events[i]); ok {
				return id, nil
			}
		}
	}
}

func isHat(code uint16) bool {
	return code == evdev.ABS_HAT0X || code == evdev.ABS_HAT0Y
}

func isStickAxis(ev *evdev.InputEvent) bool {
	return ev.Type == evdev.EV_ABS && !isHat(ev.Code)
}
