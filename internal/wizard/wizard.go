// Package wizard walks a user through mapping every virtual button and
// axis of a controller from the terminal.
package wizard

import (
	"context"
	"fmt"
	"io"

	"github.com/chzchzchz/padmap/internal/capture"
	"github.com/chzchzchz/padmap/internal/store"
	"github.com/pkg/errors"
)

// Step is one virtual control to map.
type Step struct {
	ID    string
	Label string
}

// The D-pad is absent: hats are always passed through as dpad_x/dpad_y.
var Buttons = []Step{
	{"a", "A"},
	{"b", "B"},
	{"x", "X"},
	{"y", "Y"},
	{"lb", "LB"},
	{"rb", "RB"},
	{"lt", "LT"},
	{"rt", "RT"},
	{"back", "Back"},
	{"start", "Start"},
	{"tl", "L3 (left stick click)"},
	{"tr", "R3 (right stick click)"},
}

var Axes = []Step{
	{"x1", "Left Stick, horizontal"},
	{"y1", "Left Stick, vertical"},
	{"x2", "Right Stick, horizontal"},
	{"y2", "Right Stick, vertical"},
}

type Capturer interface {
	CaptureButton(ctx context.Context, path string) (string, error)
	CaptureAxis(ctx context.Context, path string) (string, error)
}

type Wizard struct {
	Capture Capturer
	Out     io.Writer
}

// Run captures each step in order. A step that times out is skipped; any
// other error ends the session.
func (w *Wizard) Run(ctx context.Context, path string) (store.ControllerMapping, error) {
	var m store.ControllerMapping
	for _, s := range Buttons {
		fmt.Fprintf(w.Out, "Press %s ... ", s.Label)
		id, err := w.step(ctx, path, w.Capture.CaptureButton)
		if err != nil {
			return m, err
		}
		if id != "" {
			m.Buttons = append(m.Buttons, store.ButtonMapping{Virtual: s.ID, Physical: id})
		}
	}
	for _, s := range Axes {
		fmt.Fprintf(w.Out, "Move %s ... ", s.Label)
		id, err := w.step(ctx, path, w.Capture.CaptureAxis)
		if err != nil {
			return m, err
		}
		if id != "" {
			m.Axes = append(m.Axes, store.AxisMapping{Virtual: s.ID, Physical: id})
		}
	}
	return m, nil
}

func (w *Wizard) step(ctx context.Context, path string, fn func(context.Context, string) (string, error)) (string, error) {
	id, err := fn(ctx, path)
	if errors.Is(err, capture.ErrTimeout) {
		fmt.Fprintln(w.Out, "skipped")
		return "", nil
	} else if err != nil {
		fmt.Fprintln(w.Out, "failed")
		return "", err
	}
	fmt.Fprintln(w.Out, id)
	return id, nil
}
