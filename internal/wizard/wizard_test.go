package wizard

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/chzchzchz/padmap/internal/capture"
	"github.com/pkg/errors"
)

type scripted struct {
	buttons, axes []string
}

func next(q *[]string) (string, error) {
	id := (*q)[0]
	*q = (*q)[1:]
	switch id {
	case "":
		return "", errors.Wrap(capture.ErrTimeout, "nothing pressed")
	case "!":
		return "", errors.New("device unplugged")
	}
	return id, nil
}

func (s *scripted) CaptureButton(context.Context, string) (string, error) { return next(&s.buttons) }
func (s *scripted) CaptureAxis(context.Context, string) (string, error)   { return next(&s.axes) }

func TestRun(t *testing.T) {
	c := &scripted{
		buttons: []string{"BTN_SOUTH", "BTN_EAST", "", "BTN_NORTH", "BTN_TL", "BTN_TR", "BTN_TL2", "BTN_TR2", "BTN_SELECT", "BTN_START", "BTN_THUMBL", ""},
		axes:    []string{"ABS_X", "ABS_Y", "", "ABS_RZ"},
	}
	var out bytes.Buffer
	m, err := (&Wizard{Capture: c, Out: &out}).Run(context.Background(), "/dev/input/event3")
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Buttons) != 10 || len(m.Axes) != 3 {
		t.Fatalf("mapped %d buttons, %d axes", len(m.Buttons), len(m.Axes))
	}
	if m.Buttons[2].Virtual != "y" || m.Buttons[2].Physical != "BTN_NORTH" {
		t.Errorf("third mapped button %+v", m.Buttons[2])
	}
	if m.Axes[2].Virtual != "y2" || m.Axes[2].Physical != "ABS_RZ" {
		t.Errorf("third mapped axis %+v", m.Axes[2])
	}
	if n := strings.Count(out.String(), "skipped"); n != 3 {
		t.Errorf("%d skips reported:\n%s", n, out.String())
	}
}

func TestRunStopsOnError(t *testing.T) {
	c := &scripted{buttons: []string{"BTN_SOUTH", "!"}}
	m, err := (&Wizard{Capture: c, Out: &bytes.Buffer{}}).Run(context.Background(), "event3")
	if err == nil || !strings.Contains(err.Error(), "unplugged") {
		t.Fatalf("got %v", err)
	}
	if len(m.Buttons) != 1 {
		t.Errorf("partial mapping %+v", m)
	}
}
