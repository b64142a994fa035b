// Package remap turns a stored mapping into arguments for the external
// remapper and runs it.
package remap

import (
	"strings"

	"github.com/chzchzchz/padmap/internal/store"
	"github.com/pkg/errors"
)

// ErrNoMapping means the device has no stored mapping yet; the caller
// should capture one first.
var ErrNoMapping = errors.New("no configuration found for this controller, please create one first")

// dpadAbsMap is always appended: hats are never user-mapped.
const dpadAbsMap = "ABS_HAT0X=dpad_x,ABS_HAT0Y=dpad_y"

// LaunchSpec holds the device and the physical=virtual association lists
// handed to the remapper, in stored order.
type LaunchSpec struct {
	Device  string `json:"device"`
	Buttons string `json:"buttons"`
	Axes    string `json:"axes"`
}

// Namer resolves a device path to its stable name.
type Namer interface {
	Path(dev string) string
	Name(dev string) (string, error)
}

// Mappings looks up a stored mapping by device name.
type Mappings interface {
	Get(name string) (*store.ControllerMapping, error)
}

type Synthesizer struct {
	names    Namer
	mappings Mappings
}

func NewSynthesizer(names Namer, mappings Mappings) *Synthesizer {
	return &Synthesizer{names: names, mappings: mappings}
}

// Synthesize resolves dev's name on every call and renders its mapping.
func (s *Synthesizer) Synthesize(dev string) (*LaunchSpec, error) {
	path := s.names.Path(dev)
	name, err := s.names.Name(path)
	if err != nil {
		return nil, err
	}
	m, err := s.mappings.Get(name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.Wrap(ErrNoMapping, name)
	}
	return Render(path, m), nil
}

func Render(path string, m *store.ControllerMapping) *LaunchSpec {
	buttons := make([]string, 0, len(m.Buttons))
	for _, b := range m.Buttons {
		buttons = append(buttons, b.Physical+"="+b.Virtual)
	}
	axes := make([]string, 0, len(m.Axes))
	for _, a := range m.Axes {
		axes = append(axes, a.Physical+"="+a.Virtual)
	}
	return &LaunchSpec{
		Device:  path,
		Buttons: strings.Join(buttons, ","),
		Axes:    strings.Join(axes, ","),
	}
}

// Args is the remapper's argument list for ls. Empty association lists are
// left out instead of producing dangling separators.
func (ls *LaunchSpec) Args() []string {
	absmap := dpadAbsMap
	if ls.Axes != "" {
		absmap = ls.Axes + "," + dpadAbsMap
	}
	args := []string{
		"--evdev", ls.Device,
		"--evdev-absmap", absmap,
		"--axismap", "-Y1=Y1,-Y2=Y2",
	}
	if ls.Buttons != "" {
		args = append(args, "--evdev-keymap", ls.Buttons)
	}
	return append(args, "--mimic-xpad", "--silent")
}
