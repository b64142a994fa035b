package device

import (
	"log"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jochenvg/go-udev"
	"github.com/pkg/errors"
)

var controllerKeywords = []string{
	"joystick",
	"gamepad",
	"controller",
	"xbox",
	"playstation",
	"dualshock",
}

// Controller is an event node that looks like a game controller.
type Controller struct {
	Path  string `json:"path"`
	Event string `json:"event"`
	Name  string `json:"name"`
}

// IsController reports whether a device name matches any controller keyword.
func IsController(name string) bool {
	name = strings.ToLower(name)
	for _, kw := range controllerKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Discover lists controller event nodes known to udev, falling back to a
// plain directory scan when udev enumeration is unavailable.
func (r *Resolver) Discover() ([]Controller, error) {
	ctrls, err := r.enumerate()
	if err != nil {
		log.Printf("udev enumeration failed, scanning %s: %v", r.DevDir, err)
		return r.Scan()
	}
	return ctrls, nil
}

func (r *Resolver) enumerate() ([]Controller, error) {
	u := &udev.Udev{}
	e := u.NewEnumerate()
	if e == nil {
		return nil, errors.New("udev enumerate unavailable")
	}
	if err := e.AddMatchSubsystem("input"); err != nil {
		return nil, errors.Wrap(err, "match input subsystem")
	}
	if err := e.AddMatchSysname("event*"); err != nil {
		return nil, errors.Wrap(err, "match event nodes")
	}
	devs, err := e.Devices()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate input devices")
	}
	var ctrls []Controller
	for _, d := range devs {
		node := d.Devnode()
		if node == "" {
			continue
		}
		var name string
		if p := d.Parent(); p != nil {
			name = strings.TrimSpace(p.SysattrValue("name"))
		}
		if name == "" {
			if name, err = r.Name(node); err != nil {
				continue
			}
		}
		if IsController(name) {
			ctrls = append(ctrls, Controller{Path: node, Event: filepath.Base(node), Name: name})
		}
	}
	sortControllers(ctrls)
	return ctrls, nil
}

// Scan globs DevDir for event nodes and reads their names from SysfsRoot.
func (r *Resolver) Scan() ([]Controller, error) {
	paths, err := filepath.Glob(filepath.Join(r.DevDir, "event*"))
	if err != nil {
		return nil, errors.Wrap(err, "scan device directory")
	}
	var ctrls []Controller
	for _, p := range paths {
		name, err := r.Name(p)
		if err != nil {
			continue
		}
		if IsController(name) {
			ctrls = append(ctrls, Controller{Path: p, Event: filepath.Base(p), Name: name})
		}
	}
	sortControllers(ctrls)
	return ctrls, nil
}

func sortControllers(ctrls []Controller) {
	sort.Slice(ctrls, func(i, j int) bool { return ctrls[i].Path < ctrls[j].Path })
}
