// Package device resolves input device nodes to the names the kernel
// reports for them and finds controller-like devices.
package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	DefaultDevDir    = "/dev/input"
	DefaultSysfsRoot = "/sys/class/input"
)

// NameLookupError is returned when a device's reported name can't be read.
type NameLookupError struct {
	Path string
	Err  error
}

func (e *NameLookupError) Error() string {
	return fmt.Sprintf("failed to read controller name for %s: %v", e.Path, e.Err)
}

func (e *NameLookupError) Unwrap() error { return e.Err }

// Resolver maps device nodes under DevDir to names under SysfsRoot.
type Resolver struct {
	DevDir    string
	SysfsRoot string
}

func NewResolver(devDir, sysfsRoot string) *Resolver {
	if devDir == "" {
		devDir = DefaultDevDir
	}
	if sysfsRoot == "" {
		sysfsRoot = DefaultSysfsRoot
	}
	return &Resolver{DevDir: devDir, SysfsRoot: sysfsRoot}
}

// Path expands a bare node name like "event13" into a full device path.
func (r *Resolver) Path(dev string) string {
	if strings.HasPrefix(dev, "/") {
		return dev
	}
	return filepath.Join(r.DevDir, filepath.Base(dev))
}

// Node returns the event node name ("event13") behind dev, following
// /dev/input/by-id style symlinks when they exist.
func (r *Resolver) Node(dev string) (string, error) {
	path := r.Path(dev)
	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}
	base := filepath.Base(path)
	num := strings.TrimPrefix(base, "event")
	if num == base || num == "" || strings.Trim(num, "0123456789") != "" {
		return "", errors.Errorf("%s is not an event device", path)
	}
	return base, nil
}

// Name returns the display name the kernel reports for dev. It reads the
// class metadata rather than the event stream, so it works on an idle device.
func (r *Resolver) Name(dev string) (string, error) {
	path := r.Path(dev)
	node, err := r.Node(path)
	if err != nil {
		return "", &NameLookupError{Path: path, Err: err}
	}
	b, err := os.ReadFile(filepath.Join(r.SysfsRoot, node, "device", "name"))
	if err != nil {
		return "", &NameLookupError{Path: path, Err: err}
	}
	name := strings.TrimSpace(string(b))
	if name == "" {
		return "", &NameLookupError{Path: path, Err: errors.New("empty name attribute")}
	}
	return name, nil
}
