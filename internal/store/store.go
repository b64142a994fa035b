// Package store persists per-controller mappings in a single JSON file
// keyed by the controller's reported name.
package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
)

// ButtonMapping binds a physical key code to a virtual gamepad button.
type ButtonMapping struct {
	Virtual  string `json:"xbox_button"`
	Physical string `json:"physical_button"`
}

// AxisMapping binds a physical absolute axis to a virtual gamepad axis.
type AxisMapping struct {
	Virtual  string `json:"xbox_axis"`
	Physical string `json:"physical_axis"`
}

type ControllerMapping struct {
	Name    string          `json:"name"`
	Buttons []ButtonMapping `json:"button_mappings"`
	Axes    []AxisMapping   `json:"axis_mappings"`
}

type configsFile struct {
	Configs map[string]ControllerMapping `json:"configs"`
}

// DecodeError means the mapping file exists but doesn't hold a valid store.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// DefaultPath is where the mapping file lives for the current user.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "blitz", "controller-configs.json")
}

// Store reads the whole file on every call; nothing is cached between calls.
// Each load-mutate-write cycle runs under an flock on a sibling lock file.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Get returns the mapping stored under name, or nil if there is none.
// A file that fails to decode is reported as a *DecodeError.
func (s *Store) Get(name string) (*ControllerMapping, error) {
	cf, err := s.read()
	if err != nil || cf == nil {
		return nil, err
	}
	m, ok := cf.Configs[name]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

// Has reports whether Get would return a mapping for name.
func (s *Store) Has(name string) (bool, error) {
	m, err := s.Get(name)
	return m != nil, err
}

// List returns every stored mapping ordered by name.
func (s *Store) List() ([]ControllerMapping, error) {
	cf, err := s.read()
	if err != nil {
		return nil, err
	}
	if cf == nil {
		return []ControllerMapping{}, nil
	}
	ms := make([]ControllerMapping, 0, len(cf.Configs))
	for _, m := range cf.Configs {
		ms = append(ms, m)
	}
	sort.Slice(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })
	return ms, nil
}

// Save inserts or replaces the mapping for name. An undecodable file is
// replaced by a fresh store holding only this entry.
func (s *Store) Save(name string, m ControllerMapping) (string, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", errors.Wrap(err, "create config directory")
	}
	unlock, err := s.lock(true)
	if err != nil {
		return "", err
	}
	defer unlock()

	cf, err := s.load()
	if err != nil {
		var de *DecodeError
		if !errors.As(err, &de) {
			return "", err
		}
		log.Printf("discarding unreadable mapping file: %v", err)
		cf = nil
	}
	if cf == nil {
		cf = &configsFile{}
	}
	if cf.Configs == nil {
		cf.Configs = make(map[string]ControllerMapping)
	}

	m.Name = name
	if m.Buttons == nil {
		m.Buttons = []ButtonMapping{}
	}
	if m.Axes == nil {
		m.Axes = []AxisMapping{}
	}
	cf.Configs[name] = m
	if err := s.write(cf); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved config for %s", name), nil
}

// Delete removes the mapping for name. A missing file or entry is not an
// error; the returned message says what happened.
func (s *Store) Delete(name string) (string, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Sprintf("No config file found, nothing to delete for %s", name), nil
	}
	unlock, err := s.lock(true)
	if err != nil {
		return "", err
	}
	defer unlock()

	cf, err := s.load()
	if err != nil {
		return "", err
	}
	if cf == nil {
		return fmt.Sprintf("No config file found, nothing to delete for %s", name), nil
	}
	if _, ok := cf.Configs[name]; !ok {
		return fmt.Sprintf("Config for %s not found, nothing to delete", name), nil
	}
	delete(cf.Configs, name)
	if err := s.write(cf); err != nil {
		return "", err
	}
	return fmt.Sprintf("Deleted config for %s", name), nil
}

func (s *Store) read() (*configsFile, error) {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return nil, nil
	}
	unlock, err := s.lock(false)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return s.load()
}

// load returns nil without error when the file doesn't exist.
func (s *Store) load() (*configsFile, error) {
	b, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	} else if err != nil {
		return nil, errors.Wrap(err, "read mapping file")
	}
	var cf configsFile
	if err := json.Unmarshal(b, &cf); err != nil {
		return nil, &DecodeError{Path: s.path, Err: err}
	}
	return &cf, nil
}

// write replaces the file atomically through a temp file and rename.
func (s *Store) write(cf *configsFile) error {
	b, err := json.MarshalIndent(cf, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode mapping file")
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp mapping file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write mapping file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.Wrap(err, "sync mapping file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close mapping file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace mapping file")
}
