package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultLabel names the profile created by `config init`. It can be
// reset but never removed.
const DefaultLabel = "Default"

var ErrNoConfig = errors.New("no config selected")

// Store manages labeled YAML profiles under Root/configs and the active
// label in Root/current_config.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

// DefaultStore resolves the platform config root.
func DefaultStore() *Store {
	return NewStore(ConfigRoot())
}

func ConfigRoot() string {
	// Windows
	if appdata := os.Getenv("APPDATA"); appdata != "" {
		return filepath.Join(appdata, "democap")
	}

	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "democap")
	}

	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "democap")
}

func (s *Store) ConfigsDir() string {
	return filepath.Join(s.Root, "configs")
}

func (s *Store) labelFile() string {
	return filepath.Join(s.Root, "current_config")
}

// Path returns where the profile with the given label lives, whether or
// not it exists.
func (s *Store) Path(label string) string {
	return filepath.Join(s.ConfigsDir(), label+".yaml")
}

func (s *Store) ensureDirs() error {
	return os.MkdirAll(s.ConfigsDir(), 0755)
}

func (s *Store) exists(label string) bool {
	_, err := os.Stat(s.Path(label))
	return err == nil
}

func validLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return errors.New("label cannot be empty")
	}
	if strings.ContainsAny(label, `/\`) {
		return fmt.Errorf("label %q must not contain path separators", label)
	}
	return nil
}

func (s *Store) CurrentLabel() (string, error) {
	b, err := os.ReadFile(s.labelFile())
	if os.IsNotExist(err) {
		return "", ErrNoConfig
	}
	if err != nil {
		return "", err
	}

	label := strings.TrimSpace(string(b))
	if label == "" {
		return "", ErrNoConfig
	}
	return label, nil
}

func (s *Store) ActivePath() (string, error) {
	label, err := s.CurrentLabel()
	if err != nil {
		return "", err
	}
	return s.Path(label), nil
}

type Info struct {
	Label  string
	Path   string
	Active bool
}

func (s *Store) List() ([]Info, error) {
	if err := s.ensureDirs(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.ConfigsDir())
	if err != nil {
		return nil, fmt.Errorf("cannot read configs directory: %w", err)
	}

	active, _ := s.CurrentLabel()
	var out []Info
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".yaml" {
			continue
		}

		label := strings.TrimSuffix(name, ".yaml")
		out = append(out, Info{
			Label:  label,
			Path:   filepath.Join(s.ConfigsDir(), name),
			Active: label == active,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *Store) Switch(label string) error {
	if err := validLabel(label); err != nil {
		return err
	}
	if !s.exists(label) {
		return fmt.Errorf("config %q does not exist", label)
	}

	return os.WriteFile(s.labelFile(), []byte(label), 0644)
}

// Create writes a profile with default values and returns its path.
func (s *Store) Create(label string) (string, error) {
	if err := validLabel(label); err != nil {
		return "", err
	}
	if err := s.ensureDirs(); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	if s.exists(label) {
		return "", fmt.Errorf("a config named %q already exists", label)
	}

	path := s.Path(label)
	if err := SaveYAML(DefaultConfig(), path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return path, nil
}

// InitDefault creates the Default profile and makes it active. It returns
// os.ErrExist when the profile was already there.
func (s *Store) InitDefault() (string, error) {
	if s.exists(DefaultLabel) {
		return s.Path(DefaultLabel), os.ErrExist
	}

	path, err := s.Create(DefaultLabel)
	if err != nil {
		return "", err
	}

	return path, s.Switch(DefaultLabel)
}

func (s *Store) Rename(oldLabel, newLabel string) error {
	if err := validLabel(newLabel); err != nil {
		return err
	}
	if !s.exists(oldLabel) {
		return fmt.Errorf("config %q does not exist", oldLabel)
	}
	if s.exists(newLabel) {
		return fmt.Errorf("config %q already exists", newLabel)
	}

	if err := os.Rename(s.Path(oldLabel), s.Path(newLabel)); err != nil {
		return err
	}

	if active, _ := s.CurrentLabel(); active == oldLabel {
		return os.WriteFile(s.labelFile(), []byte(newLabel), 0644)
	}
	return nil
}

// Remove deletes a profile. Removing the active profile falls back to
// Default; the returned bool reports whether that happened.
func (s *Store) Remove(label string) (bool, error) {
	if err := validLabel(label); err != nil {
		return false, err
	}
	if label == DefaultLabel {
		return false, errors.New("cannot remove the Default config")
	}
	if !s.exists(label) {
		return false, fmt.Errorf("config %q does not exist", label)
	}

	switched := false
	if active, _ := s.CurrentLabel(); active == label {
		if err := s.Switch(DefaultLabel); err != nil {
			return false, fmt.Errorf("failed switching to Default: %w", err)
		}
		switched = true
	}

	return switched, os.Remove(s.Path(label))
}

// Reset overwrites the active profile with default values.
func (s *Store) Reset() (string, error) {
	path, err := s.ActivePath()
	if err != nil {
		return "", err
	}
	return path, SaveYAML(DefaultConfig(), path)
}
