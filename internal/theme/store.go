package theme

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Key is the state-file entry holding the preference.
const Key = "theme"

// Theme is a colour scheme preference.
type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

// Parse maps a user-supplied name to a Theme.
func Parse(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("unknown theme %q (want light or dark)", s)
}

// SystemPreference reports dark when the terminal background is dark.
func SystemPreference() Theme {
	if lipgloss.HasDarkBackground() {
		return Dark
	}
	return Light
}

// Store persists the theme preference in a small JSON state file.
type Store struct {
	mu     sync.RWMutex
	path   string
	data   map[string]string
	system func() Theme
}

// NewStore creates or loads the state file at path. system supplies the
// default when nothing has been saved; nil means SystemPreference.
func NewStore(path string, system func() Theme) (*Store, error) {
	if system == nil {
		system = SystemPreference
	}
	s := &Store{
		path:   path,
		data:   make(map[string]string),
		system: system,
	}

	raw, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read theme state: %w", err)
	}
	if err == nil {
		_ = json.Unmarshal(raw, &s.data)
	}
	if s.data == nil {
		s.data = make(map[string]string)
	}

	return s, nil
}

// Saved returns the stored preference, if any.
func (s *Store) Saved() (Theme, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, err := Parse(s.data[Key])
	if err != nil {
		return "", false
	}
	return t, true
}

// Theme returns the saved preference or the system default.
func (s *Store) Theme() Theme {
	if t, ok := s.Saved(); ok {
		return t
	}
	return s.system()
}

// Apply records t and writes it to disk.
func (s *Store) Apply(t Theme) error {
	s.mu.Lock()
	s.data[Key] = string(t)
	s.mu.Unlock()
	return s.Save()
}

// Toggle flips between light and dark and persists the result.
func (s *Store) Toggle() (Theme, error) {
	next := Dark
	if s.Theme() == Dark {
		next = Light
	}
	return next, s.Apply(next)
}

// Save writes the state file atomically.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
