// Package presets persists named tool option sets as a JSON file in the
// work directory. Writes go through a temp file and rename so a crash never
// leaves a truncated store.
package presets

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrNotFound indicates the named preset does not exist.
var ErrNotFound = errors.New("preset not found")

// Preset is one saved option set for a tool.
type Preset struct {
	Name        string          `json:"name"`
	TaskType    string          `json:"task_type"`
	OptionsJSON json.RawMessage `json:"options"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Store reads and writes the preset file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store backed by path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// List returns all presets, optionally filtered by task type, sorted by name.
func (s *Store) List(taskType string) ([]Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []Preset
	for _, preset := range all {
		if taskType == "" || preset.TaskType == taskType {
			out = append(out, preset)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Get returns one preset by name.
func (s *Store) Get(name string) (*Preset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// Save creates or replaces a preset.
func (s *Store) Save(name, taskType string, options json.RawMessage) (*Preset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("preset name must not be empty")
	}
	if len(options) == 0 {
		options = json.RawMessage("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	for i := range all {
		if all[i].Name == name {
			all[i].TaskType = taskType
			all[i].OptionsJSON = options
			all[i].UpdatedAt = now
			if err := s.persist(all); err != nil {
				return nil, err
			}
			return &all[i], nil
		}
	}

	preset := Preset{Name: name, TaskType: taskType, OptionsJSON: options, CreatedAt: now, UpdatedAt: now}
	all = append(all, preset)
	if err := s.persist(all); err != nil {
		return nil, err
	}
	return &preset, nil
}

// Delete removes a preset by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	kept := all[:0]
	found := false
	for _, preset := range all {
		if preset.Name == name {
			found = true
			continue
		}
		kept = append(kept, preset)
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return s.persist(kept)
}

func (s *Store) load() ([]Preset, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read presets: %w", err)
	}
	var all []Preset
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, fmt.Errorf("parse presets file %s: %w", s.path, err)
	}
	return all, nil
}

func (s *Store) persist(all []Preset) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create presets directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "presets-*.json")
	if err != nil {
		return fmt.Errorf("create temp presets file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write presets: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close presets file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace presets file: %w", err)
	}
	return nil
}
