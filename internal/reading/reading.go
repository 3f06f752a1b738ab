// Package reading persists saved PD measurements.
package reading

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"pd-meter/internal/marker"
	"pd-meter/internal/measure"

	"github.com/google/uuid"
)

const readingsFile = "readings.json"

// Reading is a value snapshot of a measurement and the markers it came from.
type Reading struct {
	ID         string         `json:"id"`
	Result     measure.Result `json:"result"`
	Markers    marker.Set     `json:"markers"`
	CapturedAt time.Time      `json:"captured_at"`
	SavedAt    time.Time      `json:"saved_at"`
}

// New creates a reading with a fresh ID, saved now.
func New(result measure.Result, markers marker.Set, capturedAt time.Time) Reading {
	return Reading{
		ID:         uuid.NewString(),
		Result:     result,
		Markers:    markers,
		CapturedAt: capturedAt,
		SavedAt:    time.Now(),
	}
}

// Store holds saved readings backed by a JSON file.
type Store struct {
	mu       sync.RWMutex
	path     string
	readings []Reading
}

// DefaultPath returns the standard readings file location under the user
// config directory.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, "pd-meter", readingsFile)
}

// Open loads the store at the given path. A missing file yields an empty store.
func Open(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read readings: %w", err)
	}
	if err := json.Unmarshal(data, &s.readings); err != nil {
		return nil, fmt.Errorf("failed to parse readings: %w", err)
	}
	return s, nil
}

// Add appends a reading and writes the store to disk.
func (s *Store) Add(r Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readings = append(s.readings, r)
	return s.saveLocked()
}

// Remove deletes a reading by ID and writes the store to disk.
func (s *Store) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.readings {
		if r.ID == id {
			s.readings = append(s.readings[:i], s.readings[i+1:]...)
			return s.saveLocked()
		}
	}
	return fmt.Errorf("reading %s not found", id)
}

// List returns a copy of all saved readings, newest last.
func (s *Store) List() []Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reading, len(s.readings))
	copy(out, s.readings)
	return out
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.readings, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
