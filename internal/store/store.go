// Package store persists the profile, the meal log and the uploaded photos
// as plain files under one data directory. Reads of a corrupt or missing
// file degrade to empty state; every save rewrites the whole file, which is
// the unit of atomicity here. A second process writing the same directory
// can lose updates — acceptable for a single-user tool, a real limitation
// on a shared server.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/MinHeokChoi/meal-agent-mvp/internal/models"
)

const (
	profileFile = "user_profile.json"
	logFile     = "meals_log.json"
	mealsDir    = "meals"
)

type Store struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, mealsDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// LoadProfile returns the saved profile, or the zero profile when nothing
// usable is on disk. It never fails.
func (s *Store) LoadProfile() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()

	var p models.Profile
	data, err := os.ReadFile(filepath.Join(s.dir, profileFile))
	if err != nil {
		return models.Profile{}
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return models.Profile{}
	}
	return p
}

// SaveProfile overwrites the single profile record wholesale.
func (s *Store) SaveProfile(p models.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, profileFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// LoadLog returns the full meal log in append order, or an empty log when
// the file is missing or corrupt.
func (s *Store) LoadLog() []models.MealLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLogLocked()
}

func (s *Store) loadLogLocked() []models.MealLogEntry {
	data, err := os.ReadFile(filepath.Join(s.dir, logFile))
	if err != nil {
		return nil
	}
	var log []models.MealLogEntry
	if err := json.Unmarshal(data, &log); err != nil {
		return nil
	}
	return log
}

// AppendLog reads the full log, appends one entry and rewrites the file.
// Existing entries are never mutated.
func (s *Store) AppendLog(entry models.MealLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.loadLogLocked(), entry)
	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode meal log: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, logFile), data, 0o644); err != nil {
		return fmt.Errorf("failed to write meal log: %w", err)
	}
	return nil
}

// SaveImage writes the photo bytes under meals/ with a timestamped name
// and returns the stored path.
func (s *Store) SaveImage(img []byte, ext string, ts time.Time) (string, error) {
	name := fmt.Sprintf("meal_%s.%s", ts.Format("20060102_150405"), ext)
	path := filepath.Join(s.dir, mealsDir, name)
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return "", fmt.Errorf("failed to write meal image: %w", err)
	}
	return path, nil
}
