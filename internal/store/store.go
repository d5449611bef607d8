package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"tournament-bot/internal/models"
)

// Store persists ledger snapshots as a single JSON file. Writes go through
// a temp file and an atomic rename so a crash mid-save never truncates the
// previous snapshot.
type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

// Save writes the snapshot to disk.
func (s *Store) Save(snap models.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

// Load reads the last saved snapshot. A missing file is not an error: the
// bot starts fresh, matching first-run behavior.
func (s *Store) Load() (models.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.Snapshot{TeamNames: map[int64]string{}}, nil
	}
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return models.Snapshot{}, fmt.Errorf("decode snapshot %s: %w", s.path, err)
	}
	if snap.TeamNames == nil {
		snap.TeamNames = map[int64]string{}
	}
	return snap, nil
}
