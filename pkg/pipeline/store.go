package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ronuhz/ubborarservice/pkg/config"
)

// StatusFile is the run status artifact, relative to the output root.
const StatusFile = ".scrape-status.json"

// RoomsFile is the room legend artifact, relative to the output root.
const RoomsFile = "rooms.json"

// Store reads and writes JSON artifacts under one output root. Writes
// are atomic (temp file + rename) so a cancelled run never leaves a
// half-written artifact behind.
type Store struct {
	Root string
}

func NewStore(root string) *Store {
	return &Store{Root: root}
}

// TimetablePath is the deterministic artifact path for one group:
// {academicYear}/{programId}/y{year}/g{group}.json
func (s *Store) TimetablePath(src config.Source, group int) string {
	return filepath.Join(src.AcademicYear, src.ProgramID, fmt.Sprintf("y%d", src.Year), fmt.Sprintf("g%d.json", group))
}

// Exists reports whether a previous run left an artifact at rel.
func (s *Store) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.Root, rel))
	return err == nil
}

// WriteJSON marshals payload indented and writes it atomically.
func (s *Store) WriteJSON(rel string, payload any) error {
	full := filepath.Join(s.Root, rel)
	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", rel, err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", rel, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// ReadJSON loads an artifact into the given value. A missing file is
// reported as os.ErrNotExist.
func (s *Store) ReadJSON(rel string, into any) error {
	data, err := os.ReadFile(filepath.Join(s.Root, rel))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	return nil
}
