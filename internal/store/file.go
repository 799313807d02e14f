package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"boss-timer-api/internal/models"
)

// File persists the boss collection as one pretty-printed JSON document.
// Every mutation is read-modify-write of the whole collection; there is no
// lock around that cycle, so concurrent writers race and the last write wins.
type File struct {
	path string
}

func NewFile(path string) *File {
	if path == "" {
		path = "boss-data.json"
	}
	return &File{path: path}
}

func (f *File) Path() string { return f.path }

// Initialize writes seed when no data file exists yet. An existing file is
// never touched.
func (f *File) Initialize(seed []models.BossRecord) error {
	if _, err := os.Stat(f.path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", f.path, err)
	}

	bosses := make([]models.BossRecord, len(seed))
	copy(bosses, seed)
	for i := range bosses {
		bosses[i].ClearKill()
	}
	if err := f.write(bosses); err != nil {
		return err
	}
	log.Printf("store: data file initialized with %d bosses at %s", len(bosses), f.path)
	return nil
}

// ReadAll returns the stored collection, or an empty one when the file is
// missing or unreadable.
func (f *File) ReadAll() []models.BossRecord {
	data, err := os.ReadFile(f.path)
	if err != nil {
		log.Printf("store: read %s: %v", f.path, err)
		return []models.BossRecord{}
	}
	var bosses []models.BossRecord
	if err := json.Unmarshal(data, &bosses); err != nil {
		log.Printf("store: decode %s: %v", f.path, err)
		return []models.BossRecord{}
	}
	if bosses == nil {
		bosses = []models.BossRecord{}
	}
	return bosses
}

// WriteAll replaces the stored collection. It reports false on failure.
func (f *File) WriteAll(bosses []models.BossRecord) bool {
	if err := f.write(bosses); err != nil {
		log.Printf("store: write %s: %v", f.path, err)
		return false
	}
	return true
}

func (f *File) write(bosses []models.BossRecord) error {
	if bosses == nil {
		bosses = []models.BossRecord{}
	}
	data, err := json.MarshalIndent(bosses, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}
