package service

import (
	"fmt"
	"log"
	"os"

	"boss-timer-api/internal/models"

	"gopkg.in/yaml.v3"
)

// LoadCatalog reads a YAML boss catalog. An empty path yields the built-in seed.
func LoadCatalog(path string) ([]models.BossRecord, error) {
	if path == "" {
		return models.SeedCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file models.CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if err := validateCatalog(file.Bosses); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}

	log.Printf("Loaded catalog with %d bosses from %s", len(file.Bosses), path)
	return file.Bosses, nil
}

func validateCatalog(bosses []models.BossRecord) error {
	if len(bosses) == 0 {
		return fmt.Errorf("no bosses defined")
	}
	seen := make(map[int]bool, len(bosses))
	for _, b := range bosses {
		if b.ID <= 0 {
			return fmt.Errorf("boss %q: id must be positive", b.Name)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate boss id %d", b.ID)
		}
		seen[b.ID] = true
		if b.Interval <= 0 {
			return fmt.Errorf("boss %d: interval must be positive", b.ID)
		}
		if b.Delay < 0 {
			return fmt.Errorf("boss %d: delay must not be negative", b.ID)
		}
	}
	return nil
}
