package service

import (
	"os"
	"path/filepath"
	"testing"

	"boss-timer-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadCatalogDefault(t *testing.T) {
	bosses, err := LoadCatalog("")
	require.NoError(t, err)
	assert.Equal(t, models.SeedCatalog(), bosses)
}

func TestLoadCatalogFile(t *testing.T) {
	path := writeCatalog(t, `
_comment: test catalog
bosses:
  - id: 1
    category: Sea
    name: Kraken
    interval: 6
    delay: 0
  - id: 2
    category: Fire
    name: Ifrit
    interval: 1.5
    delay: 30
`)
	bosses, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, bosses, 2)
	assert.Equal(t, "Ifrit", bosses[1].Name)
	assert.Equal(t, 1.5, bosses[1].Interval)
	assert.Equal(t, float64(30), bosses[1].Delay)
	assert.Nil(t, bosses[1].LastKillTime)
}

func TestLoadCatalogInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", "bosses: []\n"},
		{"duplicate id", "bosses:\n  - {id: 1, name: a, interval: 1}\n  - {id: 1, name: b, interval: 1}\n"},
		{"zero interval", "bosses:\n  - {id: 1, name: a, interval: 0}\n"},
		{"negative delay", "bosses:\n  - {id: 1, name: a, interval: 2, delay: -1}\n"},
		{"bad yaml", "bosses: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(writeCatalog(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalogMissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
