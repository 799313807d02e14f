package store

import (
	"database/sql"
	"errors"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a string key/value area, the local stand-in for browser storage.
// Values are whole serialized collections.
type SQLite struct {
	DB *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	if path == "" {
		path = "boss-timer-local.db"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	s := &SQLite{DB: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) Close() error { return s.DB.Close() }

func (s *SQLite) init() error {
	_, err := s.DB.Exec(`
		CREATE TABLE IF NOT EXISTS local_storage (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	return err
}

// GetItem returns the value stored under key. ok is false when the key is unset.
func (s *SQLite) GetItem(key string) (value string, ok bool, err error) {
	err = s.DB.QueryRow(`SELECT value FROM local_storage WHERE key=?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *SQLite) SetItem(key, value string) error {
	if key == "" {
		return errors.New("key required")
	}
	_, err := s.DB.Exec(`INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`, key, value)
	return err
}

func (s *SQLite) RemoveItem(key string) error {
	_, err := s.DB.Exec(`DELETE FROM local_storage WHERE key=?`, key)
	return err
}
