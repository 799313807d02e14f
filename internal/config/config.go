package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port        string
	DataFile    string
	IndexPage   string
	CatalogPath string // optional YAML catalog used when seeding

	// Remote backend. Both must be set for remote mode.
	RemoteURL string
	RemoteKey string

	UseServerStorage bool
	SyncInterval     time.Duration
	EnableRealtime   bool
	RemoteTimeout    time.Duration

	LocalStorePath string
}

// Remote reports whether a remote backend is configured and allowed.
func (c Config) Remote() bool {
	return c.UseServerStorage && c.RemoteURL != "" && c.RemoteKey != ""
}

func Load() Config {
	cfg := Config{
		Port:             getenv("PORT", "3001"),
		DataFile:         getenv("DATA_FILE", "boss-data.json"),
		IndexPage:        getenv("INDEX_PAGE", "public/index.html"),
		CatalogPath:      getenv("BOSS_CATALOG", ""),
		RemoteURL:        getenv("SUPABASE_URL", ""),
		RemoteKey:        getenv("SUPABASE_KEY", ""),
		UseServerStorage: getenvBool("USE_SERVER_STORAGE", true),
		SyncInterval:     time.Duration(getenvInt("SYNC_INTERVAL_MS", 5000)) * time.Millisecond,
		EnableRealtime:   getenvBool("ENABLE_REALTIME", true),
		RemoteTimeout:    getenvDuration("REMOTE_TIMEOUT", 10*time.Second),
		LocalStorePath:   getenv("LOCAL_STORE_PATH", "boss-timer-local.db"),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
