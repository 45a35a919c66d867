package version

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// CacheTTL is how long a check result is reused.
const CacheTTL = 6 * time.Hour

// CacheEntry is the persisted result of the last successful check.
type CacheEntry struct {
	LatestVersion  string    `json:"latest_version"`
	CurrentVersion string    `json:"current_version"`
	CheckedAt      time.Time `json:"checked_at"`
	HasUpdate      bool      `json:"has_update"`
}

// CacheDir holds the cache file. It is set by the caller to the config
// directory.
var CacheDir = filepath.Join(os.TempDir(), "mitaan")

func cachePath() string {
	return filepath.Join(CacheDir, "version_cache.json")
}

// LoadCache reads the cached check result.
func LoadCache() (*CacheEntry, error) {
	data, err := os.ReadFile(cachePath())
	if err != nil {
		return nil, err
	}
	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache writes a check result.
func SaveCache(entry *CacheEntry) error {
	if err := os.MkdirAll(CacheDir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(cachePath(), data, 0o644)
}

// IsCacheValid reports whether entry was recorded for currentVersion
// within CacheTTL.
func IsCacheValid(entry *CacheEntry, currentVersion string) bool {
	if entry == nil || entry.CurrentVersion != currentVersion {
		return false
	}
	return time.Since(entry.CheckedAt) < CacheTTL
}
