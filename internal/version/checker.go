package version

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// UpdateAvailableMsg tells the console header that a newer release exists.
type UpdateAvailableMsg struct {
	CurrentVersion string
	LatestVersion  string
	UpdateCommand  string
}

// CheckAsync looks for a newer release off the UI loop. A fresh cached
// answer is reused; only successful lookups are cached. The command yields
// nil when there is nothing to announce.
func CheckAsync(current string) tea.Cmd {
	return func() tea.Msg {
		latest, newer, ok := cachedAnswer(current)
		if !ok {
			res := Check(context.Background(), current)
			if res.Error != nil {
				return nil
			}
			latest, newer = res.LatestVersion, res.HasUpdate
			if !IsDevelopmentVersion(current) {
				_ = SaveCache(&CacheEntry{
					LatestVersion:  latest,
					CurrentVersion: current,
					CheckedAt:      time.Now(),
					HasUpdate:      newer,
				})
			}
		}
		if !newer {
			return nil
		}
		return UpdateAvailableMsg{
			CurrentVersion: current,
			LatestVersion:  latest,
			UpdateCommand:  UpdateCommand(latest),
		}
	}
}

func cachedAnswer(current string) (latest string, newer, ok bool) {
	entry, err := LoadCache()
	if err != nil || !IsCacheValid(entry, current) {
		return "", false, false
	}
	return entry.LatestVersion, entry.HasUpdate, true
}
