// Package version asks GitHub whether a newer mitaan release exists.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const modulePath = "github.com/mitaan/mitaan"

// ReleaseURL answers with the newest published release.
var ReleaseURL = "https://api.github.com/repos/mitaan/mitaan/releases/latest"

const checkTimeout = 5 * time.Second

// Release is the part of the GitHub release payload we read.
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	HTMLURL     string    `json:"html_url"`
}

// CheckResult is what a release lookup found. Error is set when the lookup
// itself failed; HasUpdate is then false.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	UpdateURL      string
	HasUpdate      bool
	Error          error
}

// Check looks up the newest release. Unreleased builds skip the lookup.
func Check(ctx context.Context, current string) CheckResult {
	res := CheckResult{CurrentVersion: current}
	if IsDevelopmentVersion(current) {
		return res
	}

	rel, err := latestRelease(ctx)
	if err != nil {
		res.Error = err
		return res
	}
	res.LatestVersion = rel.TagName
	res.UpdateURL = rel.HTMLURL
	res.HasUpdate = IsNewer(rel.TagName, current)
	return res
}

func latestRelease(ctx context.Context) (*Release, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup: unexpected status %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("release lookup: decode: %w", err)
	}
	return &rel, nil
}

// IsDevelopmentVersion reports whether v was built from a checkout rather
// than a tagged release.
func IsDevelopmentVersion(v string) bool {
	switch v {
	case "", "dev", "devel", "unknown":
		return true
	}
	return strings.HasPrefix(v, "devel+")
}

// IsNewer compares two release tags, with or without the leading v.
// Anything that is not semver loses.
func IsNewer(latest, current string) bool {
	l, c := withV(latest), withV(current)
	if !semver.IsValid(l) || !semver.IsValid(c) {
		return false
	}
	return semver.Compare(l, c) > 0
}

func withV(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// UpdateCommand is the shell line that installs release v. Tags that are
// not full canonical semver yield "" so nothing odd reaches a shell.
func UpdateCommand(v string) string {
	tag := withV(v)
	if !semver.IsValid(tag) || semver.Canonical(tag) != tag {
		return ""
	}
	return fmt.Sprintf(`go install -ldflags "-X main.Version=%s" %s@%s`, tag, modulePath, tag)
}
