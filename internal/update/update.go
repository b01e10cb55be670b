// Package update checks GitHub for newer bynder-cli releases.
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"
)

const (
	// DefaultReleasesURL is the GitHub endpoint for the latest release.
	DefaultReleasesURL = "https://api.github.com/repos/bynder/bynder-cli/releases/latest"
	CheckTimeout       = 5 * time.Second
)

// Release is the subset of the GitHub release payload that is used.
type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
}

// CheckResult describes the outcome of a successful check.
type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	UpdateAvailable bool
}

// Checker queries a releases endpoint.
type Checker struct {
	URL       string
	HTTP      *http.Client
	UserAgent string
}

// NewChecker returns a checker for the public releases endpoint.
func NewChecker(userAgent string) *Checker {
	return &Checker{URL: DefaultReleasesURL, HTTP: http.DefaultClient, UserAgent: userAgent}
}

// Check reports whether a newer version than currentVersion exists.
// It returns nil when the check cannot be made and never blocks the CLI
// for longer than CheckTimeout.
func (c *Checker) Check(ctx context.Context, currentVersion string) *CheckResult {
	current := normalizeVersion(currentVersion)
	if !semver.IsValid(current) {
		return nil
	}
	logger := zerolog.Ctx(ctx)

	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		logger.Debug().Err(err).Msg("update check failed")
		return nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		logger.Debug().Int("status", resp.StatusCode).Msg("update check failed")
		return nil
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		logger.Debug().Err(err).Msg("update check returned an invalid payload")
		return nil
	}

	latest := normalizeVersion(release.TagName)
	result := &CheckResult{
		CurrentVersion: strings.TrimPrefix(currentVersion, "v"),
		LatestVersion:  strings.TrimPrefix(release.TagName, "v"),
		UpdateURL:      release.HTMLURL,
	}

	// Pre-releases are only offered to users already on one.
	if release.Prerelease && semver.Prerelease(current) == "" {
		return result
	}
	if semver.IsValid(latest) {
		result.UpdateAvailable = semver.Compare(latest, current) > 0
	}
	return result
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || v == "dev" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		return "v" + v
	}
	return v
}
