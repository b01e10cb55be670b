// internal/update/update_test.go
package update

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestChecker(t *testing.T, handler http.HandlerFunc) *Checker {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &Checker{URL: server.URL, HTTP: server.Client(), UserAgent: "bynder-cli/test"}
}

func releaseHandler(t *testing.T, release Release) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/vnd.github.v3+json" {
			t.Error("Expected GitHub API accept header")
		}
		if r.Header.Get("User-Agent") != "bynder-cli/test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(release)
	}
}

func TestNormalizeVersion(t *testing.T) {
	tests := map[string]string{
		"1.0.0":   "v1.0.0",
		"v1.0.0":  "v1.0.0",
		" 2.3.4 ": "v2.3.4",
		"":        "",
		"dev":     "",
	}
	for input, want := range tests {
		if got := normalizeVersion(input); got != want {
			t.Errorf("normalizeVersion(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCheck_UnversionedBuildsSkipNetwork(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	for _, v := range []string{"", "dev", "not-a-version"} {
		if c.Check(context.Background(), v) != nil {
			t.Errorf("Check(%q) should return nil", v)
		}
	}
}

func TestCheck_UpdateAvailable(t *testing.T) {
	c := newTestChecker(t, releaseHandler(t, Release{
		TagName: "v2.0.0",
		HTMLURL: "https://github.com/bynder/bynder-cli/releases/tag/v2.0.0",
	}))

	result := c.Check(context.Background(), "1.4.2")
	if result == nil {
		t.Fatal("expected a result")
	}
	if !result.UpdateAvailable {
		t.Error("expected an update to be available")
	}
	if result.CurrentVersion != "1.4.2" || result.LatestVersion != "2.0.0" {
		t.Errorf("unexpected versions %+v", result)
	}
}

func TestCheck_UpToDate(t *testing.T) {
	c := newTestChecker(t, releaseHandler(t, Release{TagName: "v1.4.2"}))

	result := c.Check(context.Background(), "v1.4.2")
	if result == nil || result.UpdateAvailable {
		t.Errorf("expected no update, got %+v", result)
	}
}

func TestCheck_PrereleaseIgnoredForStable(t *testing.T) {
	c := newTestChecker(t, releaseHandler(t, Release{TagName: "v2.0.0-rc.1", Prerelease: true}))

	if result := c.Check(context.Background(), "1.0.0"); result == nil || result.UpdateAvailable {
		t.Errorf("stable users should not be offered a pre-release, got %+v", result)
	}
	if result := c.Check(context.Background(), "2.0.0-beta.1"); result == nil || !result.UpdateAvailable {
		t.Errorf("pre-release users should be offered a newer pre-release, got %+v", result)
	}
}

func TestCheck_Failures(t *testing.T) {
	tests := map[string]http.HandlerFunc{
		"server error": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		},
		"invalid json": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		},
	}
	for name, handler := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestChecker(t, handler)
			if result := c.Check(context.Background(), "1.0.0"); result != nil {
				t.Errorf("expected nil, got %+v", result)
			}
		})
	}
}

func TestCheck_Timeout(t *testing.T) {
	c := newTestChecker(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if result := c.Check(ctx, "1.0.0"); result != nil {
		t.Errorf("expected nil on timeout, got %+v", result)
	}
}

func TestNewChecker(t *testing.T) {
	c := NewChecker("ua")
	if c.URL != DefaultReleasesURL || c.HTTP == nil || c.UserAgent != "ua" {
		t.Errorf("unexpected checker %+v", c)
	}
}
