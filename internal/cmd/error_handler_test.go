package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"golang.org/x/oauth2"

	"github.com/bynder/bynder-cli/internal/api"
	"github.com/bynder/bynder-cli/internal/auth"
	"github.com/bynder/bynder-cli/internal/config"
	"github.com/bynder/bynder-cli/internal/resolve"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{
			name:     "not configured",
			err:      config.ErrNotConfigured,
			contains: []string{"No Bynder portal configured.", "bynder config set base_url", "BYNDER_BASE_URL"},
		},
		{
			name:     "validation",
			err:      &api.ValidationError{Module: "media", Fields: []string{"id"}},
			contains: []string{"Error: media: missing required parameter(s): id"},
		},
		{
			name:     "credential",
			err:      fmt.Errorf("list: %w", &api.CredentialError{Err: api.ErrNoCredential}),
			contains: []string{"Not authenticated:", "bynder auth login", "set-permanent"},
		},
		{
			name:     "oauth2 rejection",
			err:      fmt.Errorf("exchange: %w", &oauth2.RetrieveError{ErrorCode: "invalid_grant"}),
			contains: []string{"Authorization failed: invalid_grant", "single use"},
		},
		{
			name:     "provider denied",
			err:      &auth.ProviderError{Code: "access_denied", Description: "user cancelled"},
			contains: []string{"Authorization was not granted", "access_denied: user cancelled"},
		},
		{
			name:     "config error on token",
			err:      &api.ConfigError{Field: "token", Reason: "malformed token"},
			contains: []string{"Invalid configuration", "bynder config show", "Log in again"},
		},
		{
			name:     "ambiguous name",
			err:      &resolve.AmbiguousError{Query: "color", Matches: []resolve.Match{{ID: "a", Name: "Color EU"}}},
			contains: []string{`ambiguous match for "color"`, "Use the ID instead of the name."},
		},
		{
			name: "api 404 with request id",
			err: &api.APIError{
				StatusCode: http.StatusNotFound,
				Body:       `{"message": "Media not found"}`,
				RequestID:  "req-1",
			},
			contains: []string{"API error (HTTP 404): Media not found", "doesn't exist", "Request ID: req-1"},
		},
		{
			name:     "api 401",
			err:      &api.APIError{StatusCode: http.StatusUnauthorized, Status: "401 Unauthorized"},
			contains: []string{"HTTP 401", "token may be invalid"},
		},
		{
			name:     "api 403",
			err:      &api.APIError{StatusCode: http.StatusForbidden},
			contains: []string{"permission"},
		},
		{
			name:     "api 502",
			err:      &api.APIError{StatusCode: http.StatusBadGateway},
			contains: []string{"Server error"},
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			contains: []string{"Connection refused.", "bynder config show"},
		},
		{
			name:     "dns",
			err:      errors.New("dial tcp: lookup acme.bynder.test: no such host"),
			contains: []string{"DNS resolution failed."},
		},
		{
			name:     "tls",
			err:      errors.New("x509: certificate signed by unknown authority"),
			contains: []string{"TLS certificate error."},
		},
		{
			name:     "default",
			err:      errors.New("boom"),
			contains: []string{"Error: boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HandleError(tt.err)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("HandleError() = %q, want it to contain %q", got, want)
				}
			}
		})
	}
}

func TestHandleError_Nil(t *testing.T) {
	if got := HandleError(nil); got != "" {
		t.Errorf("HandleError(nil) = %q, want empty", got)
	}
}
