// Package validation provides input checks shared by the API client and
// the CLI: base URL and redirect URI validation and JSON payload limits.
package validation

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateBaseURL validates the API base URL. It checks that the URL:
//   - Is absolute and uses the http or https scheme
//   - Contains a hostname
//   - Carries no query string or fragment
//
// Returns nil if the URL is valid, or an error describing the validation failure.
func ValidateBaseURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if !parsedURL.IsAbs() {
		return fmt.Errorf("URL must be absolute, got %q", rawURL)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", parsedURL.Scheme)
	}

	if parsedURL.Hostname() == "" {
		return fmt.Errorf("URL must contain a hostname")
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("URL must not contain a query string or fragment")
	}

	return nil
}

// ValidateRedirectURI validates an OAuth2 redirect URI. Unlike the base URL
// it may carry a query string, but it must still be an absolute http(s) URL.
func ValidateRedirectURI(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("redirect URI cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid redirect URI format: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("invalid redirect URI scheme: only http and https are allowed, got %q", parsedURL.Scheme)
	}

	if parsedURL.Hostname() == "" {
		return fmt.Errorf("redirect URI must contain a hostname")
	}

	if parsedURL.Fragment != "" {
		return fmt.Errorf("redirect URI must not contain a fragment")
	}

	return nil
}
