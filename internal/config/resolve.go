package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	envProfile        = "BYNDER_PROFILE"
	envBaseURL        = "BYNDER_BASE_URL"
	envClientID       = "BYNDER_CLIENT_ID"
	envClientSecret   = "BYNDER_CLIENT_SECRET"
	envPermanentToken = "BYNDER_PERMANENT_TOKEN"
	envRedirectURI    = "BYNDER_REDIRECT_URI"
)

// ClientConfig contains resolved API client settings.
type ClientConfig struct {
	Profile        string
	BaseURL        string
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	PermanentToken string
	Token          json.RawMessage
	Scopes         []string
	Timeout        time.Duration
}

// ActiveProfile picks the profile name: the explicit override, then
// $BYNDER_PROFILE, then the file's default_profile, then "default".
func ActiveProfile(override string, f File) string {
	for _, candidate := range []string{override, os.Getenv(envProfile), f.DefaultProfile} {
		if name := strings.TrimSpace(candidate); name != "" {
			return name
		}
	}
	return defaultProfile
}

// Resolve merges the config file, the keyring and BYNDER_* environment
// variables, in that order of increasing precedence.
//
// The keyring is not consulted when $BYNDER_PERMANENT_TOKEN is set.
func Resolve(profileOverride string) (ClientConfig, error) {
	path, err := Path()
	if err != nil {
		return ClientConfig{}, err
	}
	f, err := LoadFile(path)
	if err != nil {
		return ClientConfig{}, err
	}
	return resolve(profileOverride, f)
}

func resolve(profileOverride string, f File) (ClientConfig, error) {
	profile := ActiveProfile(profileOverride, f)
	settings := f.Profile(profile)

	cfg := ClientConfig{
		Profile:     profile,
		BaseURL:     settings.BaseURL,
		ClientID:    settings.ClientID,
		RedirectURI: settings.RedirectURI,
		Scopes:      settings.Scopes,
	}
	if settings.Timeout != "" {
		timeout, err := parseTimeout(settings.Timeout)
		if err != nil {
			return ClientConfig{}, fmt.Errorf("profile %s: %w", profile, err)
		}
		cfg.Timeout = timeout
	}

	if firstNonBlankEnv(envPermanentToken) == "" {
		secrets, err := LoadSecrets(profile)
		if err != nil && !errors.Is(err, ErrNoSecrets) {
			return ClientConfig{}, err
		}
		cfg.ClientSecret = secrets.ClientSecret
		cfg.PermanentToken = secrets.PermanentToken
		cfg.Token = secrets.Token
	}

	overrideFromEnv(&cfg.BaseURL, envBaseURL)
	overrideFromEnv(&cfg.ClientID, envClientID)
	overrideFromEnv(&cfg.ClientSecret, envClientSecret)
	overrideFromEnv(&cfg.PermanentToken, envPermanentToken)
	overrideFromEnv(&cfg.RedirectURI, envRedirectURI)

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.BaseURL == "" {
		return ClientConfig{}, ErrNotConfigured
	}
	return cfg, nil
}

func overrideFromEnv(dst *string, key string) {
	if value := firstNonBlankEnv(key); value != "" {
		*dst = value
	}
}
