package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/bynder/bynder-cli/internal/validation"
)

const (
	envConfigPath  = "BYNDER_CONFIG"
	configFileName = "config.toml"
)

// Settings are the non-secret settings of one profile.
type Settings struct {
	BaseURL     string   `toml:"base_url,omitempty"`
	ClientID    string   `toml:"client_id,omitempty"`
	RedirectURI string   `toml:"redirect_uri,omitempty"`
	Scopes      []string `toml:"scopes,omitempty"`
	Timeout     string   `toml:"timeout,omitempty"`
}

// File is the on-disk configuration.
type File struct {
	DefaultProfile string              `toml:"default_profile,omitempty"`
	Profiles       map[string]Settings `toml:"profiles,omitempty"`
}

// Keys lists the settings accepted by File.Set.
var Keys = []string{"base_url", "client_id", "redirect_uri", "scopes", "timeout"}

// Path returns the config file location: $BYNDER_CONFIG when set, otherwise
// config.toml under the user config directory.
func Path() (string, error) {
	if path := firstNonBlankEnv(envConfigPath); path != "" {
		return expandPath(path)
	}
	dir, err := userConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, serviceName, configFileName), nil
}

// LoadFile parses the config file at path. A missing file yields an empty File.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return File{}, nil
		}
		return File{}, fmt.Errorf("read config: %w", err)
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("parse config: %w", err)
	}
	return f, nil
}

// SaveFile writes f to path, creating parent directories.
func SaveFile(path string, f File) error {
	data, err := toml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Profile returns the settings of a profile, empty when unknown.
func (f File) Profile(name string) Settings {
	return f.Profiles[profileOrDefault(name)]
}

// ProfileNames returns the configured profile names in order.
func (f File) ProfileNames() []string {
	names := make([]string, 0, len(f.Profiles))
	for name := range f.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Set validates and stores one setting of a profile.
func (f *File) Set(profile, key, value string) error {
	profile = profileOrDefault(profile)
	settings := f.Profiles[profile]
	value = strings.TrimSpace(value)

	switch key {
	case "base_url":
		if err := validation.ValidateBaseURL(value); err != nil {
			return err
		}
		settings.BaseURL = strings.TrimSuffix(value, "/")
	case "client_id":
		settings.ClientID = value
	case "redirect_uri":
		if err := validation.ValidateRedirectURI(value); err != nil {
			return err
		}
		settings.RedirectURI = value
	case "scopes":
		settings.Scopes = validation.SplitList(value)
	case "timeout":
		if value != "" {
			if _, err := parseTimeout(value); err != nil {
				return err
			}
		}
		settings.Timeout = value
	default:
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys, ", "))
	}

	if f.Profiles == nil {
		f.Profiles = make(map[string]Settings)
	}
	f.Profiles[profile] = settings
	return nil
}

func parseTimeout(value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", value)
	}
	return d, nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
