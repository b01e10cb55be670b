// Package config stores bynder-cli settings and credentials.
//
// Non-secret settings live in a TOML file, one table per profile. Secrets
// (client secret, permanent token and the OAuth2 token) live in the OS
// keyring keyed by profile.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName    = "bynder-cli"
	defaultKey     = "default"
	defaultProfile = "default"
	profilePrefix  = "profile:"

	envKeyringBackend  = "BYNDER_KEYRING_BACKEND"
	envKeyringPassword = "BYNDER_KEYRING_PASSWORD"
	envCredentialsDir  = "BYNDER_CREDENTIALS_DIR"

	keyringBackendAuto   = "auto"
	keyringBackendFile   = "file"
	keyringBackendSystem = "system"
)

// openKeyring is a package-level function for opening keyrings.
// It can be replaced in tests to use a mock keyring.
var openKeyring = func(cfg keyring.Config) (keyring.Keyring, error) {
	return keyring.Open(cfg)
}

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// SetOpenKeyring allows replacing the keyring opener for testing.
// Returns a cleanup function that restores the original.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	original := openKeyring
	openKeyring = fn
	return func() { openKeyring = original }
}

// Secrets holds the credentials of one profile.
type Secrets struct {
	ClientSecret   string          `json:"client_secret,omitempty"`
	PermanentToken string          `json:"permanent_token,omitempty"`
	Token          json.RawMessage `json:"token,omitempty"`
}

// Empty reports whether no secret is set.
func (s Secrets) Empty() bool {
	return s.ClientSecret == "" && s.PermanentToken == "" && len(s.Token) == 0
}

// ErrNotConfigured is returned when no base URL has been configured
var ErrNotConfigured = errors.New("bynder not configured - run 'bynder config set base_url <url>' first")

// ErrNoSecrets is returned when a profile has nothing stored in the keyring
var ErrNoSecrets = errors.New("no credentials stored for profile")

// keyringConfig returns the keyring configuration
func keyringConfig() keyring.Config {
	cfg := keyring.Config{
		ServiceName: serviceName,
	}

	backend := keyringBackendMode()
	if backend == keyringBackendSystem {
		return cfg
	}

	// Auto mode still needs file details so keyring.Open can fall through to
	// encrypted file storage when native backends are missing.
	configureFileBackend(&cfg)

	// Headless Linux should bypass other backends and use encrypted file storage.
	if shouldForceFileBackend(runtime.GOOS, backend, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}

	return cfg
}

func keyringBackendMode() string {
	switch strings.ToLower(firstNonBlankEnv(envKeyringBackend)) {
	case keyringBackendFile:
		return keyringBackendFile
	case keyringBackendSystem, "os", "native":
		return keyringBackendSystem
	default:
		return keyringBackendAuto
	}
}

func shouldForceFileBackend(goos, backend, dbusAddr string) bool {
	if backend == keyringBackendFile {
		return true
	}
	if backend != keyringBackendAuto {
		return false
	}
	return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
}

func configureFileBackend(cfg *keyring.Config) {
	cfg.FileDir = keyringFileDir()
	cfg.FilePasswordFunc = keyringFilePassword
}

func keyringFileDir() string {
	base := firstNonBlankEnv(envCredentialsDir)
	if base == "" {
		if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
			base = filepath.Join(dir, serviceName)
		}
	}
	if base == "" {
		base = filepath.Join(os.TempDir(), serviceName)
	}
	return filepath.Join(base, "keyring")
}

func keyringFilePassword(prompt string) (string, error) {
	if password, ok := os.LookupEnv(envKeyringPassword); ok && strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}

func firstNonBlankEnv(keys ...string) string {
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			if trimmed := strings.TrimSpace(value); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

func profileKey(name string) string {
	if name == "" || name == defaultProfile {
		return defaultKey
	}
	return profilePrefix + name
}

// SaveSecrets stores the credentials of a profile in the OS keyring.
func SaveSecrets(profile string, secrets Secrets) error {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	data, err := json.Marshal(secrets)
	if err != nil {
		return fmt.Errorf("failed to marshal secrets: %w", err)
	}

	if err := ring.Set(keyring.Item{
		Key:   profileKey(profile),
		Data:  data,
		Label: serviceName + " " + profileOrDefault(profile),
	}); err != nil {
		return fmt.Errorf("failed to save secrets: %w", err)
	}
	return nil
}

// LoadSecrets retrieves the credentials of a profile. It returns
// ErrNoSecrets when nothing is stored.
func LoadSecrets(profile string) (Secrets, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return Secrets{}, fmt.Errorf("failed to open keyring: %w", err)
	}

	item, err := ring.Get(profileKey(profile))
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return Secrets{}, ErrNoSecrets
		}
		return Secrets{}, fmt.Errorf("failed to get secrets: %w", err)
	}

	var secrets Secrets
	if err := json.Unmarshal(item.Data, &secrets); err != nil {
		return Secrets{}, fmt.Errorf("failed to unmarshal secrets: %w", err)
	}
	return secrets, nil
}

// UpdateSecrets loads a profile's secrets, applies fn and stores the result.
// A profile with nothing stored starts from empty secrets.
func UpdateSecrets(profile string, fn func(*Secrets)) error {
	secrets, err := LoadSecrets(profile)
	if err != nil && !errors.Is(err, ErrNoSecrets) {
		return err
	}
	fn(&secrets)
	if secrets.Empty() {
		return DeleteSecrets(profile)
	}
	return SaveSecrets(profile, secrets)
}

// DeleteSecrets removes a profile's credentials. Missing entries are not an error.
func DeleteSecrets(profile string) error {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return fmt.Errorf("failed to open keyring: %w", err)
	}

	err = ring.Remove(profileKey(profile))
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove secrets: %w", err)
	}
	return nil
}

func profileOrDefault(profile string) string {
	if strings.TrimSpace(profile) == "" {
		return defaultProfile
	}
	return strings.TrimSpace(profile)
}
